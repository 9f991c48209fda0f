package browser

import (
	"context"
	"time"
)

var popupSelectors = []string{
	"[role='dialog'] button[aria-label*='close' i]",
	"[role='dialog'] button[aria-label*='закрыть' i]",
	".modal button.close",
	".popup button.close",
	"[data-dismiss='modal']",
	".close-button",
	"[aria-label='Close']",
	"[aria-label='Закрыть']",
}

// ClosePopups закрывает видимые модальные окна, которые перекрывают кнопки карточки.
// Ошибки отдельных элементов игнорируются: попапа может просто не быть.
func (p *SessionPage) ClosePopups(ctx context.Context) error {
	for _, selector := range popupSelectors {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		elements, err := p.page.QuerySelectorAll(selector)
		if err != nil {
			continue
		}

		for _, element := range elements {
			isVisible, err := element.IsVisible()
			if err != nil || !isVisible {
				continue
			}

			if err := element.Click(); err == nil {
				time.Sleep(500 * time.Millisecond)
			}
		}
	}

	return nil
}
