// Package portal содержит шаги до выгрузки: вход на портал, переход на
// отфильтрованную карточку и выбор элемента списка.
package portal

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

type Page interface {
	URL() string
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error
}

type Credentials struct {
	LoginURL         string
	Username         string
	Password         string
	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string
}

func (c Credentials) Configured() bool {
	return c.LoginURL != "" && c.Username != "" && c.Password != ""
}

const settleTimeout = 15 * time.Second

// SignIn открывает страницу входа, заполняет логин и пароль и отправляет форму.
func SignIn(ctx context.Context, page Page, creds Credentials, log *zap.Logger) error {
	if !creds.Configured() {
		return fmt.Errorf("учетные данные портала не настроены")
	}

	if err := page.Navigate(ctx, creds.LoginURL); err != nil {
		return fmt.Errorf("переход на страницу входа: %w", err)
	}
	if err := page.Fill(ctx, creds.UsernameSelector, creds.Username); err != nil {
		return fmt.Errorf("ввод логина: %w", err)
	}
	if err := page.Fill(ctx, creds.PasswordSelector, creds.Password); err != nil {
		return fmt.Errorf("ввод пароля: %w", err)
	}
	if err := page.Click(ctx, creds.SubmitSelector); err != nil {
		return fmt.Errorf("отправка формы входа: %w", err)
	}
	if err := page.WaitForNetworkIdle(ctx, settleTimeout); err != nil {
		log.Warn("Страница после входа не успокоилась", zap.Error(err))
	}

	log.Info("Вход на портал выполнен", zap.String("url", page.URL()))
	return nil
}

// DetailURL добавляет к адресу карточки параметры фильтрации.
func DetailURL(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("неверный адрес карточки %q: %w", base, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("адрес карточки должен быть абсолютным: %q", base)
	}

	query := u.Query()
	for key, value := range params {
		if value == "" {
			continue
		}
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func OpenDetail(ctx context.Context, page Page, detailURL string, log *zap.Logger) error {
	if err := page.Navigate(ctx, detailURL); err != nil {
		return fmt.Errorf("переход на карточку: %w", err)
	}
	log.Debug("Открыта карточка", zap.String("url", page.URL()))
	return nil
}

// SelectItem кликает по index-му (с нуля) элементу списка.
func SelectItem(ctx context.Context, page Page, selector string, index int) error {
	if selector == "" {
		return fmt.Errorf("селектор элементов списка не настроен")
	}
	if index < 0 {
		return fmt.Errorf("отрицательный индекс элемента: %d", index)
	}

	if err := page.Click(ctx, ItemSelector(selector, index)); err != nil {
		return fmt.Errorf("выбор элемента %d: %w", index, err)
	}
	_ = page.WaitForNetworkIdle(ctx, settleTimeout)
	return nil
}

// ItemSelector использует :nth-match из Playwright, индекс в нем с единицы.
func ItemSelector(selector string, index int) string {
	return fmt.Sprintf(":nth-match(%s, %d)", selector, index+1)
}

// SourceIdentifier извлекает идентификатор документа из параметра адреса.
func SourceIdentifier(rawURL, key string) string {
	if key == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}
