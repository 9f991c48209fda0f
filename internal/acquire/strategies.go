package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (a *Acquirer) defaultStrategies() []Strategy {
	viewerBudget := a.cfg.ViewerSettleTimeout + a.cfg.ViewerProbeTimeout + a.cfg.ViewerDownloadTimeout + 5*time.Second

	return []Strategy{
		{Kind: StrategyDirectReplay, Timeout: a.cfg.DirectReplayTimeout, Run: a.directReplay},
		{Kind: StrategyNativeDownload, Timeout: a.cfg.NativeDownloadTimeout + 5*time.Second, Run: a.nativeDownload},
		{Kind: StrategyViewer, Timeout: viewerBudget, Run: a.viewerInteraction},
		{Kind: StrategyResourceFetch, Timeout: a.cfg.ResourceFetchTimeout, Run: a.resourceFetch},
		{Kind: StrategyHTTPReplication, Timeout: a.cfg.ReplicationTimeout, Run: a.httpReplication},
	}
}

// endpointURL разрешает адрес выгрузки относительно текущей страницы.
func (a *Acquirer) endpointURL(pageURL string) (string, error) {
	if a.cfg.DownloadEndpoint == "" {
		return "", fmt.Errorf("%w: адрес выгрузки не настроен", ErrNotApplicable)
	}

	endpoint, err := url.Parse(a.cfg.DownloadEndpoint)
	if err != nil {
		return "", fmt.Errorf("неверный адрес выгрузки: %w", err)
	}
	if endpoint.IsAbs() {
		return endpoint.String(), nil
	}

	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return "", fmt.Errorf("неверный адрес страницы %q", pageURL)
	}
	return base.ResolveReference(endpoint).String(), nil
}

func (a *Acquirer) sessionIdentity(ctx context.Context, page Page) ([]*http.Cookie, string, error) {
	cookies, err := page.Cookies(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("ошибка чтения cookies: %w", err)
	}

	userAgent, err := page.UserAgent(ctx)
	if err != nil {
		a.log.Debug("Не удалось прочитать user agent", zap.Error(err))
		userAgent = ""
	}

	return cookies, userAgent, nil
}

// directReplay повторяет отправку формы карточки прямым POST запросом.
func (a *Acquirer) directReplay(ctx context.Context, page Page, req Request) Outcome {
	const kind = StrategyDirectReplay

	snapshot, err := ReadForm(ctx, page)
	if err != nil {
		return Failed(kind, "чтение формы", err)
	}
	if err := snapshot.check(a.cfg.IDField, a.cfg.TokenField); err != nil {
		return NotApplicable(kind, "неполная форма", err)
	}

	pageURL := page.URL()
	endpoint, err := a.endpointURL(pageURL)
	if err != nil {
		if errors.Is(err, ErrNotApplicable) {
			return NotApplicable(kind, "нет адреса выгрузки", nil)
		}
		return Failed(kind, "адрес выгрузки", err)
	}

	cookies, userAgent, err := a.sessionIdentity(ctx, page)
	if err != nil {
		return Failed(kind, "сессия браузера", err)
	}

	client := NewSessionClient(SessionOptions{
		Cookies:   cookies,
		UserAgent: userAgent,
		Referer:   pageURL,
		Timeout:   a.cfg.DirectReplayTimeout,
	})
	res, err := client.PostForm(ctx, endpoint, snapshot)
	return responseOutcome(kind, res, err)
}

// nativeDownload кликает по кнопке выгрузки и ждет событие загрузки браузера.
func (a *Acquirer) nativeDownload(ctx context.Context, page Page, req Request) Outcome {
	const kind = StrategyNativeDownload

	if a.cfg.TriggerSelector == "" {
		return NotApplicable(kind, "кнопка выгрузки не настроена", nil)
	}

	dl, err := page.ExpectDownload(ctx, func() error {
		return page.Click(ctx, a.cfg.TriggerSelector)
	}, a.cfg.NativeDownloadTimeout)
	if err != nil {
		return Failed(kind, "ожидание загрузки", err)
	}

	return a.downloadOutcome(kind, dl)
}

func (a *Acquirer) downloadOutcome(kind StrategyKind, dl Download) Outcome {
	data, err := readDownload(dl, a.cfg.Artifact.Extension)
	if err != nil {
		return Failed(kind, "сохранение загрузки", err)
	}
	a.log.Debug("Получена загрузка браузера",
		zap.String("strategy", kind.String()),
		zap.String("suggested_filename", dl.SuggestedFilename()))
	return Success(data, "")
}

// viewerInteraction обрабатывает случай, когда клик открывает встроенный
// просмотрщик вместо загрузки.
func (a *Acquirer) viewerInteraction(ctx context.Context, page Page, req Request) Outcome {
	const kind = StrategyViewer

	if a.cfg.TriggerSelector == "" {
		return NotApplicable(kind, "кнопка выгрузки не настроена", nil)
	}

	// Клик предыдущей стратегии мог уже открыть просмотрщик и убрать кнопку.
	if err := page.Click(ctx, a.cfg.TriggerSelector); err != nil {
		a.log.Debug("Клик по кнопке выгрузки не удался, проверяем текущую страницу", zap.Error(err))
	}

	if err := page.WaitForNetworkIdle(ctx, a.cfg.ViewerSettleTimeout); err != nil {
		a.log.Debug("Страница не успокоилась, продолжаем", zap.Error(err))
	}

	html, err := page.Content(ctx)
	if err != nil {
		return Failed(kind, "чтение страницы", err)
	}
	if !a.looksLikeViewer(html) {
		return NotApplicable(kind, "просмотрщик не открылся", nil)
	}

	if selector, ok := a.findViewerControl(ctx, page); ok {
		a.log.Debug("Найдена кнопка скачивания в просмотрщике", zap.String("selector", selector))
		dl, err := page.ExpectDownload(ctx, func() error {
			return page.Click(ctx, selector)
		}, a.cfg.ViewerDownloadTimeout)
		if err != nil {
			return Failed(kind, "загрузка из просмотрщика", err)
		}
		return a.downloadOutcome(kind, dl)
	}

	a.log.Debug("Кнопка скачивания не найдена, отправляем сочетание клавиш", zap.String("shortcut", a.cfg.SaveShortcut))
	dl, err := page.ExpectDownload(ctx, func() error {
		return page.Press(ctx, a.cfg.SaveShortcut)
	}, a.cfg.ViewerDownloadTimeout)
	if err != nil {
		return Failed(kind, "сохранение сочетанием клавиш", err)
	}
	return a.downloadOutcome(kind, dl)
}

func (a *Acquirer) looksLikeViewer(html string) bool {
	lower := strings.ToLower(html)
	if a.cfg.Artifact.MIME != "" && strings.Contains(lower, a.cfg.Artifact.MIME) {
		return true
	}
	return strings.Contains(lower, "<embed")
}

// findViewerControl ждет появления любой кнопки из списка, затем возвращает
// первую видимую в порядке списка.
func (a *Acquirer) findViewerControl(ctx context.Context, page Page) (string, bool) {
	selectors := a.cfg.ViewerSelectors
	if len(selectors) == 0 {
		return "", false
	}

	if err := page.WaitVisible(ctx, strings.Join(selectors, ", "), a.cfg.ViewerProbeTimeout); err != nil {
		return "", false
	}

	for _, selector := range selectors {
		if err := page.WaitVisible(ctx, selector, 500*time.Millisecond); err == nil {
			return selector, true
		}
	}
	return "", false
}

// resourceFetch ищет в DOM готовый адрес документа и скачивает его с cookies сессии.
func (a *Acquirer) resourceFetch(ctx context.Context, page Page, req Request) Outcome {
	const kind = StrategyResourceFetch

	html, err := page.Content(ctx)
	if err != nil {
		return Failed(kind, "чтение страницы", err)
	}

	pageURL := page.URL()
	ref, ok, err := ScanResources(html, pageURL, a.cfg.Artifact)
	if err != nil {
		return Failed(kind, "поиск адреса документа", err)
	}
	if !ok {
		return NotApplicable(kind, "адрес документа не найден", nil)
	}
	a.log.Debug("Найден адрес документа", zap.String("url", ref.URL), zap.String("method", ref.Method.String()))

	cookies, userAgent, err := a.sessionIdentity(ctx, page)
	if err != nil {
		return Failed(kind, "сессия браузера", err)
	}

	client := NewSessionClient(SessionOptions{
		Cookies:   cookies,
		UserAgent: userAgent,
		Referer:   pageURL,
		Timeout:   a.cfg.ResourceFetchTimeout,
	})
	res, err := client.Get(ctx, ref.URL)
	return responseOutcome(kind, res, err)
}

// httpReplication заново собирает скрытые поля, cookies и user agent прямо
// перед запросом и отправляет форму полностью мимо браузера.
func (a *Acquirer) httpReplication(ctx context.Context, page Page, req Request) Outcome {
	const kind = StrategyHTTPReplication

	var (
		html      string
		cookies   []*http.Cookie
		userAgent string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		html, err = page.Content(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cookies, err = page.Cookies(gctx)
		return err
	})
	g.Go(func() error {
		ua, err := page.UserAgent(gctx)
		if err == nil {
			userAgent = ua
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Failed(kind, "чтение состояния сессии", err)
	}

	snapshot, err := HiddenFields(html)
	if err != nil {
		return Failed(kind, "разбор формы", err)
	}
	if err := snapshot.check(a.cfg.IDField, a.cfg.TokenField); err != nil {
		return NotApplicable(kind, "неполная форма", err)
	}

	pageURL := page.URL()
	endpoint, err := a.endpointURL(pageURL)
	if err != nil {
		if errors.Is(err, ErrNotApplicable) {
			return NotApplicable(kind, "нет адреса выгрузки", nil)
		}
		return Failed(kind, "адрес выгрузки", err)
	}

	client := NewSessionClient(SessionOptions{
		CookieHeader: CookieHeader(cookies),
		UserAgent:    userAgent,
		Referer:      pageURL,
		Timeout:      a.cfg.ReplicationTimeout,
	})
	res, err := client.PostForm(ctx, endpoint, snapshot)
	return responseOutcome(kind, res, err)
}
