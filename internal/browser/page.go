package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"docFetcher/internal/acquire"

	"github.com/playwright-community/playwright-go"
)

// SessionPage вкладка авторизованной сессии. Реализует acquire.Page.
// Вызовы Playwright синхронные, поэтому дедлайн ctx переводится в таймаут
// каждой операции.
type SessionPage struct {
	page playwright.Page
	cfg  Config
}

var _ acquire.Page = (*SessionPage)(nil)

func newSessionPage(page playwright.Page, cfg Config) *SessionPage {
	return &SessionPage{page: page, cfg: cfg}
}

// timeoutFor возвращает меньшее из d и остатка до дедлайна ctx в миллисекундах.
// Ноль для Playwright означает "без таймаута", поэтому минимум 1мс.
func timeoutFor(ctx context.Context, d time.Duration) *float64 {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); d == 0 || left < d {
			d = left
		}
	}
	if d <= 0 {
		d = time.Millisecond
	}
	return playwright.Float(float64(d.Milliseconds()))
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %w", acquire.ErrTimeout, err)
	}
	return err
}

// await выполняет синхронный вызов Playwright в горутине и возвращается не
// позже дедлайна ctx. Без дедлайна ограничивает вызов таймаутом timeout.
func await[T any](ctx context.Context, timeout time.Duration, call func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if _, ok := ctx.Deadline(); !ok && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	resultChan := make(chan result, 1)
	go func() {
		value, err := call()
		resultChan <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", acquire.ErrTimeout, ctx.Err())
	case r := <-resultChan:
		return r.value, mapError(r.err)
	}
}

func (p *SessionPage) URL() string {
	return p.page.URL()
}

func (p *SessionPage) Content(ctx context.Context) (string, error) {
	return await(ctx, p.cfg.Timeout, p.page.Content)
}

func (p *SessionPage) Evaluate(ctx context.Context, script string, arg ...any) (any, error) {
	return await(ctx, p.cfg.Timeout, func() (any, error) {
		return p.page.Evaluate(script, arg...)
	})
}

func (p *SessionPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	selector, err := prepareSelector(selector)
	if err != nil {
		return err
	}

	return mapError(p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: timeoutFor(ctx, timeout),
	}))
}

func (p *SessionPage) Click(ctx context.Context, selector string) error {
	selector, err := prepareSelector(selector)
	if err != nil {
		return err
	}

	if err := p.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: timeoutFor(ctx, p.cfg.ActionTimeout),
	}); err != nil {
		return fmt.Errorf("клик по %s: %w", selector, mapError(err))
	}
	return nil
}

// Fill заполняет поле ввода, используется при входе на портал.
func (p *SessionPage) Fill(ctx context.Context, selector, value string) error {
	selector, err := prepareSelector(selector)
	if err != nil {
		return err
	}

	if err := p.page.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{
		Timeout: timeoutFor(ctx, p.cfg.ActionTimeout),
	}); err != nil {
		return fmt.Errorf("поле формы %s: %w", selector, mapError(err))
	}
	return nil
}

func (p *SessionPage) Press(ctx context.Context, key string) error {
	_, err := await(ctx, p.cfg.ActionTimeout, func() (struct{}, error) {
		return struct{}{}, p.page.Keyboard().Press(key)
	})
	return err
}

func (p *SessionPage) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	if timeout == 0 {
		timeout = p.cfg.Timeout
	}

	return mapError(p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: timeoutFor(ctx, timeout),
	}))
}

func (p *SessionPage) ExpectDownload(ctx context.Context, trigger func() error, timeout time.Duration) (acquire.Download, error) {
	download, err := p.page.ExpectDownload(trigger, playwright.PageExpectDownloadOptions{
		Timeout: timeoutFor(ctx, timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("событие загрузки: %w", mapError(err))
	}
	return download, nil
}

// Cookies возвращает cookies контекста, относящиеся к текущему адресу.
func (p *SessionPage) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	cookies, err := await(ctx, p.cfg.Timeout, func() ([]playwright.Cookie, error) {
		return p.page.Context().Cookies(p.page.URL())
	})
	if err != nil {
		return nil, err
	}

	result := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		result = append(result, cookie)
	}
	return result, nil
}

func (p *SessionPage) UserAgent(ctx context.Context) (string, error) {
	raw, err := p.Evaluate(ctx, "() => navigator.userAgent")
	if err != nil {
		return "", err
	}
	ua, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("неверный формат user agent: %T", raw)
	}
	return ua, nil
}

// Navigate переходит по адресу и ждет затишья сети, затем закрывает попапы.
func (p *SessionPage) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, p.cfg.NavigateTimeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		_, err := p.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateNetworkidle,
			Timeout:   timeoutFor(navCtx, p.cfg.NavigateTimeout),
		})
		errChan <- err
	}()

	select {
	case <-navCtx.Done():
		return fmt.Errorf("%w: навигация дольше %v", acquire.ErrTimeout, p.cfg.NavigateTimeout)
	case err := <-errChan:
		if err != nil {
			return mapError(err)
		}
	}

	return p.ClosePopups(ctx)
}
