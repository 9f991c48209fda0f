package acquire

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type SessionOptions struct {
	// Cookies уходят как объекты cookie через resty.
	Cookies []*http.Cookie
	// CookieHeader готовая строка заголовка Cookie, используется вместо Cookies.
	CookieHeader string
	UserAgent    string
	Referer      string
	Timeout      time.Duration
}

// SessionClient HTTP клиент, переиспользующий авторизацию живой сессии
// браузера, но работающий мимо его сетевого стека.
type SessionClient struct {
	http *resty.Client
}

type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func NewSessionClient(opts SessionOptions) *SessionClient {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("Accept", "application/pdf,application/octet-stream,*/*")

	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Referer != "" {
		client.SetHeader("Referer", opts.Referer)
	}
	if opts.CookieHeader != "" {
		client.SetHeader("Cookie", opts.CookieHeader)
	} else if len(opts.Cookies) > 0 {
		client.SetCookies(opts.Cookies)
	}

	return &SessionClient{http: client}
}

func (c *SessionClient) PostForm(ctx context.Context, url string, form map[string]string) (*Response, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %w", ErrTransport, url, transportCause(ctx, err))
	}
	return toResponse(res), nil
}

func (c *SessionClient) Get(ctx context.Context, url string) (*Response, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrTransport, url, transportCause(ctx, err))
	}
	return toResponse(res), nil
}

func toResponse(res *resty.Response) *Response {
	return &Response{
		StatusCode:  res.StatusCode(),
		ContentType: res.Header().Get("Content-Type"),
		Body:        res.Body(),
	}
}

// transportCause отличает истекший дедлайн от прочих сетевых ошибок.
func transportCause(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// CookieHeader сериализует cookie в значение заголовка Cookie.
func CookieHeader(cookies []*http.Cookie) string {
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; ")
}

func responseOutcome(strategy StrategyKind, res *Response, err error) Outcome {
	if err != nil {
		return Failed(strategy, "запрос к серверу", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Failed(strategy, "ответ сервера", fmt.Errorf("%w: статус %d", ErrTransport, res.StatusCode))
	}
	return Success(res.Body, res.ContentType)
}
