package acquire

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Page страница авторизованной сессии браузера, уже открытая на карточке
// документа. Реализация должна соблюдать переданные таймауты и дедлайн ctx.
type Page interface {
	URL() string
	Content(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, script string, arg ...any) (any, error)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error
	// ExpectDownload подписывается на событие загрузки, затем вызывает trigger.
	ExpectDownload(ctx context.Context, trigger func() error, timeout time.Duration) (Download, error)
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	UserAgent(ctx context.Context) (string, error)
	Press(ctx context.Context, key string) error
}

// Download начатая браузером загрузка.
type Download interface {
	SaveAs(path string) error
	SuggestedFilename() string
}

// readDownload сохраняет загрузку во временный каталог и возвращает байты.
// Каталог назначения при этом не трогается.
func readDownload(dl Download, extension string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "docfetcher-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "artifact"+extension)
	if err := dl.SaveAs(path); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
