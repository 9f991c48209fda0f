package acquire

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// fakePage сценарная страница: клики и нажатия клавиш могут менять
// разметку и запускать загрузки.
type fakePage struct {
	mu sync.Mutex

	url  string
	form map[string]any
	// fields заменяет form сырым ответом скрипта чтения формы
	fields    []any
	evalErr   error
	content   string
	visible   map[string]bool
	cookies   []*http.Cookie
	userAgent string

	// ключи вида "click:<selector>" и "press:<key>"
	contentAfter map[string]string
	downloads    map[string][]byte
	// goneWhen: селектор пропадает, когда разметка содержит подстроку
	goneWhen map[string]string

	clicks  []string
	presses []string
	pending []byte
}

type fakeDownload struct {
	data []byte
}

func (d fakeDownload) SaveAs(path string) error {
	return os.WriteFile(path, d.data, 0o644)
}

func (d fakeDownload) SuggestedFilename() string {
	return "document.pdf"
}

func (p *fakePage) URL() string {
	return p.url
}

func (p *fakePage) Content(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content, nil
}

func (p *fakePage) Evaluate(ctx context.Context, script string, arg ...any) (any, error) {
	if p.evalErr != nil {
		return nil, p.evalErr
	}
	if p.fields != nil {
		return p.fields, nil
	}
	fields := make([]any, 0, len(p.form))
	for name, value := range p.form {
		fields = append(fields, map[string]any{"name": name, "value": value, "type": "hidden", "checked": false})
	}
	return fields, nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range strings.Split(selector, ", ") {
		if p.visible[s] {
			return nil
		}
	}
	return fmt.Errorf("%w: %s не виден", ErrTimeout, selector)
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if marker, ok := p.goneWhen[selector]; ok && strings.Contains(p.content, marker) {
		return fmt.Errorf("%w: элемент %s не найден", ErrTimeout, selector)
	}
	p.clicks = append(p.clicks, selector)
	p.react("click:" + selector)
	return nil
}

func (p *fakePage) Press(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.presses = append(p.presses, key)
	p.react("press:" + key)
	return nil
}

func (p *fakePage) react(action string) {
	if html, ok := p.contentAfter[action]; ok {
		p.content = html
	}
	if data, ok := p.downloads[action]; ok {
		p.pending = data
	}
}

func (p *fakePage) WaitForNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return nil
}

func (p *fakePage) ExpectDownload(ctx context.Context, trigger func() error, timeout time.Duration) (Download, error) {
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()

	if err := trigger(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return nil, fmt.Errorf("%w: загрузка не началась за %v", ErrTimeout, timeout)
	}
	data := p.pending
	p.pending = nil
	return fakeDownload{data: data}, nil
}

func (p *fakePage) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	return p.cookies, nil
}

func (p *fakePage) UserAgent(ctx context.Context) (string, error) {
	return p.userAgent, nil
}
