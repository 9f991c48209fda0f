package acquire

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Resolver строит путь назначения вида
// <root>/<дата>/<теги>-<дата>[-<идентификатор>]<расширение>.
type Resolver struct {
	Extension string
	Now       func() time.Time
}

func NewResolver(extension string, now func() time.Time) Resolver {
	if now == nil {
		now = time.Now
	}
	return Resolver{Extension: extension, Now: now}
}

func (r Resolver) today() string {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return now().Format(dateLayout)
}

// Resolve не трогает файловую систему: один и тот же запрос в один день
// всегда даёт один и тот же путь.
func (r Resolver) Resolve(root string, tags []string, sourceID string) string {
	date := r.today()

	parts := make([]string, 0, len(tags)+2)
	for _, tag := range tags {
		if tag = cleanPart(tag); tag != "" {
			parts = append(parts, tag)
		}
	}
	parts = append(parts, date)
	if id := cleanPart(sourceID); id != "" {
		parts = append(parts, id)
	}

	return filepath.Join(root, date, strings.Join(parts, "-")+r.Extension)
}

// Ensure создает каталог для path, если его еще нет.
func (r Resolver) Ensure(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

var partReplacer = strings.NewReplacer("/", "_", "\\", "_")

func cleanPart(s string) string {
	return partReplacer.Replace(strings.TrimSpace(s))
}
