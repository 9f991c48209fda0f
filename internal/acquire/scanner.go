package acquire

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type DiscoveryMethod int

const (
	DiscoveredEmbed DiscoveryMethod = iota
	DiscoveredFrame
	DiscoveredObject
	DiscoveredLink
)

func (m DiscoveryMethod) String() string {
	switch m {
	case DiscoveredEmbed:
		return "embed"
	case DiscoveredFrame:
		return "frame"
	case DiscoveredObject:
		return "object"
	case DiscoveredLink:
		return "hyperlink"
	default:
		return "unknown"
	}
}

// ResourceRef адрес артефакта, найденный в DOM.
type ResourceRef struct {
	URL    string
	Method DiscoveryMethod
}

type resourceProbe struct {
	selector string
	attr     string
	method   DiscoveryMethod
	needsExt bool
}

// Порядок важен: встроенный просмотрщик надежнее случайной ссылки.
var resourceProbes = []resourceProbe{
	{selector: "embed", attr: "src", method: DiscoveredEmbed},
	{selector: "iframe, frame", attr: "src", method: DiscoveredFrame, needsExt: true},
	{selector: "object", attr: "data", method: DiscoveredObject},
	{selector: "a", attr: "href", method: DiscoveredLink, needsExt: true},
}

// ScanResources ищет в разметке первый адрес, по которому можно скачать
// артефакт. Относительные адреса разрешаются относительно pageURL.
func ScanResources(html, pageURL string, artifact Artifact) (ResourceRef, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ResourceRef{}, false, fmt.Errorf("ошибка разбора страницы: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	ext := strings.ToLower(artifact.Extension)
	for _, probe := range resourceProbes {
		var found string
		doc.Find(probe.selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			raw := strings.TrimSpace(el.AttrOr(probe.attr, ""))
			if !fetchable(raw) {
				return true
			}
			if probe.needsExt && !strings.Contains(strings.ToLower(raw), ext) {
				return true
			}
			resolved, ok := resolveURL(base, raw)
			if !ok {
				return true
			}
			found = resolved
			return false
		})
		if found != "" {
			return ResourceRef{URL: found, Method: probe.method}, true, nil
		}
	}

	return ResourceRef{}, false, nil
}

// blob: и data: адреса живут только внутри браузера.
func fetchable(raw string) bool {
	if raw == "" || raw == "#" {
		return false
	}
	lower := strings.ToLower(raw)
	for _, prefix := range []string{"javascript:", "blob:", "data:", "about:", "mailto:"} {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

func resolveURL(base *url.URL, raw string) (string, bool) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	return ref.String(), true
}
