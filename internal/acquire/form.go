package acquire

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FormSnapshot поля формы отправки: имя -> значение.
type FormSnapshot map[string]string

// Missing возвращает обязательные поля, которых нет или которые пусты.
func (s FormSnapshot) Missing(idField, tokenField string) []string {
	var missing []string
	for _, name := range []string{idField, tokenField} {
		if s[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func (s FormSnapshot) check(idField, tokenField string) error {
	if missing := s.Missing(idField, tokenField); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFormField, strings.Join(missing, ", "))
	}
	return nil
}

// Берем первую форму страницы, без формы читаем все поля документа.
// Отбор полей делает submittable, скрипт только описывает их.
const readFormScript = `(hiddenOnly) => {
	const root = document.querySelector('form') || document;
	const selector = hiddenOnly ? 'input[type="hidden"]' : 'input';
	return Array.from(root.querySelectorAll(selector))
		.filter(el => el.name)
		.map(el => ({
			name: el.name,
			value: el.value || '',
			type: (el.type || 'text').toLowerCase(),
			checked: !!el.checked,
		}));
}`

// submittable повторяет правила браузера: невыбранные флажки и
// переключатели не отправляются, кнопки и файлы тоже.
func submittable(inputType string, checked bool) bool {
	switch strings.ToLower(inputType) {
	case "checkbox", "radio":
		return checked
	case "submit", "button", "reset", "image", "file":
		return false
	default:
		return true
	}
}

// ReadForm читает поля текущей формы из отрисованной страницы так, как их
// отправил бы браузер.
func ReadForm(ctx context.Context, page Page) (FormSnapshot, error) {
	raw, err := page.Evaluate(ctx, readFormScript, false)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения формы: %w", err)
	}
	if raw == nil {
		return FormSnapshot{}, nil
	}

	fields, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("неверный формат полей формы: %T", raw)
	}

	snapshot := make(FormSnapshot, len(fields))
	for _, item := range fields {
		field, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := field["name"].(string)
		if name == "" {
			continue
		}
		inputType, _ := field["type"].(string)
		checked, _ := field["checked"].(bool)
		if !submittable(inputType, checked) {
			continue
		}

		switch value := field["value"].(type) {
		case nil:
			snapshot[name] = ""
		case string:
			snapshot[name] = value
		default:
			snapshot[name] = fmt.Sprintf("%v", value)
		}
	}
	return snapshot, nil
}

// HiddenFields разбирает разметку страницы и возвращает только скрытые поля
// первой формы (или всего документа, если формы нет).
func HiddenFields(html string) (FormSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора страницы: %w", err)
	}

	root := doc.Find("form").First()
	if root.Length() == 0 {
		root = doc.Selection
	}

	snapshot := FormSnapshot{}
	root.Find("input").Each(func(_ int, input *goquery.Selection) {
		if !strings.EqualFold(input.AttrOr("type", ""), "hidden") {
			return
		}
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		snapshot[name] = input.AttrOr("value", "")
	})
	return snapshot, nil
}
