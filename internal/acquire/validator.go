package acquire

import (
	"bytes"
	"strings"
)

// Artifact описывает ожидаемый тип файла.
type Artifact struct {
	MIME      string
	Magic     []byte
	Extension string
}

var PDF = Artifact{
	MIME:      "application/pdf",
	Magic:     []byte("%PDF"),
	Extension: ".pdf",
}

// Validate принимает непустой буфер, если сервер объявил нужный MIME тип
// или буфер начинается с сигнатуры формата. Сигнатура нужна для серверов,
// которые отдают PDF как application/octet-stream или без Content-Type.
func (a Artifact) Validate(data []byte, contentType string) bool {
	if len(data) == 0 {
		return false
	}

	if a.MIME != "" && strings.Contains(strings.ToLower(contentType), a.MIME) {
		return true
	}

	return len(a.Magic) > 0 && bytes.HasPrefix(data, a.Magic)
}
