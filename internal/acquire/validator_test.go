package acquire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name        string
		data        []byte
		contentType string
		expected    bool
	}{
		{name: "magic without content type", data: []byte("%PDF-1.7 ..."), contentType: "", expected: true},
		{name: "magic with wrong content type", data: []byte("%PDF-1.4"), contentType: "text/html; charset=utf-8", expected: true},
		{name: "declared pdf without magic", data: []byte("garbage"), contentType: "application/pdf", expected: true},
		{name: "declared pdf mixed case", data: []byte("x"), contentType: "Application/PDF; name=a.pdf", expected: true},
		{name: "empty body with pdf content type", data: nil, contentType: "application/pdf", expected: false},
		{name: "empty body", data: []byte{}, contentType: "", expected: false},
		{name: "html page", data: []byte("<!doctype html>"), contentType: "text/html", expected: false},
		{name: "short prefix", data: []byte("%PD"), contentType: "application/octet-stream", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, PDF.Validate(tc.data, tc.contentType))
		})
	}
}
