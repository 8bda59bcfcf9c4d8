package format

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipOf(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		_, err := zw.Create(name)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFormat_StringAndExtension(t *testing.T) {
	tests := []struct {
		format Format
		name   string
		ext    string
	}{
		{DOCX, "DOCX", ".docx"},
		{HTML, "HTML", ".html"},
		{ZIP, "ZIP", ".zip"},
		{Unknown, "Unknown", ""},
		{Format(99), "Unknown", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.format.String())
		assert.Equal(t, tt.ext, tt.format.Extension())
	}
	assert.Equal(t, "application/zip", ZIP.MIMEType())
	assert.Equal(t, "application/octet-stream", Unknown.MIMEType())
}

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"umowa.docx", DOCX},
		{"UMOWA.DOCX", DOCX},
		{"template.dotx", DOCX},
		{"page.html", HTML},
		{"page.HTM", HTML},
		{"bundle.zip", ZIP},
		{"notes.txt", Unknown},
		{"noext", Unknown},
		{"dir.docx/file", Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Detect(tt.filename), tt.filename)
	}
}

func TestDetectBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"word package", zipOf(t, "[Content_Types].xml", "_rels/.rels", "word/document.xml"), DOCX},
		{"spreadsheet", zipOf(t, "[Content_Types].xml", "xl/workbook.xml"), ZIP},
		{"plain zip", zipOf(t, "a.txt"), ZIP},
		{"truncated zip", []byte("PK\x03\x04garbage"), ZIP},
		{"doctype", []byte("<!doctype html><p>x</p>"), HTML},
		{"fragment", []byte("\n  <p>Hello</p>"), HTML},
		{"bom", []byte("\xef\xbb\xbf<div>x</div>"), HTML},
		{"xhtml", []byte(`<?xml version="1.0"?><html xmlns="http://www.w3.org/1999/xhtml"/>`), HTML},
		{"plain xml", []byte(`<?xml version="1.0"?><root/>`), Unknown},
		{"pdf", []byte("%PDF-1.7"), Unknown},
		{"empty", nil, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectBytes(tt.data))
		})
	}
}

func TestDetectFile(t *testing.T) {
	docx := zipOf(t, "[Content_Types].xml", "word/document.xml")
	assert.Equal(t, DOCX, DetectFile("renamed.bin", docx))
	assert.Equal(t, HTML, DetectFile("plain.html", []byte("Just text")))
	assert.Equal(t, Unknown, DetectFile("fake.docx", []byte("not a zip")))
}
