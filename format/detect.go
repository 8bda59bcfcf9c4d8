// Package format detects whether an input is a WordprocessingML package, an
// HTML fragment or some other archive.
package format

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"
)

// Format is a recognized input format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// DOCX indicates a WordprocessingML package.
	DOCX
	// HTML indicates an HTML document or fragment.
	HTML
	// ZIP indicates a ZIP archive that is not a WordprocessingML package.
	ZIP
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case DOCX:
		return "DOCX"
	case HTML:
		return "HTML"
	case ZIP:
		return "ZIP"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case DOCX:
		return ".docx"
	case HTML:
		return ".html"
	case ZIP:
		return ".zip"
	default:
		return ""
	}
}

// MIMEType returns the media type for the format.
func (f Format) MIMEType() string {
	switch f {
	case DOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case HTML:
		return "text/html; charset=utf-8"
	case ZIP:
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// Detect determines the format from a file name extension.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx", ".docm", ".dotx":
		return DOCX
	case ".html", ".htm", ".xhtml":
		return HTML
	case ".zip":
		return ZIP
	default:
		return Unknown
	}
}

var zipMagic = []byte("PK\x03\x04")

// DetectBytes inspects content to determine the format. ZIP archives are
// opened to tell WordprocessingML packages from other archives.
func DetectBytes(data []byte) Format {
	if bytes.HasPrefix(data, zipMagic) {
		if isWordPackage(data) {
			return DOCX
		}
		return ZIP
	}
	if detectHTMLMagic(data) {
		return HTML
	}
	return Unknown
}

// DetectFile combines the name and the content. Content wins when it is
// recognized; an extension alone is trusted only for HTML, which has no
// reliable signature.
func DetectFile(filename string, data []byte) Format {
	if f := DetectBytes(data); f != Unknown {
		return f
	}
	if Detect(filename) == HTML {
		return HTML
	}
	return Unknown
}

// isWordPackage reports whether a ZIP archive has a content-types table and
// a word/ directory.
func isWordPackage(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	var contentTypes, word bool
	for _, f := range zr.File {
		switch {
		case f.Name == "[Content_Types].xml":
			contentTypes = true
		case strings.HasPrefix(f.Name, "word/"):
			word = true
		}
	}
	return contentTypes && word
}

var htmlPrefixes = []string{
	"<!DOCTYPE HTML", "<HTML", "<HEAD", "<BODY", "<P", "<DIV", "<H1", "<H2", "<H3",
	"<TABLE", "<UL", "<OL", "<SPAN", "<B>", "<I>", "<STRONG", "<EM>", "<BR", "<IMG", "<!--",
}

// detectHTMLMagic checks if the data looks like HTML content.
func detectHTMLMagic(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return false
	}
	head := strings.ToUpper(string(data[:min(512, len(data))]))
	for _, p := range htmlPrefixes {
		if strings.HasPrefix(head, p) {
			return true
		}
	}
	// XML declaration followed by html-like content could be XHTML
	return strings.HasPrefix(head, "<?XML") && strings.Contains(head, "<HTML")
}
