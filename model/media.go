package model

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MediaAsset is binary content referenced by image paragraphs.
type MediaAsset struct {
	ID       string
	MIMEType string
	Data     []byte
	Name     string // original file name, if known
	Width    int    // pixels, 0 when not decodable
	Height   int
}

// Base64 returns the standard base64 encoding of the asset data.
func (m *MediaAsset) Base64() string {
	return base64.StdEncoding.EncodeToString(m.Data)
}

// DataURI returns the asset as a self-contained data URI.
func (m *MediaAsset) DataURI() string {
	return "data:" + m.MIMEType + ";base64," + m.Base64()
}

// DecodeSize fills Width and Height from the image header. It reports false
// and leaves the size unchanged when the format is not recognized.
func (m *MediaAsset) DecodeSize() bool {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(m.Data))
	if err != nil {
		return false
	}
	m.Width, m.Height = cfg.Width, cfg.Height
	return true
}
