package htmldoc

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	"github.com/rybkakrzy/importer-sub001/model"
)

var (
	errNotDataURI   = errors.New("not a data URI")
	errNotImage     = errors.New("data URI is not an image")
	errBadImageData = errors.New("data URI payload cannot be decoded")
)

// decodeDataURI decodes an image data URI into a media asset. The pixel size
// is filled in when the image format is known.
func decodeDataURI(src string) (*model.MediaAsset, error) {
	src = strings.TrimSpace(src)
	if len(src) < 5 || !strings.EqualFold(src[:5], "data:") {
		return nil, errNotDataURI
	}
	header, payload, ok := strings.Cut(src[5:], ",")
	if !ok {
		return nil, errBadImageData
	}

	params := strings.Split(header, ";")
	mime := strings.ToLower(strings.TrimSpace(params[0]))
	if !strings.HasPrefix(mime, "image/") {
		return nil, errNotImage
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, payload)
		var err error
		data, err = base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(cleaned, "="))
			if err != nil {
				return nil, errBadImageData
			}
		}
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, errBadImageData
		}
		data = []byte(unescaped)
	}
	if len(data) == 0 {
		return nil, errBadImageData
	}

	if mime == "image/jpg" || mime == "image/pjpeg" {
		mime = "image/jpeg"
	}
	asset := &model.MediaAsset{MIMEType: mime, Data: data}
	asset.DecodeSize()
	return asset, nil
}

// isDecodable reports whether the asset's pixel size could be read, or the
// format carries no raster size.
func isDecodable(a *model.MediaAsset) bool {
	return a.Width > 0 || a.MIMEType == "image/svg+xml"
}
