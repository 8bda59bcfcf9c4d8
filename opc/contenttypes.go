package opc

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/rybkakrzy/importer-sub001/internal/docerr"
)

// Content types used by the engine.
const (
	ContentTypeRelationships  = "application/vnd.openxmlformats-package.relationships+xml"
	ContentTypeXML            = "application/xml"
	ContentTypeMainDocument   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ContentTypeStyles         = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	ContentTypeNumbering      = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
	ContentTypeHeader         = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"
	ContentTypeFooter         = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"
	ContentTypeCoreProperties = "application/vnd.openxmlformats-package.core-properties+xml"
	ContentTypeExtendedProps  = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ContentTypeSignatureOrig  = "application/vnd.openxmlformats-package.digital-signature-origin"
	ContentTypeSignatureXML   = "application/vnd.openxmlformats-package.digital-signature-xmlsignature+xml"
	contentTypesNamespace     = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// ContentTypes is the parsed [Content_Types].xml table.
type ContentTypes struct {
	defaults  []ctDefault
	overrides []ctOverride
}

type ctDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentTypesXML struct {
	XMLName   xml.Name     `xml:"Types"`
	Xmlns     string       `xml:"xmlns,attr"`
	Defaults  []ctDefault  `xml:"Default"`
	Overrides []ctOverride `xml:"Override"`
}

// NewContentTypes returns a table with the rels and xml defaults every package needs.
func NewContentTypes() *ContentTypes {
	ct := &ContentTypes{}
	ct.AddDefault("rels", ContentTypeRelationships)
	ct.AddDefault("xml", ContentTypeXML)
	return ct
}

// ParseContentTypes parses the content of [Content_Types].xml.
func ParseContentTypes(data []byte) (*ContentTypes, error) {
	var doc contentTypesXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &ContentTypes{defaults: doc.Defaults, overrides: doc.Overrides}, nil
}

// Marshal renders the table as [Content_Types].xml.
func (c *ContentTypes) Marshal() ([]byte, error) {
	doc := contentTypesXML{Xmlns: contentTypesNamespace, Defaults: c.defaults, Overrides: c.overrides}
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling content types: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// AddDefault registers a content type for an extension unless one exists.
func (c *ContentTypes) AddDefault(ext, contentType string) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, d := range c.defaults {
		if strings.EqualFold(d.Extension, ext) {
			return
		}
	}
	c.defaults = append(c.defaults, ctDefault{Extension: ext, ContentType: contentType})
}

// SetOverride sets the content type of a single part.
func (c *ContentTypes) SetOverride(part, contentType string) {
	name := "/" + normalizeName(part)
	for i, o := range c.overrides {
		if strings.EqualFold(o.PartName, name) {
			c.overrides[i].ContentType = contentType
			return
		}
	}
	c.overrides = append(c.overrides, ctOverride{PartName: name, ContentType: contentType})
}

// Lookup returns the content type of a part: the override if any, otherwise
// the default for its extension.
func (c *ContentTypes) Lookup(part string) string {
	name := "/" + normalizeName(part)
	for _, o := range c.overrides {
		if strings.EqualFold(o.PartName, name) {
			return o.ContentType
		}
	}
	ext := strings.TrimPrefix(path.Ext(name), ".")
	for _, d := range c.defaults {
		if strings.EqualFold(d.Extension, ext) {
			return d.ContentType
		}
	}
	return ""
}

// ContentTypes parses the package's content-types table.
func (p *Package) ContentTypes() (*ContentTypes, error) {
	data, ok := p.Part(ContentTypesPart)
	if !ok {
		return nil, docerr.Newf(docerr.ErrMalformedContainer, "opc.ContentTypes", "missing %s", ContentTypesPart)
	}
	ct, err := ParseContentTypes(data)
	if err != nil {
		return nil, docerr.New(docerr.ErrMalformedContainer, "opc.ContentTypes", err).InPart(ContentTypesPart)
	}
	return ct, nil
}

// SetContentTypes writes the table back into the package.
func (p *Package) SetContentTypes(ct *ContentTypes) error {
	data, err := ct.Marshal()
	if err != nil {
		return err
	}
	p.SetPart(ContentTypesPart, data)
	return nil
}

var imageTypes = []struct{ ext, mime string }{
	{"png", "image/png"},
	{"jpeg", "image/jpeg"},
	{"jpg", "image/jpeg"},
	{"gif", "image/gif"},
	{"bmp", "image/bmp"},
	{"tiff", "image/tiff"},
	{"tif", "image/tiff"},
	{"webp", "image/webp"},
	{"svg", "image/svg+xml"},
	{"emf", "image/x-emf"},
	{"wmf", "image/x-wmf"},
}

// ImageContentType returns the MIME type for an image file extension.
func ImageContentType(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, t := range imageTypes {
		if t.ext == ext {
			return t.mime
		}
	}
	return ""
}

// ImageExtension returns the preferred file extension for an image MIME type.
func ImageExtension(mime string) string {
	mime = strings.ToLower(mime)
	for _, t := range imageTypes {
		if t.mime == mime {
			return t.ext
		}
	}
	return ""
}
