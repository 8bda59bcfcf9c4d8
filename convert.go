package importer

import (
	"strings"

	"github.com/rybkakrzy/importer-sub001/htmldoc"
	"github.com/rybkakrzy/importer-sub001/internal/metrics"
	"github.com/rybkakrzy/importer-sub001/model"
)

// ConvertDocxToHTML reads a .docx package and renders its body, header and
// footer as editor HTML. Images are returned base64-encoded next to the
// data URIs embedded in the HTML.
//
// Fails with ErrMalformedContainer, ErrInvalidDocumentStructure or
// ErrResourceLimitExceeded. Content that cannot be represented produces
// warnings instead.
func (e *Engine) ConvertDocxToHTML(data []byte) (res *HTMLResult, err error) {
	start := e.clock.Now()
	var warnings []Warning
	defer func() { e.finish(metrics.OpDocxToHTML, start, warnings, err) }()

	doc, warnings, err := e.reader().ReadBytes(data)
	if err != nil {
		return nil, err
	}

	body, w := htmldoc.Render(doc)
	warnings = append(warnings, w...)

	res = &HTMLResult{HTML: body, Metadata: doc.Metadata}
	if sec := doc.HeaderFooterSection(); sec != nil {
		if sec.Header != nil {
			res.Header, w = htmldoc.RenderBlocks(doc, sec.Header.Blocks)
			warnings = append(warnings, w...)
		}
		if sec.Footer != nil {
			res.Footer, w = htmldoc.RenderBlocks(doc, sec.Footer.Blocks)
			warnings = append(warnings, w...)
		}
	}
	for _, m := range doc.Media {
		res.Images = append(res.Images, Image{
			ID:       m.ID,
			MIMEType: m.MIMEType,
			Data:     m.Base64(),
			Width:    m.Width,
			Height:   m.Height,
		})
	}
	res.Warnings = warnings
	return res, nil
}

// ConvertHTMLToDocx builds a .docx package from editor HTML. A non-blank
// Header or Footer becomes the default header or footer of the final
// section. Empty HTML yields a blank document.
//
// Fails with ErrResourceLimitExceeded when the markup nests too deeply.
func (e *Engine) ConvertHTMLToDocx(in HTMLInput) (out []byte, warnings []Warning, err error) {
	start := e.clock.Now()
	defer func() { e.finish(metrics.OpHTMLToDocx, start, warnings, err) }()

	opts := e.htmlOptions()
	doc, warnings, err := htmldoc.Parse(in.HTML, in.Metadata, opts...)
	if err != nil {
		return nil, nil, err
	}

	header, hw, err := e.headerFooter(doc, in.Header)
	if err != nil {
		return nil, nil, err
	}
	footer, fw, err := e.headerFooter(doc, in.Footer)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, hw...)
	warnings = append(warnings, fw...)
	if header != nil || footer != nil {
		if doc.Section == nil {
			doc.Section = &model.SectionProperties{Page: model.DefaultPageSetup()}
		}
		doc.Section.Header = header
		doc.Section.Footer = footer
	}

	out, err = e.writer().WriteBytes(doc)
	if err != nil {
		return nil, nil, err
	}
	return out, warnings, nil
}

// headerFooter parses a header or footer fragment into doc. Blank input
// yields nil.
func (e *Engine) headerFooter(doc *model.Document, src string) (*model.HeaderFooter, []Warning, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil, nil
	}
	blocks, warnings, err := htmldoc.ParseBlocks(doc, src, e.htmlOptions()...)
	if err != nil {
		return nil, nil, err
	}
	return &model.HeaderFooter{Blocks: blocks}, warnings, nil
}
