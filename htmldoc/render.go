package htmldoc

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/rybkakrzy/importer-sub001/model"
)

// renderer converts blocks into HTML nodes.
type renderer struct {
	doc      *model.Document
	styles   *model.StyleCatalogue
	location string
	warnings []model.Warning
}

// Render converts the body of doc into an HTML fragment. Images are inlined
// as data URIs so the result does not depend on the package.
func Render(doc *model.Document) (string, []model.Warning) {
	if doc == nil {
		return "", nil
	}
	return RenderBlocks(doc, doc.Blocks)
}

// RenderBlocks converts blocks belonging to doc, such as a header or footer,
// into an HTML fragment. doc supplies styles and media.
func RenderBlocks(doc *model.Document, blocks []model.Block) (string, []model.Warning) {
	r := newRenderer(doc)
	var buf bytes.Buffer
	for _, n := range r.blocks(blocks) {
		// Rendering into a bytes.Buffer cannot fail.
		_ = html.Render(&buf, n)
	}
	return buf.String(), r.warnings
}

func newRenderer(doc *model.Document) *renderer {
	styles := doc.Styles
	if styles == nil {
		styles = model.DefaultStyleCatalogue()
	}
	return &renderer{doc: doc, styles: styles, location: "body"}
}

func (r *renderer) warn(code model.WarningCode, format string, args ...any) {
	r.warnings = append(r.warnings, model.Warnf(code, r.location, format, args...))
}

func (r *renderer) blocks(blocks []model.Block) []*html.Node {
	nodes := make([]*html.Node, 0, len(blocks))
	for _, b := range blocks {
		switch v := b.(type) {
		case *model.Paragraph:
			nodes = append(nodes, r.paragraph(v))
		case *model.Table:
			nodes = append(nodes, r.table(v))
		default:
			text := b.Text()
			if text == "" {
				continue
			}
			r.warn(model.WarnUnrenderableBlock, "%s block rendered as plain text", b.Type())
			p := element("p")
			appendText(p, text)
			nodes = append(nodes, p)
		}
	}
	return nodes
}

// paragraph renders p as h1, h2 or p. The tag implies a base style: inline
// CSS carries only what differs from it.
func (r *renderer) paragraph(p *model.Paragraph) *html.Node {
	baseStyle := r.styles.DefaultStyleID(model.StyleParagraph)
	tag := "p"
	if t, ok := headingTags[r.styles.HeadingLevel(p.StyleID)]; ok {
		tag = t
		baseStyle = p.StyleID
	}
	n := element(tag)

	decls := paraDeclarations(
		r.styles.ParagraphFormat(p),
		r.styles.ParagraphFormat(&model.Paragraph{StyleID: baseStyle}),
	)
	if p.Image == nil && hasSignificantWhitespace(p.Text()) {
		decls = append(decls, declaration{"white-space", "pre-wrap"})
	}
	setStyle(n, decls)

	if p.Image != nil {
		if img := r.image(p.Image); img != nil {
			n.AppendChild(img)
		}
		return n
	}

	if p.List != nil && p.List.Marker != "" {
		n.AppendChild(textNode(p.List.Marker + " "))
	}
	base := r.styles.BaseCharFormat(baseStyle)
	for _, run := range p.Runs {
		r.run(n, p.StyleID, run, base)
	}
	return n
}

// run appends the nodes for one run. Formatting turned on is expressed with
// strong, em and u; everything else goes into a span style.
func (r *renderer) run(parent *html.Node, paraStyle string, run model.Run, base model.CharFormat) {
	if run.Text == "" {
		return
	}
	d := r.styles.RunFormat(paraStyle, run).Diff(base)

	var decls []declaration
	if d.Color != "" {
		decls = append(decls, declaration{"color", "#" + d.Color})
	}
	if d.Size != 0 {
		decls = append(decls, declaration{"font-size", formatPoints(d.Size)})
	}
	if d.Font != "" {
		decls = append(decls, declaration{"font-family", quoteFamily(d.Font)})
	}
	if d.Bold == model.ToggleOff {
		decls = append(decls, declaration{"font-weight", "normal"})
	}
	if d.Italic == model.ToggleOff {
		decls = append(decls, declaration{"font-style", "normal"})
	}
	switch {
	case d.Strike.On():
		decls = append(decls, declaration{"text-decoration", "line-through"})
	case d.Strike == model.ToggleOff || d.Underline == model.ToggleOff:
		decls = append(decls, declaration{"text-decoration", "none"})
	}

	target := parent
	if len(decls) > 0 {
		span := element("span")
		setStyle(span, decls)
		target.AppendChild(span)
		target = span
	}
	for _, w := range []struct {
		on  bool
		tag string
	}{
		{d.Bold.On(), "strong"},
		{d.Italic.On(), "em"},
		{d.Underline.On(), "u"},
	} {
		if w.on {
			inner := element(w.tag)
			target.AppendChild(inner)
			target = inner
		}
	}
	appendText(target, run.Text)
}

func (r *renderer) image(img *model.ImageRun) *html.Node {
	asset, ok := r.doc.MediaByID(img.AssetID)
	if !ok {
		r.warn(model.WarnMissingMedia, "image %q has no media asset", img.AssetID)
		return nil
	}
	n := element("img",
		html.Attribute{Key: "src", Val: asset.DataURI()},
		html.Attribute{Key: "alt", Val: img.AltText},
	)
	width, height := img.Width, img.Height
	if width == 0 && height == 0 {
		width, height = asset.Width, asset.Height
	}
	if width > 0 {
		n.Attr = append(n.Attr, html.Attribute{Key: "width", Val: strconv.Itoa(width)})
	}
	if height > 0 {
		n.Attr = append(n.Attr, html.Attribute{Key: "height", Val: strconv.Itoa(height)})
	}
	return n
}

func (r *renderer) table(t *model.Table) *html.Node {
	tbl := element("table")
	for _, row := range t.Rows {
		tr := element("tr")
		for _, cell := range row.Cells {
			tag := "td"
			if cell.IsHeader || row.IsHeader {
				tag = "th"
			}
			td := element(tag)
			if cell.ColSpan > 1 {
				td.Attr = append(td.Attr, html.Attribute{Key: "colspan", Val: strconv.Itoa(cell.ColSpan)})
			}
			if cell.RowSpan > 1 {
				td.Attr = append(td.Attr, html.Attribute{Key: "rowspan", Val: strconv.Itoa(cell.RowSpan)})
			}
			for _, n := range r.blocks(cell.Blocks) {
				td.AppendChild(n)
			}
			tr.AppendChild(td)
		}
		tbl.AppendChild(tr)
	}
	return tbl
}

// paraDeclarations returns the paragraph properties of eff that differ from base.
func paraDeclarations(eff, base model.ParaFormat) []declaration {
	var decls []declaration
	if eff.Alignment != base.Alignment && eff.Alignment != model.AlignDefault {
		decls = append(decls, declaration{"text-align", eff.Alignment.String()})
	}
	if eff.IndentLeft != base.IndentLeft {
		decls = append(decls, declaration{"margin-left", formatPoints(eff.IndentLeft)})
	}
	if eff.IndentRight != base.IndentRight {
		decls = append(decls, declaration{"margin-right", formatPoints(eff.IndentRight)})
	}
	if eff.FirstLine != base.FirstLine {
		decls = append(decls, declaration{"text-indent", formatPoints(eff.FirstLine)})
	}
	return decls
}

// hasSignificantWhitespace reports whether s would lose spaces or tabs under
// normal HTML whitespace collapsing.
func hasSignificantWhitespace(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, " ") || strings.HasSuffix(line, " ") ||
			strings.Contains(line, "  ") || strings.Contains(line, "\t") {
			return true
		}
	}
	return false
}

// quoteFamily quotes a font family only when it is not a sequence of CSS
// identifiers.
func quoteFamily(font string) string {
	for _, word := range strings.Fields(font) {
		if word[0] >= '0' && word[0] <= '9' {
			return "'" + strings.ReplaceAll(font, "'", "") + "'"
		}
		for _, r := range word {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
				return "'" + strings.ReplaceAll(font, "'", "") + "'"
			}
		}
	}
	return font
}

func element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// appendText adds s to n, turning line breaks into br elements.
func appendText(n *html.Node, s string) {
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			n.AppendChild(element("br"))
		}
		if line != "" {
			n.AppendChild(textNode(line))
		}
	}
}

func setStyle(n *html.Node, decls []declaration) {
	if len(decls) == 0 {
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: cssText(decls)})
}
