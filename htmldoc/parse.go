package htmldoc

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/rybkakrzy/importer-sub001/internal/docerr"
	"github.com/rybkakrzy/importer-sub001/model"
)

const opParse = "htmldoc.Parse"

// inline is the formatting inherited by text from its ancestors.
type inline struct {
	format   model.CharFormat
	preserve bool
}

// listState tracks one open ul or ol.
type listState struct {
	ordered bool
	count   int
}

// parser turns an HTML tree into blocks. Text outside any paragraph element
// opens a paragraph lazily from the current template.
type parser struct {
	opts    options
	gq      *goquery.Document
	doc     *model.Document
	sources map[string]string // data URI to asset id

	out         *[]model.Block
	cur         *model.Paragraph
	curPreserve bool
	tmpl        model.Paragraph
	lists       []*listState
	warnings    []model.Warning
}

// Parse converts HTML into a new document with the default style catalogue.
// Unknown elements are unwrapped and their text kept. Metadata is taken from
// the head element and overridden by the non-empty fields of meta.
func Parse(src string, meta *model.Metadata, opts ...Option) (*model.Document, []model.Warning, error) {
	doc := model.NewDocument()
	doc.Styles = model.DefaultStyleCatalogue()

	blocks, warnings, gq, err := parseInto(doc, src, buildOptions(opts))
	if err != nil {
		return nil, nil, err
	}
	doc.Blocks = blocks
	doc.Metadata = headMetadata(gq)
	if meta != nil {
		doc.Metadata = mergeMetadata(doc.Metadata, *meta)
	}
	return doc, warnings, nil
}

// ParseBlocks converts an HTML fragment, such as a header or footer, into
// blocks for doc. Images are added to doc.Media only when parsing succeeds.
func ParseBlocks(doc *model.Document, src string, opts ...Option) ([]model.Block, []model.Warning, error) {
	work := *doc
	work.Media = append([]*model.MediaAsset(nil), doc.Media...)
	if work.Styles == nil {
		work.Styles = model.DefaultStyleCatalogue()
	}

	blocks, warnings, _, err := parseInto(&work, src, buildOptions(opts))
	if err != nil {
		return nil, nil, err
	}
	doc.Media = work.Media
	return blocks, warnings, nil
}

func parseInto(doc *model.Document, src string, o options) ([]model.Block, []model.Warning, *goquery.Document, error) {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, nil, nil, docerr.New(docerr.ErrInvalidDocumentStructure, opParse, err)
	}

	p := &parser{
		opts:    o,
		gq:      gq,
		doc:     doc,
		sources: make(map[string]string),
	}
	var roots []*html.Node
	if body := gq.Find("body"); body.Length() > 0 {
		roots = body.Nodes[:1]
	} else {
		roots = gq.Nodes
	}

	blocks, err := p.collect(func() error {
		for _, root := range roots {
			if err := p.walkChildren(root, inline{}, 1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if err := o.limits.CheckBlocks(opParse, countBlocks(blocks)); err != nil {
		return nil, nil, nil, err
	}
	o.logger.Debug("html parsed",
		zap.Int("blocks", len(blocks)),
		zap.Int("media", len(doc.Media)),
		zap.Int("warnings", len(p.warnings)))
	return blocks, p.warnings, gq, nil
}

func (p *parser) warn(code model.WarningCode, format string, args ...any) {
	p.warnings = append(p.warnings, model.Warnf(code, "html", format, args...))
}

// collect runs fn with a fresh block list and returns what it produced.
func (p *parser) collect(fn func() error) ([]model.Block, error) {
	savedOut, savedCur, savedPreserve, savedTmpl, savedLists := p.out, p.cur, p.curPreserve, p.tmpl, p.lists

	var blocks []model.Block
	p.out, p.cur, p.tmpl, p.lists = &blocks, nil, model.Paragraph{}, nil
	err := fn()
	p.endParagraph()

	p.out, p.cur, p.curPreserve, p.tmpl, p.lists = savedOut, savedCur, savedPreserve, savedTmpl, savedLists
	return blocks, err
}

func (p *parser) walkChildren(n *html.Node, in inline, depth int) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := p.walk(c, in, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) walk(n *html.Node, in inline, depth int) error {
	if err := p.opts.limits.CheckDepth(opParse, depth); err != nil {
		return err
	}
	switch n.Type {
	case html.TextNode:
		p.text(n.Data, in)
		return nil
	case html.ElementNode:
	default:
		return nil
	}

	tag := n.Data
	if skippedTags[tag] {
		return nil
	}

	decls := parseDeclarations(attr(n, "style"))
	if f, ok := inlineFormats[tag]; ok {
		in.format = in.format.Merge(f)
	}
	if tag == "font" {
		in.format = in.format.Merge(fontAttributes(n))
	}
	in.format = in.format.Merge(charFormatFromCSS(decls))
	bs := blockStyleFromCSS(decls)
	if bs.HasSpace {
		in.preserve = bs.Preserve
	}

	switch {
	case tag == "br":
		p.lineBreak(in)
		return nil
	case tag == "img":
		p.image(n)
		return nil
	case tag == "table":
		return p.table(n, in, depth)
	case tag == "ul" || tag == "ol":
		return p.list(n, tag == "ol", bs, in, depth)
	case tag == "li":
		return p.listItem(n, bs, in, depth)
	case tag == "pre":
		in.preserve = !bs.HasSpace || bs.Preserve
		return p.paragraph(n, "", nil, bs, in, depth)
	case headingLevels[tag] > 0:
		return p.paragraph(n, p.headingStyle(headingLevels[tag]), nil, bs, in, depth)
	case paragraphTags[tag]:
		return p.paragraph(n, "", nil, bs, in, depth)
	case containerTags[tag]:
		if tag == "blockquote" && bs.Format.IndentLeft == 0 {
			bs.Format.IndentLeft = 36
		}
		return p.container(n, bs, in, depth)
	case tag == "a":
		if href := strings.TrimSpace(attr(n, "href")); href != "" && !strings.HasPrefix(href, "#") {
			p.warn(model.WarnLinkDropped, "link target %q dropped, text kept", truncate(href))
		}
	}
	return p.walkChildren(n, in, depth)
}

// paragraph handles elements that always form a paragraph, even when empty.
func (p *parser) paragraph(n *html.Node, styleID string, list *model.ListInfo, bs blockStyle, in inline, depth int) error {
	p.endParagraph()
	saved := p.tmpl

	p.tmpl = model.Paragraph{StyleID: styleID, Format: inheritFormat(saved.Format, bs.Format), List: list}
	p.openParagraph(in)
	err := p.walkChildren(n, in, depth)
	p.endParagraph()

	saved.List = nil
	p.tmpl = saved
	return err
}

// container handles block elements whose text forms paragraphs only when
// present.
func (p *parser) container(n *html.Node, bs blockStyle, in inline, depth int) error {
	p.endParagraph()
	saved := p.tmpl

	p.tmpl = model.Paragraph{StyleID: saved.StyleID, Format: inheritFormat(saved.Format, bs.Format)}
	err := p.walkChildren(n, in, depth)
	p.endParagraph()

	saved.List = nil
	p.tmpl = saved
	return err
}

func (p *parser) list(n *html.Node, ordered bool, bs blockStyle, in inline, depth int) error {
	p.endParagraph()
	p.lists = append(p.lists, &listState{ordered: ordered})
	err := p.container(n, bs, in, depth)
	p.lists = p.lists[:len(p.lists)-1]
	return err
}

func (p *parser) listItem(n *html.Node, bs blockStyle, in inline, depth int) error {
	if len(p.lists) == 0 {
		return p.paragraph(n, "", nil, bs, in, depth)
	}
	ls := p.lists[len(p.lists)-1]
	ls.count++
	level := min(len(p.lists)-1, 8)

	info := &model.ListInfo{Ordered: ls.ordered, Level: level}
	if ls.ordered {
		info.Marker = strconv.Itoa(ls.count) + "."
	} else {
		info.Marker = bulletMarkers[level%len(bulletMarkers)]
	}
	return p.paragraph(n, model.StyleListParagraph, info, bs, in, depth)
}

var bulletMarkers = []string{"•", "○", "■"}

func (p *parser) headingStyle(level int) string {
	if id, ok := p.doc.Styles.HeadingStyle(level); ok {
		return id
	}
	return model.HeadingStyleID(level)
}

// openParagraph starts a paragraph from the current template.
func (p *parser) openParagraph(in inline) {
	para := p.tmpl
	if para.List != nil {
		info := *para.List
		para.List = &info
	}
	p.cur = &para
	p.curPreserve = in.preserve
}

// endParagraph finishes the current paragraph. Trailing collapsible spaces and
// a single trailing line break are removed, as a browser would not show them.
func (p *parser) endParagraph() {
	if p.cur == nil {
		return
	}
	para := p.cur
	p.cur = nil

	if !p.curPreserve {
		trimTrailing(para, " ")
	}
	if n := len(para.Runs); n > 0 && strings.HasSuffix(para.Runs[n-1].Text, "\n") {
		para.Runs[n-1].Text = strings.TrimSuffix(para.Runs[n-1].Text, "\n")
		if para.Runs[n-1].Text == "" {
			para.Runs = para.Runs[:n-1]
		}
	}
	*p.out = append(*p.out, para)
}

func trimTrailing(para *model.Paragraph, cutset string) {
	for n := len(para.Runs); n > 0; n = len(para.Runs) {
		last := &para.Runs[n-1]
		last.Text = strings.TrimRight(last.Text, cutset)
		if last.Text != "" {
			return
		}
		para.Runs = para.Runs[:n-1]
	}
}

func (p *parser) text(s string, in inline) {
	if in.preserve {
		s = strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
		if p.cur == nil && strings.TrimSpace(s) == "" {
			return
		}
	} else {
		s = collapseWhitespace(s)
		if p.endsWithSpace() {
			s = strings.TrimLeft(s, " ")
		}
	}
	if s == "" {
		return
	}
	if p.cur == nil {
		p.openParagraph(in)
	}
	p.cur.AddRun(model.Run{Text: s, Format: in.format})
}

func (p *parser) endsWithSpace() bool {
	if p.cur == nil || len(p.cur.Runs) == 0 {
		return true
	}
	last := p.cur.Runs[len(p.cur.Runs)-1].Text
	return strings.HasSuffix(last, " ") || strings.HasSuffix(last, "\n")
}

func (p *parser) lineBreak(in inline) {
	if p.cur == nil {
		p.openParagraph(in)
	}
	if !p.curPreserve {
		trimTrailing(p.cur, " ")
	}
	p.cur.AddRun(model.Run{Text: "\n", Format: in.format})
}

// collapseWhitespace folds runs of HTML whitespace into single spaces.
func collapseWhitespace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
				space = true
			}
		default:
			sb.WriteByte(s[i])
			space = false
		}
	}
	return sb.String()
}

// image turns an img element into an image paragraph. Only data URIs are
// accepted; the surrounding paragraph is split around the image.
func (p *parser) image(n *html.Node) {
	src := strings.TrimSpace(attr(n, "src"))
	id, ok := p.sources[src]
	if !ok {
		asset, err := decodeDataURI(src)
		switch {
		case errors.Is(err, errNotDataURI):
			p.warn(model.WarnUnsupportedImage, "image source %q dropped: %v", truncate(src), docerr.ErrUnsupportedImageSource)
			return
		case err != nil:
			p.warn(model.WarnInvalidImage, "image dropped: %v", err)
			return
		}
		if !isDecodable(asset) {
			p.warn(model.WarnInvalidImage, "size of %s image unknown", asset.MIMEType)
		}
		id = p.doc.AddMedia(asset)
		p.sources[src] = id
	}

	img := model.ImageRun{
		AssetID: id,
		AltText: attr(n, "alt"),
		Width:   pixelAttr(n, "width"),
		Height:  pixelAttr(n, "height"),
	}
	for _, d := range parseDeclarations(attr(n, "style")) {
		switch d.Property {
		case "width":
			if v := cssPixels(d.Value); v > 0 {
				img.Width = v
			}
		case "height":
			if v := cssPixels(d.Value); v > 0 {
				img.Height = v
			}
		}
	}

	if p.cur != nil {
		if p.cur.IsEmpty() {
			p.cur = nil
		} else {
			p.warn(model.WarnImageSplit, "paragraph split around image %s", id)
			p.endParagraph()
		}
	}
	*p.out = append(*p.out, &model.Paragraph{StyleID: p.tmpl.StyleID, Format: p.tmpl.Format, Image: &img})
}

// table converts a table element. Rows come from thead, tbody, tfoot or
// directly from tr children.
func (p *parser) table(n *html.Node, in inline, depth int) error {
	p.endParagraph()
	t := &model.Table{}

	var err error
	p.gq.FindNodes(n).Children().EachWithBreak(func(_ int, section *goquery.Selection) bool {
		switch goquery.NodeName(section) {
		case "caption":
			err = p.container(section.Nodes[0], blockStyle{}, in, depth+1)
		case "thead":
			err = p.tableRows(t, section.ChildrenFiltered("tr"), true, in, depth+1)
		case "tbody", "tfoot":
			err = p.tableRows(t, section.ChildrenFiltered("tr"), false, in, depth+1)
		case "tr":
			err = p.tableRows(t, section, false, in, depth)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	if len(t.Rows) == 0 {
		return nil
	}
	*p.out = append(*p.out, t)
	return nil
}

func (p *parser) tableRows(t *model.Table, rows *goquery.Selection, header bool, in inline, depth int) error {
	var err error
	rows.EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		row := model.Row{}
		allHeader := true
		tr.ChildrenFiltered("td, th").EachWithBreak(func(_ int, td *goquery.Selection) bool {
			node := td.Nodes[0]
			cell := model.Cell{
				ColSpan:  spanAttr(node, "colspan"),
				RowSpan:  spanAttr(node, "rowspan"),
				IsHeader: header || node.Data == "th",
			}
			allHeader = allHeader && cell.IsHeader
			cell.Blocks, err = p.collect(func() error {
				return p.walkChildren(node, in, depth+2)
			})
			row.Cells = append(row.Cells, cell)
			return err == nil
		})
		if err != nil || len(row.Cells) == 0 {
			return err == nil
		}
		row.IsHeader = allHeader
		t.Rows = append(t.Rows, row)
		return true
	})
	return err
}

// inheritFormat applies a block's own formatting over its parent's. Only
// alignment is inherited.
func inheritFormat(parent, own model.ParaFormat) model.ParaFormat {
	if own.Alignment == model.AlignDefault {
		own.Alignment = parent.Alignment
	}
	return own
}

// fontAttributes reads the legacy font element.
func fontAttributes(n *html.Node) model.CharFormat {
	var f model.CharFormat
	if c := parseColor(attr(n, "color")); c != "" {
		f.Color = c
	}
	if face := attr(n, "face"); face != "" {
		f.Font = firstFontFamily(face)
	}
	if size, ok := fontSizes[strings.TrimSpace(attr(n, "size"))]; ok {
		f.Size = size
	}
	return f
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

const maxSpan = 1000

// spanAttr parses colspan or rowspan, defaulting to 1.
func spanAttr(n *html.Node, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(attr(n, key)))
	if err != nil || v < 1 {
		return 1
	}
	return min(v, maxSpan)
}

func pixelAttr(n *html.Node, key string) int {
	v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(attr(n, key)), "px"))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func cssPixels(v string) int {
	pt, ok := parseLength(strings.ToLower(v))
	if !ok || pt <= 0 {
		return 0
	}
	return int(pt/0.75 + 0.5)
}

// truncate shortens s to at most 64 bytes, cutting on a character boundary.
func truncate(s string) string {
	const limit = 64
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func countBlocks(blocks []model.Block) int {
	doc := model.Document{Blocks: blocks}
	n := 0
	doc.Walk(func(model.Block) bool {
		n++
		return true
	})
	return n
}

// headMetadata reads the title and common meta elements.
func headMetadata(gq *goquery.Document) model.Metadata {
	var m model.Metadata
	m.Title = strings.TrimSpace(gq.Find("head title").First().Text())
	gq.Find("head meta[name]").Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))
		switch strings.ToLower(s.AttrOr("name", "")) {
		case "description":
			m.Description = content
		case "keywords":
			m.Keywords = content
		case "author":
			m.Creator = content
		case "subject":
			m.Subject = content
		}
	})
	return m
}

// mergeMetadata returns base with the non-empty fields of over applied.
func mergeMetadata(base, over model.Metadata) model.Metadata {
	if over.Title != "" {
		base.Title = over.Title
	}
	if over.Subject != "" {
		base.Subject = over.Subject
	}
	if over.Creator != "" {
		base.Creator = over.Creator
	}
	if over.Description != "" {
		base.Description = over.Description
	}
	if over.Keywords != "" {
		base.Keywords = over.Keywords
	}
	if !over.Created.IsZero() {
		base.Created = over.Created
	}
	if !over.Modified.IsZero() {
		base.Modified = over.Modified
	}
	return base
}
