package docx

import (
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/rybkakrzy/importer-sub001/internal/limits"
	"github.com/rybkakrzy/importer-sub001/model"
	"github.com/rybkakrzy/importer-sub001/opc"
)

// Part names produced by the Writer.
const (
	partDocument  = "word/document.xml"
	partStyles    = "word/styles.xml"
	partNumbering = "word/numbering.xml"
	partCore      = "docProps/core.xml"
	partApp       = "docProps/app.xml"
)

// Application is written to docProps/app.xml.
const Application = "docxkit"

// Writer renders documents into packages. A Writer holds configuration only
// and is safe for concurrent use.
type Writer struct {
	logger *zap.Logger
	limits limits.Limits
}

// NewWriter creates a Writer.
func NewWriter(opts ...Option) *Writer {
	o := buildOptions(opts)
	return &Writer{logger: o.logger, limits: o.limits}
}

// WriteBytes renders doc and serializes the package.
func (w *Writer) WriteBytes(doc *model.Document) ([]byte, error) {
	pkg, err := w.Write(doc)
	if err != nil {
		return nil, err
	}
	return pkg.Serialize()
}

// Write renders doc into a new package.
//
// The output depends only on doc: relationship ids are allocated per part in
// first-use order and media files are named in first-use order, so the same
// document always produces the same package. An empty document produces a
// single empty paragraph.
func (w *Writer) Write(doc *model.Document) (*opc.Package, error) {
	if doc == nil {
		doc = model.NewDocument()
	}
	styles := doc.Styles
	if styles == nil {
		styles = model.DefaultStyleCatalogue()
	}

	ws := &writeState{
		writer:    w,
		doc:       doc,
		styles:    styles,
		ct:        opc.NewContentTypes(),
		mediaPart: make(map[string]string),
		headers:   make(map[*model.HeaderFooter]string),
		footers:   make(map[*model.HeaderFooter]string),
		bulletNum: 1,
	}
	return ws.build()
}

// writeState is the per-call state of a Write.
type writeState struct {
	writer *Writer
	doc    *model.Document
	styles *model.StyleCatalogue
	ct     *opc.ContentTypes

	mediaPart  map[string]string // asset id -> part name
	mediaOrder []string
	drawingID  int

	headers map[*model.HeaderFooter]string // -> part name
	footers map[*model.HeaderFooter]string
	hfParts []hfPart

	bulletNum  int
	nums       []numInstance
	inList     bool
	orderedNum int
}

type hfPart struct {
	name string
	root *etree.Element
	rels *opc.Relationships
	doc  *etree.Document
}

// numInstance is a w:num entry: abstract 0 is bullets, 1 is ordered.
type numInstance struct {
	id       int
	abstract int
	restart  bool
}

// writeCtx is the part being written and its relationships.
type writeCtx struct {
	name string
	rels *opc.Relationships
}

func (ws *writeState) build() (*opc.Package, error) {
	pkg := opc.New()

	docRels := opc.NewRelationships(partDocument)
	docRels.Add(opc.RelTypeStyles, "styles.xml", false)
	hasLists := ws.hasLists()
	if hasLists {
		ws.nums = append(ws.nums, numInstance{id: 1, abstract: 0})
		docRels.Add(opc.RelTypeNumbering, "numbering.xml", false)
	}

	xdoc, root := newPartDocument("w:document")
	body := root.CreateElement("w:body")
	ctx := &writeCtx{name: partDocument, rels: docRels}

	blocks := ws.doc.Blocks
	if len(blocks) == 0 {
		blocks = []model.Block{&model.Paragraph{}}
	}
	ws.writeBlocks(body, blocks, ctx)

	final := ws.doc.Section
	if final == nil {
		final = &model.SectionProperties{Page: model.DefaultPageSetup()}
	}
	body.AddChild(ws.sectionProperties(final, ctx))

	docXML, err := xdoc.WriteToBytes()
	if err != nil {
		return nil, err
	}

	// Parts are added in a fixed order so serialization is reproducible.
	rootRels := opc.NewRelationships("")
	rootRels.Add(opc.RelTypeOfficeDocument, partDocument, false)
	rootRels.Add(opc.RelTypeCoreProperties, partCore, false)
	rootRels.Add(opc.RelTypeExtendedProps, partApp, false)

	pkg.SetPart(opc.ContentTypesPart, nil)
	if err := pkg.SetRelationships(rootRels); err != nil {
		return nil, err
	}
	pkg.SetPart(partDocument, docXML)
	if err := pkg.SetRelationships(docRels); err != nil {
		return nil, err
	}
	ws.ct.SetOverride(partDocument, opc.ContentTypeMainDocument)

	stylesXML, err := ws.stylesPart()
	if err != nil {
		return nil, err
	}
	pkg.SetPart(partStyles, stylesXML)
	ws.ct.SetOverride(partStyles, opc.ContentTypeStyles)

	if hasLists {
		numXML, err := ws.numberingPart()
		if err != nil {
			return nil, err
		}
		pkg.SetPart(partNumbering, numXML)
		ws.ct.SetOverride(partNumbering, opc.ContentTypeNumbering)
	}

	for _, hf := range ws.hfParts {
		data, err := hf.doc.WriteToBytes()
		if err != nil {
			return nil, err
		}
		pkg.SetPart(hf.name, data)
		if hf.rels.Len() > 0 {
			if err := pkg.SetRelationships(hf.rels); err != nil {
				return nil, err
			}
		}
		contentType := opc.ContentTypeHeader
		if hf.root.Tag == "ftr" {
			contentType = opc.ContentTypeFooter
		}
		ws.ct.SetOverride(hf.name, contentType)
	}

	for _, id := range ws.mediaOrder {
		asset, _ := ws.doc.MediaByID(id)
		pkg.SetPart(ws.mediaPart[id], asset.Data)
	}

	coreXML, err := corePart(ws.doc.Metadata)
	if err != nil {
		return nil, err
	}
	pkg.SetPart(partCore, coreXML)
	ws.ct.SetOverride(partCore, opc.ContentTypeCoreProperties)

	appXML, err := appPart()
	if err != nil {
		return nil, err
	}
	pkg.SetPart(partApp, appXML)
	ws.ct.SetOverride(partApp, opc.ContentTypeExtendedProps)

	if err := pkg.SetContentTypes(ws.ct); err != nil {
		return nil, err
	}

	ws.writer.logger.Debug("docx written",
		zap.Int("parts", pkg.Len()),
		zap.Int("media", len(ws.mediaOrder)))
	return pkg, nil
}

func (ws *writeState) hasLists() bool {
	found := false
	visit := func(b model.Block) bool {
		if p, ok := b.(*model.Paragraph); ok && p.List != nil {
			found = true
		}
		return !found
	}
	ws.doc.Walk(visit)
	for _, sec := range sections(ws.doc) {
		for _, hf := range []*model.HeaderFooter{sec.Header, sec.Footer} {
			if hf != nil && !found {
				(&model.Document{Blocks: hf.Blocks}).Walk(visit)
			}
		}
	}
	return found
}

// sections returns the section properties of every section break and the
// final section.
func sections(doc *model.Document) []*model.SectionProperties {
	var out []*model.SectionProperties
	for _, b := range doc.Blocks {
		if sb, ok := b.(*model.SectionBreak); ok {
			out = append(out, &sb.Section)
		}
	}
	if doc.Section != nil {
		out = append(out, doc.Section)
	}
	return out
}

// newPartDocument creates an XML document whose root declares every
// namespace prefix the writer and opaque blocks may use.
func newPartDocument(rootTag string) (*etree.Document, *etree.Element) {
	d := etree.NewDocument()
	d.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := d.CreateElement(rootTag)
	root.CreateAttr("xmlns:w", nsW)
	root.CreateAttr("xmlns:r", nsR)
	root.CreateAttr("xmlns:wp", nsWP)
	root.CreateAttr("xmlns:a", nsA)
	root.CreateAttr("xmlns:pic", nsPic)
	root.CreateAttr("xmlns:mc", nsMC)
	root.CreateAttr("xmlns:w14", nsW14)
	return d, root
}

// writeBlocks emits blocks into a body, cell, header or footer.
func (ws *writeState) writeBlocks(parent *etree.Element, blocks []model.Block, ctx *writeCtx) {
	var lastPara *etree.Element
	for _, b := range blocks {
		switch v := b.(type) {
		case *model.Paragraph:
			lastPara = ws.writeParagraph(parent, v, ctx)
			continue
		case *model.Table:
			ws.inList = false
			ws.writeTable(parent, v, ctx)
		case *model.SectionBreak:
			ws.inList = false
			if lastPara == nil {
				lastPara = parent.CreateElement("w:p")
			}
			pPr := lastPara.SelectElement("w:pPr")
			if pPr == nil {
				pPr = etree.NewElement("w:pPr")
				lastPara.InsertChildAt(0, pPr)
			}
			pPr.AddChild(ws.sectionProperties(&v.Section, ctx))
		case *model.Opaque:
			ws.inList = false
			ws.writeOpaque(parent, v)
		}
		lastPara = nil
	}
}

func (ws *writeState) writeOpaque(parent *etree.Element, o *model.Opaque) {
	d := etree.NewDocument()
	if err := d.ReadFromString(o.XML); err != nil || d.Root() == nil {
		ws.writer.logger.Debug("opaque block skipped", zap.String("element", o.Name), zap.Error(err))
		return
	}
	parent.AddChild(d.Root())
}

// writeParagraph emits a w:p and returns it.
func (ws *writeState) writeParagraph(parent *etree.Element, p *model.Paragraph, ctx *writeCtx) *etree.Element {
	el := parent.CreateElement("w:p")

	pPr := etree.NewElement("w:pPr")
	if p.StyleID != "" {
		pPr.CreateElement("w:pStyle").CreateAttr("w:val", p.StyleID)
	}
	if p.List != nil {
		numPr := pPr.CreateElement("w:numPr")
		numPr.CreateElement("w:ilvl").CreateAttr("w:val", strconv.Itoa(clampLevel(p.List.Level)))
		numPr.CreateElement("w:numId").CreateAttr("w:val", strconv.Itoa(ws.numFor(p.List)))
		ws.inList = true
	} else {
		ws.inList = false
	}
	writeParaFormat(pPr, p.Format)
	if len(pPr.Child) > 0 {
		el.AddChild(pPr)
	}

	if p.Image != nil {
		ws.writeImage(el, p.Image, ctx)
		return el
	}
	for _, r := range p.Runs {
		writeRun(el, r)
	}
	return el
}

func clampLevel(l int) int {
	return min(max(l, 0), 8)
}

// numFor returns the numbering instance for a list item. Each ordered list
// gets its own instance restarting at 1; bullets share one instance.
func (ws *writeState) numFor(l *model.ListInfo) int {
	if !l.Ordered {
		return ws.bulletNum
	}
	if !ws.inList || ws.orderedNum == 0 {
		ws.orderedNum = len(ws.nums) + 1
		ws.nums = append(ws.nums, numInstance{id: ws.orderedNum, abstract: 1, restart: true})
	}
	return ws.orderedNum
}

// writeParaFormat appends spacing, ind and jc in schema order.
func writeParaFormat(pPr *etree.Element, f model.ParaFormat) {
	if f.SpaceBefore != 0 || f.SpaceAfter != 0 {
		sp := pPr.CreateElement("w:spacing")
		if f.SpaceBefore != 0 {
			sp.CreateAttr("w:before", twips(f.SpaceBefore))
		}
		if f.SpaceAfter != 0 {
			sp.CreateAttr("w:after", twips(f.SpaceAfter))
		}
	}
	if f.IndentLeft != 0 || f.IndentRight != 0 || f.FirstLine != 0 {
		ind := pPr.CreateElement("w:ind")
		if f.IndentLeft != 0 {
			ind.CreateAttr("w:left", twips(f.IndentLeft))
		}
		if f.IndentRight != 0 {
			ind.CreateAttr("w:right", twips(f.IndentRight))
		}
		switch {
		case f.FirstLine > 0:
			ind.CreateAttr("w:firstLine", twips(f.FirstLine))
		case f.FirstLine < 0:
			ind.CreateAttr("w:hanging", twips(-f.FirstLine))
		}
	}
	if f.Alignment != model.AlignDefault {
		jc := f.Alignment.String()
		if f.Alignment == model.AlignJustify {
			jc = "both"
		}
		pPr.CreateElement("w:jc").CreateAttr("w:val", jc)
	}
}

// writeRunProps appends run properties in schema order; returns nil when empty.
func writeRunProps(styleID string, f model.CharFormat) *etree.Element {
	rPr := etree.NewElement("w:rPr")
	if styleID != "" {
		rPr.CreateElement("w:rStyle").CreateAttr("w:val", styleID)
	}
	if f.Font != "" {
		fonts := rPr.CreateElement("w:rFonts")
		fonts.CreateAttr("w:ascii", f.Font)
		fonts.CreateAttr("w:hAnsi", f.Font)
		fonts.CreateAttr("w:cs", f.Font)
	}
	writeToggle(rPr, "w:b", f.Bold)
	writeToggle(rPr, "w:i", f.Italic)
	writeToggle(rPr, "w:strike", f.Strike)
	if f.Color != "" {
		rPr.CreateElement("w:color").CreateAttr("w:val", f.Color)
	}
	if f.Size > 0 {
		rPr.CreateElement("w:sz").CreateAttr("w:val", halfPoints(f.Size))
		rPr.CreateElement("w:szCs").CreateAttr("w:val", halfPoints(f.Size))
	}
	switch f.Underline {
	case model.ToggleOn:
		rPr.CreateElement("w:u").CreateAttr("w:val", "single")
	case model.ToggleOff:
		rPr.CreateElement("w:u").CreateAttr("w:val", "none")
	}
	if len(rPr.Child) == 0 {
		return nil
	}
	return rPr
}

func writeToggle(rPr *etree.Element, tag string, t model.Toggle) {
	switch t {
	case model.ToggleOn:
		rPr.CreateElement(tag)
	case model.ToggleOff:
		rPr.CreateElement(tag).CreateAttr("w:val", "0")
	}
}

// writeRun emits a w:r, turning '\t' into w:tab and '\n' into w:br.
func writeRun(p *etree.Element, r model.Run) {
	text := sanitizeText(r.Text)
	if text == "" {
		return
	}
	run := p.CreateElement("w:r")
	if rPr := writeRunProps(r.StyleID, r.Format); rPr != nil {
		run.AddChild(rPr)
	}

	var sb strings.Builder
	flush := func() {
		if sb.Len() == 0 {
			return
		}
		t := run.CreateElement("w:t")
		s := sb.String()
		if strings.TrimSpace(s) != s || strings.Contains(s, "  ") {
			t.CreateAttr("xml:space", "preserve")
		}
		t.SetText(s)
		sb.Reset()
	}
	for _, c := range text {
		switch c {
		case '\t':
			flush()
			run.CreateElement("w:tab")
		case '\n':
			flush()
			run.CreateElement("w:br")
		default:
			sb.WriteRune(c)
		}
	}
	flush()
}

// sanitizeText drops characters XML 1.0 cannot carry.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n':
			return r
		case r == '\r':
			return -1
		case r < 0x20, r == 0xFFFE, r == 0xFFFF, r >= 0xD800 && r <= 0xDFFF:
			return -1
		}
		return r
	}, s)
}

// maxImageWidth keeps images inside a 16 cm text column at 96 DPI.
const maxImageWidth = 604

// writeImage emits an inline picture run for an image paragraph.
func (ws *writeState) writeImage(p *etree.Element, img *model.ImageRun, ctx *writeCtx) {
	asset, ok := ws.doc.MediaByID(img.AssetID)
	if !ok {
		ws.writer.logger.Debug("image without asset skipped", zap.String("asset", img.AssetID))
		return
	}

	part, ok := ws.mediaPart[asset.ID]
	if !ok {
		ext := opc.ImageExtension(asset.MIMEType)
		if ext == "" {
			ext = "bin"
		}
		part = "word/media/image" + strconv.Itoa(len(ws.mediaOrder)+1) + "." + ext
		ws.mediaPart[asset.ID] = part
		ws.mediaOrder = append(ws.mediaOrder, asset.ID)
		if ct := asset.MIMEType; ct != "" {
			ws.ct.AddDefault(ext, ct)
		}
	}
	relID := relFor(ctx.rels, opc.RelTypeImage, opc.RelativeTarget(ctx.name, part))

	width, height := imageSize(img, asset)
	ws.drawingID++
	name := "Picture " + strconv.Itoa(ws.drawingID)

	inline := p.CreateElement("w:r").CreateElement("w:drawing").CreateElement("wp:inline")
	for _, d := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(d, "0")
	}
	ext := inline.CreateElement("wp:extent")
	ext.CreateAttr("cx", strconv.Itoa(width*emuPerPixel))
	ext.CreateAttr("cy", strconv.Itoa(height*emuPerPixel))
	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", strconv.Itoa(ws.drawingID))
	docPr.CreateAttr("name", name)
	if img.AltText != "" {
		docPr.CreateAttr("descr", img.AltText)
	}
	inline.CreateElement("wp:cNvGraphicFramePr").CreateElement("a:graphicFrameLocks").CreateAttr("noChangeAspect", "1")

	data := inline.CreateElement("a:graphic").CreateElement("a:graphicData")
	data.CreateAttr("uri", nsPic)
	pic := data.CreateElement("pic:pic")
	nv := pic.CreateElement("pic:nvPicPr")
	cNvPr := nv.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", "0")
	cNvPr.CreateAttr("name", asset.ID)
	nv.CreateElement("pic:cNvPicPr")
	fill := pic.CreateElement("pic:blipFill")
	fill.CreateElement("a:blip").CreateAttr("r:embed", relID)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")
	spPr := pic.CreateElement("pic:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	aext := xfrm.CreateElement("a:ext")
	aext.CreateAttr("cx", strconv.Itoa(width*emuPerPixel))
	aext.CreateAttr("cy", strconv.Itoa(height*emuPerPixel))
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")
}

// relFor returns the id of an existing relationship to target, or adds one.
func relFor(rels *opc.Relationships, typ, target string) string {
	for _, r := range rels.ByType(typ) {
		if r.Target == target {
			return r.ID
		}
	}
	return rels.Add(typ, target, false)
}

// imageSize picks the display size in pixels, keeping the aspect ratio when
// only one dimension is known and limiting the width to the text column.
func imageSize(img *model.ImageRun, asset *model.MediaAsset) (int, int) {
	w, h := img.Width, img.Height
	if w == 0 && h == 0 {
		w, h = asset.Width, asset.Height
	}
	switch {
	case w > 0 && h == 0 && asset.Width > 0:
		h = w * asset.Height / asset.Width
	case h > 0 && w == 0 && asset.Height > 0:
		w = h * asset.Width / asset.Height
	}
	if w <= 0 || h <= 0 {
		w, h = 96, 96
	}
	if w > maxImageWidth {
		h = h * maxImageWidth / w
		w = maxImageWidth
	}
	return w, max(h, 1)
}

// sectionProperties builds a w:sectPr, writing header and footer parts on
// first use.
func (ws *writeState) sectionProperties(sec *model.SectionProperties, ctx *writeCtx) *etree.Element {
	sp := etree.NewElement("w:sectPr")

	if sec.Header != nil {
		name := ws.headerFooterPart(sec.Header, "hdr", ws.headers, "header")
		ref := sp.CreateElement("w:headerReference")
		ref.CreateAttr("w:type", "default")
		ref.CreateAttr("r:id", relFor(ctx.rels, opc.RelTypeHeader, opc.RelativeTarget(ctx.name, name)))
	}
	if sec.Footer != nil {
		name := ws.headerFooterPart(sec.Footer, "ftr", ws.footers, "footer")
		ref := sp.CreateElement("w:footerReference")
		ref.CreateAttr("w:type", "default")
		ref.CreateAttr("r:id", relFor(ctx.rels, opc.RelTypeFooter, opc.RelativeTarget(ctx.name, name)))
	}

	page := sec.Page
	if page.Width == 0 || page.Height == 0 {
		page = model.DefaultPageSetup()
	}
	pgSz := sp.CreateElement("w:pgSz")
	pgSz.CreateAttr("w:w", twips(page.Width))
	pgSz.CreateAttr("w:h", twips(page.Height))
	if page.Orientation == model.OrientationLandscape {
		pgSz.CreateAttr("w:orient", "landscape")
	}
	pgMar := sp.CreateElement("w:pgMar")
	pgMar.CreateAttr("w:top", twips(page.MarginTop))
	pgMar.CreateAttr("w:right", twips(page.MarginRight))
	pgMar.CreateAttr("w:bottom", twips(page.MarginBottom))
	pgMar.CreateAttr("w:left", twips(page.MarginLeft))
	pgMar.CreateAttr("w:header", twips(page.MarginHeader))
	pgMar.CreateAttr("w:footer", twips(page.MarginFooter))
	pgMar.CreateAttr("w:gutter", "0")
	return sp
}

// headerFooterPart writes hf as word/headerN.xml or word/footerN.xml once
// and returns the part name.
func (ws *writeState) headerFooterPart(hf *model.HeaderFooter, rootTag string, seen map[*model.HeaderFooter]string, prefix string) string {
	if name, ok := seen[hf]; ok {
		return name
	}
	name := "word/" + prefix + strconv.Itoa(len(seen)+1) + ".xml"
	seen[hf] = name

	d, root := newPartDocument("w:" + rootTag)
	hctx := &writeCtx{name: name, rels: opc.NewRelationships(name)}
	blocks := hf.Blocks
	if len(blocks) == 0 {
		blocks = []model.Block{&model.Paragraph{}}
	}
	saved := ws.inList
	ws.inList = false
	ws.writeBlocks(root, blocks, hctx)
	ws.inList = saved
	if last := root.ChildElements(); len(last) == 0 || last[len(last)-1].Tag != "p" {
		root.CreateElement("w:p")
	}

	ws.hfParts = append(ws.hfParts, hfPart{name: name, root: root, rels: hctx.rels, doc: d})
	return name
}

// corePart renders docProps/core.xml. Empty fields and zero times are omitted.
func corePart(meta model.Metadata) ([]byte, error) {
	d := etree.NewDocument()
	d.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := d.CreateElement("cp:coreProperties")
	root.CreateAttr("xmlns:cp", nsCP)
	root.CreateAttr("xmlns:dc", nsDC)
	root.CreateAttr("xmlns:dcterms", nsDCTerms)
	root.CreateAttr("xmlns:xsi", nsXSI)

	text := func(tag, v string) {
		if v != "" {
			root.CreateElement(tag).SetText(sanitizeText(v))
		}
	}
	text("dc:title", meta.Title)
	text("dc:subject", meta.Subject)
	text("dc:creator", meta.Creator)
	text("cp:keywords", meta.Keywords)
	text("dc:description", meta.Description)
	stamp := func(tag string, t time.Time) {
		if t.IsZero() {
			return
		}
		el := root.CreateElement(tag)
		el.CreateAttr("xsi:type", "dcterms:W3CDTF")
		el.SetText(t.UTC().Format(time.RFC3339))
	}
	stamp("dcterms:created", meta.Created)
	stamp("dcterms:modified", meta.Modified)

	return d.WriteToBytes()
}

// appPart renders docProps/app.xml.
func appPart() ([]byte, error) {
	d := etree.NewDocument()
	d.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := d.CreateElement("Properties")
	root.CreateAttr("xmlns", nsEP)
	root.CreateElement("Application").SetText(Application)
	root.CreateElement("DocSecurity").SetText("0")
	return d.WriteToBytes()
}
