// Package docx reads WordprocessingML packages into the document model and
// writes the document model back out as a package.
package docx

import (
	"encoding/xml"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/rybkakrzy/importer-sub001/internal/docerr"
	"github.com/rybkakrzy/importer-sub001/internal/limits"
	"github.com/rybkakrzy/importer-sub001/model"
	"github.com/rybkakrzy/importer-sub001/opc"
)

// Reader converts packages into documents. A Reader holds configuration
// only and is safe for concurrent use.
type Reader struct {
	logger *zap.Logger
	limits limits.Limits
}

// Option configures a Reader or Writer.
type Option func(*options)

type options struct {
	logger *zap.Logger
	limits limits.Limits
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLimits sets the resource ceilings.
func WithLimits(l limits.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), limits: limits.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	o.limits = o.limits.Normalize()
	return o
}

// NewReader creates a Reader.
func NewReader(opts ...Option) *Reader {
	o := buildOptions(opts)
	return &Reader{logger: o.logger, limits: o.limits}
}

// ReadBytes opens a package from bytes and reads it.
func (r *Reader) ReadBytes(data []byte) (*model.Document, []model.Warning, error) {
	pkg, err := opc.Open(data, r.limits)
	if err != nil {
		return nil, nil, err
	}
	return r.Read(pkg)
}

// Read converts the package's main document, styles, numbering, headers,
// footers and core properties into a Document.
//
// Malformed XML in the main document or a header/footer part fails with
// ErrInvalidDocumentStructure. Malformed auxiliary parts and unsupported
// content produce warnings.
func (r *Reader) Read(pkg *opc.Package) (*model.Document, []model.Warning, error) {
	const op = "docx.Read"

	main, err := pkg.MainDocument()
	if err != nil {
		return nil, nil, err
	}
	mainRels, err := pkg.Relationships(main)
	if err != nil {
		return nil, nil, err
	}

	st := &readState{
		reader:  r,
		pkg:     pkg,
		doc:     model.NewDocument(),
		media:   make(map[string]string),
		headers: make(map[string]*model.HeaderFooter),
	}

	st.loadStyles(main, mainRels)
	st.loadNumbering(main, mainRels)
	st.loadCoreProperties()

	root, err := st.parsePart(op, main)
	if err != nil {
		return nil, nil, err
	}
	if root.Tag != "document" {
		return nil, nil, docerr.Newf(docerr.ErrInvalidDocumentStructure, op, "root element is %q, want document", root.Tag).InPart(main)
	}
	body := findChild(root, "body")
	if body == nil {
		return nil, nil, docerr.Newf(docerr.ErrInvalidDocumentStructure, op, "missing body").InPart(main)
	}

	ctx := &partCtx{name: main, rels: mainRels}
	blocks, err := st.readBlocks(ctx, body, 1)
	if err != nil {
		return nil, nil, err
	}
	st.doc.Blocks = blocks

	if sect := findChild(body, "sectPr"); sect != nil {
		sec, err := st.readSection(ctx, sect)
		if err != nil {
			return nil, nil, err
		}
		st.doc.Section = sec
	}

	r.logger.Debug("docx read",
		zap.String("part", main),
		zap.Int("blocks", len(st.doc.Blocks)),
		zap.Int("media", len(st.doc.Media)),
		zap.Int("warnings", len(st.warnings)))

	return st.doc, st.warnings, nil
}

// readState is the per-call state of a Read.
type readState struct {
	reader    *Reader
	pkg       *opc.Package
	doc       *model.Document
	numbering *NumberingResolver
	styleNum  map[string]numberingPropsXML // paragraph style -> numbering
	media     map[string]string            // part name -> asset id
	headers   map[string]*model.HeaderFooter
	blocks    int
	warnings  []model.Warning
}

// partCtx identifies the part being read and its relationships.
type partCtx struct {
	name string
	rels *opc.Relationships
}

func (st *readState) warn(code model.WarningCode, location, format string, args ...any) {
	w := model.Warnf(code, location, format, args...)
	st.reader.logger.Debug("conversion warning", zap.String("code", string(code)), zap.String("location", location), zap.String("message", w.Message))
	st.warnings = append(st.warnings, w)
}

// parsePart parses a required XML part; failures are structural errors.
func (st *readState) parsePart(op, name string) (*etree.Element, error) {
	data, ok := st.pkg.Part(name)
	if !ok {
		return nil, docerr.Newf(docerr.ErrInvalidDocumentStructure, op, "part not found").InPart(name)
	}
	d := etree.NewDocument()
	if err := d.ReadFromBytes(data); err != nil {
		return nil, docerr.New(docerr.ErrInvalidDocumentStructure, op, err).InPart(name)
	}
	if d.Root() == nil {
		return nil, docerr.Newf(docerr.ErrInvalidDocumentStructure, op, "no root element").InPart(name)
	}
	return d.Root(), nil
}

// auxiliaryPart returns the bytes of the part targeted by the first
// relationship of typ, or nil.
func (st *readState) auxiliaryPart(source string, rels *opc.Relationships, typ string) (string, []byte) {
	for _, rel := range rels.ByType(typ) {
		if rel.External() {
			continue
		}
		name := opc.ResolveTarget(source, rel.Target)
		if data, ok := st.pkg.Part(name); ok {
			return name, data
		}
		st.warn(model.WarnAuxiliaryPart, name, "referenced part is missing")
	}
	return "", nil
}

func (st *readState) loadStyles(main string, rels *opc.Relationships) {
	var styles *stylesXML
	if name, data := st.auxiliaryPart(main, rels, opc.RelTypeStyles); data != nil {
		styles = &stylesXML{}
		if err := xml.Unmarshal(data, styles); err != nil {
			st.warn(model.WarnAuxiliaryPart, name, "styles ignored: %v", err)
			styles = nil
		}
	}

	st.styleNum = make(map[string]numberingPropsXML)
	if styles != nil {
		for _, def := range styles.Styles {
			if IsListParagraph(def.PPr.NumPr.NumID.Val) {
				st.styleNum[def.StyleID] = def.PPr.NumPr
			}
		}
	}

	cat := buildCatalogue(styles)
	st.warnings = append(st.warnings, cat.Flatten()...)
	st.doc.Styles = cat
}

func (st *readState) loadNumbering(main string, rels *opc.Relationships) {
	var numbering *numberingXML
	if name, data := st.auxiliaryPart(main, rels, opc.RelTypeNumbering); data != nil {
		numbering = &numberingXML{}
		if err := xml.Unmarshal(data, numbering); err != nil {
			st.warn(model.WarnAuxiliaryPart, name, "numbering ignored: %v", err)
			numbering = nil
		}
	}
	st.numbering = NewNumberingResolver(numbering)
}

func (st *readState) loadCoreProperties() {
	rootRels, err := st.pkg.Relationships("")
	if err != nil {
		return
	}
	name, data := st.auxiliaryPart("", rootRels, opc.RelTypeCoreProperties)
	if data == nil {
		return
	}
	var core corePropertiesXML
	if err := xml.Unmarshal(data, &core); err != nil {
		st.warn(model.WarnAuxiliaryPart, name, "core properties ignored: %v", err)
		return
	}
	st.doc.Metadata = model.Metadata{
		Title:       strings.TrimSpace(core.Title),
		Subject:     strings.TrimSpace(core.Subject),
		Creator:     strings.TrimSpace(core.Creator),
		Description: strings.TrimSpace(core.Description),
		Keywords:    strings.TrimSpace(core.Keywords),
		Created:     parseW3CDTF(core.Created),
		Modified:    parseW3CDTF(core.Modified),
	}
}

func parseW3CDTF(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// readBlocks reads the block-level children of a body, cell, header,
// footer or content control.
func (st *readState) readBlocks(ctx *partCtx, parent *etree.Element, depth int) ([]model.Block, error) {
	const op = "docx.Read"
	if err := st.reader.limits.CheckDepth(op, depth); err != nil {
		return nil, err
	}

	var blocks []model.Block
	for _, el := range parent.ChildElements() {
		var produced []model.Block
		var err error

		switch wTag(el) {
		case "p":
			produced, err = st.readParagraph(ctx, el, depth)
		case "tbl":
			var t *model.Table
			t, err = st.readTable(ctx, el, depth+1)
			if t != nil {
				produced = []model.Block{t}
			}
		case "sdt", "customXml":
			if content := findChild(el, "sdtContent"); content != nil {
				produced, err = st.readBlocks(ctx, content, depth+1)
			} else {
				produced, err = st.readBlocks(ctx, el, depth+1)
			}
		case "sectPr", "sdtPr", "sdtEndPr", "customXmlPr", "tcPr", "trPr", "tblPr",
			"bookmarkStart", "bookmarkEnd", "proofErr", "permStart", "permEnd",
			"commentRangeStart", "commentRangeEnd":
			continue
		default:
			if b := st.opaqueBlock(ctx, el); b != nil {
				produced = []model.Block{b}
			}
		}
		if err != nil {
			return nil, err
		}

		st.blocks += len(produced)
		if err := st.reader.limits.CheckBlocks(op, st.blocks); err != nil {
			return nil, err
		}
		blocks = append(blocks, produced...)
	}
	return blocks, nil
}

// opaquePrefixes are the namespace prefixes an opaque element may use and
// still be re-emitted under the writer's root declarations.
var opaquePrefixes = map[string]string{
	"w":   nsW,
	"w14": nsW14,
	"mc":  nsMC,
}

// opaqueBlock keeps an unknown body element when it is safe to write back,
// otherwise drops it with a warning.
func (st *readState) opaqueBlock(ctx *partCtx, el *etree.Element) model.Block {
	text := elementText(el)
	if !isSafeOpaque(el) {
		st.warn(model.WarnDroppedElement, ctx.name, "unsupported element %s dropped", el.FullTag())
		return nil
	}

	d := etree.NewDocument()
	d.SetRoot(el.Copy())
	x, err := d.WriteToString()
	if err != nil {
		st.warn(model.WarnDroppedElement, ctx.name, "element %s dropped: %v", el.FullTag(), err)
		return nil
	}
	return &model.Opaque{Name: el.FullTag(), XML: x, TextContent: text}
}

func isSafeOpaque(el *etree.Element) bool {
	if uri, ok := opaquePrefixes[el.Space]; !ok || el.NamespaceURI() != uri {
		return false
	}
	if el.Tag == "object" || el.Tag == "altChunk" {
		return false
	}
	for _, a := range el.Attr {
		switch a.Space {
		case "", "xml":
		default:
			if _, ok := opaquePrefixes[a.Space]; !ok {
				return false
			}
		}
	}
	for _, c := range el.ChildElements() {
		if !isSafeOpaque(c) {
			return false
		}
	}
	return true
}

// readParagraph reads one w:p. An image splits the paragraph: text before
// and after it become separate paragraphs with the same properties. A
// paragraph-level sectPr adds a section break after the paragraph.
func (st *readState) readParagraph(ctx *partCtx, p *etree.Element, depth int) ([]model.Block, error) {
	var props paragraphPropsXML
	var sect *etree.Element
	if ppr := findChild(p, "pPr"); ppr != nil {
		if err := decodeElement(ppr, &props); err != nil {
			st.warn(model.WarnDroppedElement, ctx.name, "paragraph properties ignored: %v", err)
		}
		sect = findChild(ppr, "sectPr")
	}

	template := model.Paragraph{
		StyleID: st.resolveStyle(ctx, props.Style.Val, model.StyleParagraph),
		Format:  paraFormat(props),
	}

	numPr := props.NumPr
	if numPr.NumID.Val == "" {
		numPr = st.styleNum[template.StyleID]
	}
	if IsListParagraph(numPr.NumID.Val) {
		level, _ := strconv.Atoi(numPr.ILvl.Val)
		template.List = st.numbering.Next(numPr.NumID.Val, level)
	}

	pb := &paragraphBuilder{st: st, ctx: ctx, template: template}
	pb.start()
	if err := pb.readContent(p, depth); err != nil {
		return nil, err
	}
	blocks := pb.finish()

	if sect != nil {
		sec, err := st.readSection(ctx, sect)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, &model.SectionBreak{Section: *sec})
	}
	return blocks, nil
}

// resolveStyle returns id if the catalogue defines it, otherwise the
// default style of the type, recording a warning.
func (st *readState) resolveStyle(ctx *partCtx, id string, t model.StyleType) string {
	if id == "" {
		return ""
	}
	if _, ok := st.doc.Styles.Effective(id); ok {
		return id
	}
	fallback := st.doc.Styles.DefaultStyleID(t)
	st.warn(model.WarnStyleFallback, ctx.name, "%s style %q not found, using %q", t, id, fallback)
	return fallback
}

// paragraphBuilder accumulates runs, splitting around images.
type paragraphBuilder struct {
	st       *readState
	ctx      *partCtx
	template model.Paragraph
	current  *model.Paragraph
	out      []model.Block
	images   int
}

func (pb *paragraphBuilder) start() {
	p := pb.template
	pb.current = &p
}

func (pb *paragraphBuilder) flush(keepEmpty bool) {
	if pb.current == nil {
		return
	}
	if keepEmpty || !pb.current.IsEmpty() {
		pb.out = append(pb.out, pb.current)
	}
	pb.current = nil
}

func (pb *paragraphBuilder) addImage(img model.ImageRun) {
	pb.images++
	pb.flush(false)
	p := pb.template
	p.Runs = nil
	p.Image = &img
	pb.out = append(pb.out, &p)
	pb.start()
}

func (pb *paragraphBuilder) finish() []model.Block {
	pb.flush(pb.images == 0)
	// Only the first piece of a split paragraph carries the list marker.
	for i, b := range pb.out {
		if i > 0 {
			b.(*model.Paragraph).List = nil
		}
	}
	if pb.images > 0 {
		var text bool
		for _, b := range pb.out {
			if p := b.(*model.Paragraph); p.Image == nil && !p.IsEmpty() {
				text = true
			}
		}
		if text || pb.images > 1 {
			pb.st.warn(model.WarnImageSplit, pb.ctx.name, "paragraph with %d image(s) split into separate paragraphs", pb.images)
		}
	}
	return pb.out
}

// readContent reads paragraph-level content: runs and the containers that
// wrap them.
func (pb *paragraphBuilder) readContent(parent *etree.Element, depth int) error {
	if err := pb.st.reader.limits.CheckDepth("docx.Read", depth); err != nil {
		return err
	}
	for _, el := range parent.ChildElements() {
		if el.Space == "mc" && el.Tag == "AlternateContent" {
			if fb := findAnyChild(el, "Fallback"); fb != nil {
				if err := pb.readContent(fb, depth+1); err != nil {
					return err
				}
			}
			continue
		}

		switch wTag(el) {
		case "r":
			if err := pb.readRun(el, depth+1); err != nil {
				return err
			}
		case "hyperlink":
			if id := attrR(el, "id"); id != "" {
				if rel, ok := pb.ctx.rels.ByID(id); ok && rel.External() {
					pb.st.warn(model.WarnLinkDropped, pb.ctx.name, "hyperlink target %s not kept", rel.Target)
				}
			}
			if err := pb.readContent(el, depth+1); err != nil {
				return err
			}
		case "ins", "moveTo", "smartTag", "fldSimple", "customXml", "dir", "bdo":
			if err := pb.readContent(el, depth+1); err != nil {
				return err
			}
		case "sdt":
			if content := findChild(el, "sdtContent"); content != nil {
				if err := pb.readContent(content, depth+1); err != nil {
					return err
				}
			}
		case "del", "moveFrom":
			if text := deletedText(el); text != "" {
				pb.st.warn(model.WarnTrackedChange, pb.ctx.name, "tracked deletion %q dropped", text)
			} else {
				pb.st.warn(model.WarnTrackedChange, pb.ctx.name, "empty tracked deletion %s dropped", el.FullTag())
			}
		case "pPr", "bookmarkStart", "bookmarkEnd", "proofErr", "permStart", "permEnd",
			"commentRangeStart", "commentRangeEnd", "customXmlPr", "smartTagPr",
			"moveFromRangeStart", "moveFromRangeEnd", "moveToRangeStart", "moveToRangeEnd":
		case "oMath", "oMathPara", "object":
			pb.st.warn(model.WarnDroppedElement, pb.ctx.name, "unsupported element %s dropped", el.FullTag())
		default:
			if el.Space == "m" {
				pb.st.warn(model.WarnDroppedElement, pb.ctx.name, "math element %s dropped", el.FullTag())
			} else {
				pb.st.warn(model.WarnDroppedElement, pb.ctx.name, "unsupported element %s dropped", el.FullTag())
			}
		}
	}
	return nil
}

// readRun reads one w:r.
func (pb *paragraphBuilder) readRun(r *etree.Element, depth int) error {
	run := model.Run{}
	if rpr := findChild(r, "rPr"); rpr != nil {
		var props runPropsXML
		if err := decodeElement(rpr, &props); err != nil {
			pb.st.warn(model.WarnDroppedElement, pb.ctx.name, "run properties ignored: %v", err)
		} else {
			run.Format = charFormat(props)
			if props.Style.Val != "" {
				run.StyleID = pb.st.resolveStyle(pb.ctx, props.Style.Val, model.StyleCharacter)
			}
		}
	}

	var sb strings.Builder
	emit := func() {
		if sb.Len() == 0 {
			return
		}
		if pb.current == nil {
			pb.start()
		}
		out := run
		out.Text = sb.String()
		pb.current.AddRun(out)
		sb.Reset()
	}

	var walk func(parent *etree.Element, depth int) error
	walk = func(parent *etree.Element, depth int) error {
		if err := pb.st.reader.limits.CheckDepth("docx.Read", depth); err != nil {
			return err
		}
		for _, el := range parent.ChildElements() {
			if el.Space == "mc" && el.Tag == "AlternateContent" {
				if choice := findAnyChild(el, "Choice"); choice != nil && hasDrawing(choice) {
					if err := walk(choice, depth+1); err != nil {
						return err
					}
				} else if fb := findAnyChild(el, "Fallback"); fb != nil {
					if err := walk(fb, depth+1); err != nil {
						return err
					}
				}
				continue
			}
			switch wTag(el) {
			case "t":
				sb.WriteString(el.Text())
			case "tab", "ptab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			case "noBreakHyphen":
				sb.WriteString("‑")
			case "softHyphen":
				sb.WriteString("­")
			case "sym":
				if code, err := strconv.ParseUint(attrW(el, "char"), 16, 32); err == nil {
					if code >= 0xF000 && code <= 0xF0FF {
						code -= 0xF000
					}
					sb.WriteRune(rune(code))
				}
			case "drawing":
				emit()
				if img, ok := pb.st.readDrawing(pb.ctx, el); ok {
					pb.addImage(img)
				}
			case "object", "pict":
				pb.st.warn(model.WarnDroppedElement, pb.ctx.name, "embedded %s dropped", el.Tag)
			case "footnoteReference", "endnoteReference", "commentReference":
				pb.st.warn(model.WarnDroppedElement, pb.ctx.name, "%s dropped", el.Tag)
			case "rPr", "lastRenderedPageBreak", "fldChar", "instrText", "delText",
				"annotationRef", "separator", "continuationSeparator":
			default:
				pb.st.warn(model.WarnDroppedElement, pb.ctx.name, "unsupported run content %s dropped", el.FullTag())
			}
		}
		return nil
	}

	if err := walk(r, depth); err != nil {
		return err
	}
	emit()
	return nil
}

// readDrawing resolves an inline or anchored picture to a media asset.
func (st *readState) readDrawing(ctx *partCtx, el *etree.Element) (model.ImageRun, bool) {
	var drawing drawingXML
	if err := decodeElement(el, &drawing); err != nil {
		st.warn(model.WarnDroppedElement, ctx.name, "drawing dropped: %v", err)
		return model.ImageRun{}, false
	}
	inline := drawing.Inline
	if inline == nil {
		inline = drawing.Anchor
	}
	if inline == nil || inline.Blip == nil || (inline.Blip.Embed == "" && inline.Blip.Link == "") {
		st.warn(model.WarnDroppedElement, ctx.name, "drawing without picture dropped")
		return model.ImageRun{}, false
	}
	if inline.Blip.Embed == "" {
		st.warn(model.WarnUnsupportedImage, ctx.name, "linked picture %s dropped", inline.Blip.Link)
		return model.ImageRun{}, false
	}

	rel, ok := ctx.rels.ByID(inline.Blip.Embed)
	if !ok || rel.External() {
		st.warn(model.WarnMissingMedia, ctx.name, "picture relationship %s not resolvable", inline.Blip.Embed)
		return model.ImageRun{}, false
	}
	target := opc.ResolveTarget(ctx.name, rel.Target)

	id, seen := st.media[target]
	if !seen {
		data, ok := st.pkg.Part(target)
		if !ok {
			st.warn(model.WarnMissingMedia, ctx.name, "picture part %s missing", target)
			return model.ImageRun{}, false
		}
		asset := &model.MediaAsset{
			MIMEType: st.mediaType(target),
			Data:     append([]byte(nil), data...),
			Name:     path.Base(target),
		}
		asset.DecodeSize()
		id = st.doc.AddMedia(asset)
		st.media[target] = id
	}

	return model.ImageRun{
		AssetID: id,
		Width:   emuToPixels(inline.Extent.CX),
		Height:  emuToPixels(inline.Extent.CY),
		AltText: inline.DocPr.Descr,
	}, true
}

func (st *readState) mediaType(part string) string {
	if ct, err := st.pkg.ContentTypes(); err == nil {
		if t := ct.Lookup(part); t != "" && t != opc.ContentTypeXML {
			return t
		}
	}
	if t := opc.ImageContentType(path.Ext(part)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// emuPerPixel is the number of EMUs in one pixel at 96 DPI.
const emuPerPixel = 9525

func emuToPixels(s string) int {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0
	}
	return int((v + emuPerPixel/2) / emuPerPixel)
}

// readSection converts a sectPr, loading default header and footer parts.
func (st *readState) readSection(ctx *partCtx, el *etree.Element) (*model.SectionProperties, error) {
	var props sectionPropsXML
	if err := decodeElement(el, &props); err != nil {
		st.warn(model.WarnDroppedElement, ctx.name, "section properties ignored: %v", err)
	}

	page := model.DefaultPageSetup()
	if v := parseTwips(props.PageSize.W); v > 0 {
		page.Width = v
	}
	if v := parseTwips(props.PageSize.H); v > 0 {
		page.Height = v
	}
	if props.PageSize.Orient == "landscape" {
		page.Orientation = model.OrientationLandscape
	}
	m := props.PageMargin
	setIf := func(dst *float64, s string) {
		if s != "" {
			*dst = parseTwips(s)
		}
	}
	setIf(&page.MarginTop, m.Top)
	setIf(&page.MarginRight, m.Right)
	setIf(&page.MarginBottom, m.Bottom)
	setIf(&page.MarginLeft, m.Left)
	setIf(&page.MarginHeader, m.Header)
	setIf(&page.MarginFooter, m.Footer)

	sec := &model.SectionProperties{Page: page}

	var err error
	if sec.Header, err = st.readHeaderFooterRefs(ctx, props.HeaderRefs, "header"); err != nil {
		return nil, err
	}
	if sec.Footer, err = st.readHeaderFooterRefs(ctx, props.FooterRefs, "footer"); err != nil {
		return nil, err
	}
	return sec, nil
}

func (st *readState) readHeaderFooterRefs(ctx *partCtx, refs []headerFooterRefXML, kind string) (*model.HeaderFooter, error) {
	var result *model.HeaderFooter
	for _, ref := range refs {
		if ref.Type != "" && ref.Type != "default" {
			st.warn(model.WarnHeaderVariant, ctx.name, "%s %s variant not supported", ref.Type, kind)
			continue
		}
		rel, ok := ctx.rels.ByID(ref.ID)
		if !ok || rel.External() {
			st.warn(model.WarnAuxiliaryPart, ctx.name, "%s relationship %s not resolvable", kind, ref.ID)
			continue
		}
		hf, err := st.readHeaderFooter(opc.ResolveTarget(ctx.name, rel.Target))
		if err != nil {
			return nil, err
		}
		result = hf
	}
	return result, nil
}

func (st *readState) readHeaderFooter(part string) (*model.HeaderFooter, error) {
	const op = "docx.Read"
	if hf, ok := st.headers[part]; ok {
		return hf, nil
	}
	root, err := st.parsePart(op, part)
	if err != nil {
		return nil, err
	}
	if root.Tag != "hdr" && root.Tag != "ftr" {
		return nil, docerr.Newf(docerr.ErrInvalidDocumentStructure, op, "root element is %q, want hdr or ftr", root.Tag).InPart(part)
	}
	rels, err := st.pkg.Relationships(part)
	if err != nil {
		return nil, err
	}
	blocks, err := st.readBlocks(&partCtx{name: part, rels: rels}, root, 1)
	if err != nil {
		return nil, err
	}
	hf := &model.HeaderFooter{Blocks: blocks}
	st.headers[part] = hf
	return hf, nil
}

// decodeElement unmarshals a standalone copy of el into v.
func decodeElement(el *etree.Element, v any) error {
	d := etree.NewDocument()
	d.SetRoot(el.Copy())
	data, err := d.WriteToBytes()
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}

// wTag returns the local name of a WordprocessingML element, "" otherwise.
func wTag(el *etree.Element) string {
	if el.Space == "w" || el.NamespaceURI() == nsW {
		return el.Tag
	}
	return ""
}

// findChild returns the first WordprocessingML child with the local name.
func findChild(el *etree.Element, local string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == local && wTag(c) != "" {
			return c
		}
	}
	return nil
}

// findAnyChild returns the first child with the local name in any namespace.
func findAnyChild(el *etree.Element, local string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

func attrW(el *etree.Element, key string) string {
	for i := range el.Attr {
		a := &el.Attr[i]
		if a.Key == key && (a.Space == "w" || a.NamespaceURI() == nsW) {
			return a.Value
		}
	}
	return ""
}

func attrR(el *etree.Element, key string) string {
	for i := range el.Attr {
		a := &el.Attr[i]
		if a.Key == key && (a.Space == "r" || a.NamespaceURI() == nsR) {
			return a.Value
		}
	}
	return ""
}

func hasDrawing(el *etree.Element) bool {
	for _, c := range el.ChildElements() {
		if wTag(c) == "drawing" || hasDrawing(c) {
			return true
		}
	}
	return false
}

// elementText returns the w:t text under el.
func elementText(el *etree.Element) string {
	var sb strings.Builder
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if wTag(c) == "t" {
				sb.WriteString(c.Text())
				continue
			}
			walk(c)
		}
	}
	walk(el)
	return sb.String()
}

// deletedText returns the w:delText text under el.
func deletedText(el *etree.Element) string {
	var sb strings.Builder
	for _, c := range el.FindElements(".//delText") {
		sb.WriteString(c.Text())
	}
	for _, c := range el.FindElements(".//t") {
		sb.WriteString(c.Text())
	}
	return sb.String()
}
