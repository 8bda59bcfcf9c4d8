package docx

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/rybkakrzy/importer-sub001/model"
)

// tableGridStyle is the bordered table style new tables use.
const tableGridStyle = "TableGrid"

// stylesPart renders word/styles.xml from the catalogue.
func (ws *writeState) stylesPart() ([]byte, error) {
	d, root := newPartDocument("w:styles")

	para, char := ws.styles.DocDefaults()
	defaults := root.CreateElement("w:docDefaults")
	rPr := writeRunProps("", char)
	if rPr == nil {
		rPr = etree.NewElement("w:rPr")
	}
	defaults.CreateElement("w:rPrDefault").AddChild(rPr)
	pPr := etree.NewElement("w:pPr")
	writeParaFormat(pPr, para)
	defaults.CreateElement("w:pPrDefault").AddChild(pPr)

	hasGrid := false
	for _, s := range ws.styles.Styles() {
		if s.ID == tableGridStyle {
			hasGrid = true
		}
		root.AddChild(styleElement(s))
	}
	if !hasGrid {
		root.AddChild(styleElement(model.Style{
			ID:      tableGridStyle,
			Name:    "Table Grid",
			Type:    model.StyleTable,
			BasedOn: model.StyleTableNormal,
		}))
	}
	return d.WriteToBytes()
}

// styleElement renders one w:style.
func styleElement(s model.Style) *etree.Element {
	el := etree.NewElement("w:style")
	el.CreateAttr("w:type", s.Type.String())
	if s.Default {
		el.CreateAttr("w:default", "1")
	}
	el.CreateAttr("w:styleId", s.ID)
	name := s.Name
	if name == "" {
		name = s.ID
	}
	el.CreateElement("w:name").CreateAttr("w:val", name)
	if s.BasedOn != "" {
		el.CreateElement("w:basedOn").CreateAttr("w:val", s.BasedOn)
	}
	if s.Type == model.StyleParagraph && s.HeadingLevel == 0 && s.ID != model.StyleNormal {
		el.CreateElement("w:qFormat")
	}

	pPr := etree.NewElement("w:pPr")
	if s.HeadingLevel > 0 {
		pPr.CreateElement("w:keepNext")
	}
	writeParaFormat(pPr, s.Para)
	if s.HeadingLevel > 0 {
		pPr.CreateElement("w:outlineLvl").CreateAttr("w:val", strconv.Itoa(s.HeadingLevel-1))
	}
	if len(pPr.Child) > 0 {
		el.AddChild(pPr)
	}
	if rPr := writeRunProps("", s.Char); rPr != nil {
		el.AddChild(rPr)
	}

	if s.ID == tableGridStyle && s.Type == model.StyleTable {
		borders := el.CreateElement("w:tblPr").CreateElement("w:tblBorders")
		for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
			b := borders.CreateElement("w:" + side)
			b.CreateAttr("w:val", "single")
			b.CreateAttr("w:sz", "4")
			b.CreateAttr("w:space", "0")
			b.CreateAttr("w:color", "auto")
		}
	}
	return el
}

// List definitions written for new documents: abstract 0 is the bullet
// list, abstract 1 the ordered list.
var (
	bulletLevels  = []string{"•", "○", "■"}
	orderedFormat = []string{"decimal", "lowerLetter", "lowerRoman"}
)

// numberingPart renders word/numbering.xml for the list instances used.
func (ws *writeState) numberingPart() ([]byte, error) {
	d, root := newPartDocument("w:numbering")

	for abstract := 0; abstract < 2; abstract++ {
		an := root.CreateElement("w:abstractNum")
		an.CreateAttr("w:abstractNumId", strconv.Itoa(abstract))
		an.CreateElement("w:multiLevelType").CreateAttr("w:val", "hybridMultilevel")
		for level := 0; level < 9; level++ {
			lvl := an.CreateElement("w:lvl")
			lvl.CreateAttr("w:ilvl", strconv.Itoa(level))
			lvl.CreateElement("w:start").CreateAttr("w:val", "1")
			if abstract == 0 {
				lvl.CreateElement("w:numFmt").CreateAttr("w:val", "bullet")
				lvl.CreateElement("w:lvlText").CreateAttr("w:val", bulletLevels[level%len(bulletLevels)])
			} else {
				lvl.CreateElement("w:numFmt").CreateAttr("w:val", orderedFormat[level%len(orderedFormat)])
				lvl.CreateElement("w:lvlText").CreateAttr("w:val", "%"+strconv.Itoa(level+1)+".")
			}
			lvl.CreateElement("w:lvlJc").CreateAttr("w:val", "left")
			ind := lvl.CreateElement("w:pPr").CreateElement("w:ind")
			ind.CreateAttr("w:left", strconv.Itoa(720*(level+1)))
			ind.CreateAttr("w:hanging", "360")
		}
	}

	for _, n := range ws.nums {
		num := root.CreateElement("w:num")
		num.CreateAttr("w:numId", strconv.Itoa(n.id))
		num.CreateElement("w:abstractNumId").CreateAttr("w:val", strconv.Itoa(n.abstract))
		if n.restart {
			over := num.CreateElement("w:lvlOverride")
			over.CreateAttr("w:ilvl", "0")
			over.CreateElement("w:startOverride").CreateAttr("w:val", "1")
		}
	}
	return d.WriteToBytes()
}
