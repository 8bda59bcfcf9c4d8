package docx

import (
	"math"
	"strconv"
	"strings"

	"github.com/rybkakrzy/importer-sub001/model"
)

// Word defaults when styles.xml does not set them.
const (
	defaultFont = "Calibri"
	defaultSize = 11.0
)

// buildCatalogue converts styles.xml into a style catalogue. The returned
// catalogue always has a default paragraph style to fall back on.
func buildCatalogue(styles *stylesXML) *model.StyleCatalogue {
	if styles == nil {
		return model.DefaultStyleCatalogue()
	}

	cat := model.NewStyleCatalogue()

	defChar := charFormat(styles.DocDefaults.RPrDefault.RPr)
	if defChar.Font == "" {
		defChar.Font = defaultFont
	}
	if defChar.Size == 0 {
		defChar.Size = defaultSize
	}
	cat.SetDocDefaults(paraFormat(styles.DocDefaults.PPrDefault.PPr), defChar)

	for i := range styles.Styles {
		def := &styles.Styles[i]
		if def.StyleID == "" {
			continue
		}
		cat.Add(styleFromDef(def))
	}

	if cat.DefaultStyleID(model.StyleParagraph) == "" {
		cat.Add(model.Style{ID: model.StyleNormal, Name: "Normal", Type: model.StyleParagraph, Default: true})
	}
	return cat
}

// styleFromDef converts one style definition.
func styleFromDef(def *styleDefXML) model.Style {
	s := model.Style{
		ID:      def.StyleID,
		Name:    def.Name.Val,
		Type:    model.ParseStyleType(def.Type),
		BasedOn: def.BasedOn.Val,
		Default: isOn(def.Default),
		Para:    paraFormat(def.PPr),
		Char:    charFormat(def.RPr),
	}
	if s.Type == model.StyleParagraph {
		s.HeadingLevel = detectHeading(def)
	}
	return s
}

// paraFormat converts paragraph properties to points.
func paraFormat(ppr paragraphPropsXML) model.ParaFormat {
	f := model.ParaFormat{
		Alignment:   model.ParseAlignment(ppr.Justification.Val),
		SpaceBefore: parseTwips(ppr.Spacing.Before),
		SpaceAfter:  parseTwips(ppr.Spacing.After),
		IndentLeft:  parseTwips(firstNonEmpty(ppr.Indent.Left, ppr.Indent.Start)),
		IndentRight: parseTwips(firstNonEmpty(ppr.Indent.Right, ppr.Indent.End)),
		FirstLine:   parseTwips(ppr.Indent.FirstLine),
	}
	if ppr.Indent.Hanging != "" {
		f.FirstLine = -parseTwips(ppr.Indent.Hanging)
	}
	return f
}

// charFormat converts run properties.
func charFormat(rpr runPropsXML) model.CharFormat {
	f := model.CharFormat{
		Bold:   toggle(rpr.Bold),
		Italic: toggle(rpr.Italic),
		Strike: toggle(rpr.Strike),
		Color:  model.NormalizeColor(rpr.Color.Val),
		Size:   parseHalfPoints(rpr.FontSize.Val),
		Font:   firstNonEmpty(rpr.Font.ASCII, rpr.Font.HAnsi, rpr.Font.CS, rpr.Font.EastAsia),
	}
	if !f.Strike.IsSet() {
		f.Strike = toggle(rpr.DStrike)
	}
	if rpr.Underline.XMLName.Local != "" {
		f.Underline = model.Bool(rpr.Underline.Val != "none" && rpr.Underline.Val != "")
		if rpr.Underline.Val == "" {
			// <w:u/> without a value is a single underline.
			f.Underline = model.ToggleOn
		}
	}
	return f
}

// toggle reads an OOXML on/off property: present means on unless val says otherwise.
func toggle(b boolXML) model.Toggle {
	if b.XMLName.Local == "" {
		return model.ToggleUnset
	}
	return model.Bool(b.Val == "" || isOn(b.Val))
}

func isOn(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on":
		return true
	}
	return false
}

// detectHeading determines the heading level of a paragraph style.
func detectHeading(def *styleDefXML) int {
	if level := detectBuiltInHeading(def.StyleID); level > 0 {
		return level
	}

	name := strings.ToLower(def.Name.Val)
	if rest, ok := strings.CutPrefix(name, "heading"); ok {
		if level, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && level >= 1 && level <= 9 {
			return level
		}
	}

	if def.PPr.OutlineLvl.Val != "" {
		if level := parseOutlineLevel(def.PPr.OutlineLvl.Val); level >= 0 {
			return level + 1 // outlineLvl is 0-based
		}
	}
	return 0
}

// detectBuiltInHeading checks for Word's built-in heading style IDs.
func detectBuiltInHeading(styleID string) int {
	id := strings.ToLower(styleID)
	if rest, ok := strings.CutPrefix(id, "heading"); ok {
		if level, err := strconv.Atoi(rest); err == nil && level >= 1 && level <= 9 {
			return level
		}
	}
	return 0
}

// parseOutlineLevel parses an outline level; -1 when outside 0-8.
func parseOutlineLevel(s string) int {
	level, err := strconv.Atoi(s)
	if err != nil || level < 0 || level > 8 {
		return -1
	}
	return level
}

// parseHalfPoints parses a size in half-points to points.
// Word uses half-points for font sizes (e.g., "24" = 12pt).
func parseHalfPoints(s string) float64 {
	return parseFinite(s) / 2
}

// parseTwips parses a size in twips to points.
// 1 point = 20 twips.
func parseTwips(s string) float64 {
	return parseFinite(s) / 20
}

// parseFinite parses a number, mapping malformed, NaN and infinite values
// to 0.
func parseFinite(s string) float64 {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0
	}
	return val
}

// twips formats points as integral twips.
func twips(pt float64) string {
	return strconv.FormatInt(int64(pt*20+sign(pt)*0.5), 10)
}

// halfPoints formats points as integral half-points.
func halfPoints(pt float64) string {
	return strconv.FormatInt(int64(pt*2+0.5), 10)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
