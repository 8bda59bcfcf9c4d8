package htmldoc

import (
	"math"
	"strconv"
	"strings"

	"github.com/rybkakrzy/importer-sub001/model"
)

// declaration is one property of an inline style attribute.
type declaration struct {
	Property string
	Value    string
}

// parseDeclarations splits an inline style attribute into declarations.
// Semicolons inside quotes or parentheses do not end a declaration. Invalid
// declarations are skipped.
func parseDeclarations(style string) []declaration {
	var (
		decls []declaration
		start int
		quote byte
		depth int
	)
	flush := func(end int) {
		if d, ok := splitDeclaration(style[start:end]); ok {
			decls = append(decls, d)
		}
		start = end + 1
	}
	for i := 0; i < len(style); i++ {
		c := style[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')' && depth > 0:
			depth--
		case c == ';' && depth == 0:
			flush(i)
		}
	}
	if start < len(style) {
		flush(len(style))
	}
	return decls
}

func splitDeclaration(s string) (declaration, bool) {
	prop, value, ok := strings.Cut(s, ":")
	if !ok {
		return declaration{}, false
	}
	prop = strings.ToLower(strings.TrimSpace(prop))
	value = strings.TrimSpace(value)
	if i := strings.Index(strings.ToLower(value), "!important"); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	if prop == "" || value == "" {
		return declaration{}, false
	}
	return declaration{Property: prop, Value: value}, true
}

// blockStyle is the paragraph-level part of an inline style.
type blockStyle struct {
	Format   model.ParaFormat
	Preserve bool // white-space: pre, pre-wrap or pre-line
	HasSpace bool // white-space was given at all
}

// charFormatFromCSS extracts character formatting from declarations.
func charFormatFromCSS(decls []declaration) model.CharFormat {
	var f model.CharFormat
	for _, d := range decls {
		v := strings.ToLower(d.Value)
		switch d.Property {
		case "font-weight":
			if t, ok := parseFontWeight(v); ok {
				f.Bold = t
			}
		case "font-style":
			switch v {
			case "italic", "oblique":
				f.Italic = model.ToggleOn
			case "normal":
				f.Italic = model.ToggleOff
			}
		case "text-decoration", "text-decoration-line":
			if strings.Contains(v, "none") {
				f.Underline = model.ToggleOff
				f.Strike = model.ToggleOff
				continue
			}
			if strings.Contains(v, "underline") {
				f.Underline = model.ToggleOn
			}
			if strings.Contains(v, "line-through") {
				f.Strike = model.ToggleOn
			}
		case "color":
			if c := parseColor(v); c != "" {
				f.Color = c
			}
		case "font-size":
			if size, ok := parseFontSize(v); ok {
				f.Size = size
			}
		case "font-family":
			f.Font = firstFontFamily(d.Value)
		}
	}
	return f
}

// blockStyleFromCSS extracts paragraph formatting from declarations.
func blockStyleFromCSS(decls []declaration) blockStyle {
	var b blockStyle
	for _, d := range decls {
		v := strings.ToLower(d.Value)
		switch d.Property {
		case "text-align":
			b.Format.Alignment = model.ParseAlignment(v)
		case "margin-left", "padding-left":
			if pt, ok := parseLength(v); ok && b.Format.IndentLeft == 0 {
				b.Format.IndentLeft = pt
			}
		case "margin-right", "padding-right":
			if pt, ok := parseLength(v); ok && b.Format.IndentRight == 0 {
				b.Format.IndentRight = pt
			}
		case "text-indent":
			if pt, ok := parseLength(v); ok {
				b.Format.FirstLine = pt
			}
		case "margin-top":
			if pt, ok := parseLength(v); ok {
				b.Format.SpaceBefore = pt
			}
		case "margin-bottom":
			if pt, ok := parseLength(v); ok {
				b.Format.SpaceAfter = pt
			}
		case "white-space":
			b.HasSpace = true
			b.Preserve = strings.HasPrefix(v, "pre") || v == "break-spaces"
		}
	}
	return b
}

func parseFontWeight(v string) (model.Toggle, bool) {
	switch v {
	case "bold", "bolder":
		return model.ToggleOn, true
	case "normal", "lighter":
		return model.ToggleOff, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return model.ToggleUnset, false
	}
	return model.Bool(n >= 600), true
}

// parseColor accepts hex, rgb() and named colors and returns "RRGGBB".
func parseColor(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if hex, ok := colorNames[v]; ok {
		return hex
	}
	if strings.HasPrefix(v, "rgb") {
		open := strings.IndexByte(v, '(')
		end := strings.IndexByte(v, ')')
		if open < 0 || end < open {
			return ""
		}
		parts := strings.FieldsFunc(v[open+1:end], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
		if len(parts) < 3 {
			return ""
		}
		var sb strings.Builder
		for _, p := range parts[:3] {
			n, ok := parseChannel(p)
			if !ok {
				return ""
			}
			sb.WriteString(strings.ToUpper(strconv.FormatInt(int64(n)|0x100, 16)[1:]))
		}
		return sb.String()
	}
	if strings.HasPrefix(v, "#") {
		return model.NormalizeColor(v)
	}
	return ""
}

func parseChannel(s string) (int, bool) {
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		f, ok := parseNumber(pct)
		if !ok {
			return 0, false
		}
		return clampChannel(f * 255 / 100), true
	}
	f, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	return clampChannel(f), true
}

// parseNumber parses a finite number; NaN and infinities are rejected.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clampChannel(f float64) int {
	return int(math.Round(math.Max(0, math.Min(255, f))))
}

// parseFontSize accepts lengths and absolute-size keywords.
func parseFontSize(v string) (float64, bool) {
	if pt, ok := cssKeywordSizes[v]; ok {
		return pt, true
	}
	pt, ok := parseLength(v)
	if !ok || pt <= 0 {
		return 0, false
	}
	return math.Round(pt*2) / 2, true
}

// parseLength converts a CSS length to points. Percentages are not lengths.
func parseLength(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	units := []struct {
		suffix string
		factor float64
	}{
		{"rem", 12},
		{"em", 12},
		{"pt", 1},
		{"px", 0.75},
		{"cm", 72 / 2.54},
		{"mm", 72 / 25.4},
		{"in", 72},
		{"pc", 12},
	}
	for _, u := range units {
		if num, ok := strings.CutSuffix(v, u.suffix); ok {
			f, ok := parseNumber(num)
			if !ok {
				return 0, false
			}
			return f * u.factor, true
		}
	}
	if f, ok := parseNumber(v); ok && f == 0 {
		return 0, true
	}
	return 0, false
}

// firstFontFamily returns the first family of a font-family list, unquoted.
// Generic families are ignored.
func firstFontFamily(v string) string {
	first, _, _ := strings.Cut(v, ",")
	first = strings.Trim(strings.TrimSpace(first), `"'`)
	switch strings.ToLower(first) {
	case "serif", "sans-serif", "monospace", "cursive", "fantasy", "system-ui", "inherit", "initial":
		return ""
	}
	return first
}

// formatPoints renders a point value for CSS, e.g. "10.5pt".
func formatPoints(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "pt"
}

// cssText joins declarations into a style attribute value.
func cssText(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.Property+":"+d.Value)
	}
	return strings.Join(parts, ";")
}
