package htmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rybkakrzy/importer-sub001/model"
)

func TestParseDeclarations(t *testing.T) {
	decls := parseDeclarations(`font-family: "a;b", serif; COLOR: red !important; bogus; :x; ` +
		`background: url(data:image/png;base64,AAA=); margin-left:`)

	assert.Equal(t, []declaration{
		{Property: "font-family", Value: `"a;b", serif`},
		{Property: "color", Value: "red"},
		{Property: "background", Value: "url(data:image/png;base64,AAA=)"},
	}, decls)
	assert.Empty(t, parseDeclarations(""))
}

func TestParseColor(t *testing.T) {
	tests := map[string]string{
		"#abc":               "AABBCC",
		"#1F3864":            "1F3864",
		"rgb(255, 0, 128)":   "FF0080",
		"rgba(0,0,255,0.5)":  "0000FF",
		"rgb(100%, 0%, 50%)": "FF0080",
		"rgb(300, -4, 0)":    "FF0000",
		"Navy":               "000080",
		"transparent":        "",
		"#zzzzzz":            "",
		"rgb(1, 2)":          "",
		"rgb(NaN, 0, 0)":     "",
		"":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, parseColor(in), in)
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12pt", 12, true},
		{"16px", 12, true},
		{"1in", 72, true},
		{"2.54cm", 72, true},
		{"10mm", 28.3465, true},
		{"1.5em", 18, true},
		{"2rem", 24, true},
		{"1pc", 12, true},
		{"-9pt", -9, true},
		{"0", 0, true},
		{"50%", 0, false},
		{"auto", 0, false},
		{"5", 0, false},
		{"NaNpt", 0, false},
		{"Infpx", 0, false},
		{"-Infinityem", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseLength(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 0.001, tt.in)
	}
}

func TestParseFontSize(t *testing.T) {
	size, ok := parseFontSize("medium")
	assert.True(t, ok)
	assert.Equal(t, 12.0, size)

	size, ok = parseFontSize("15px")
	assert.True(t, ok)
	assert.Equal(t, 11.5, size)

	_, ok = parseFontSize("0pt")
	assert.False(t, ok)
	_, ok = parseFontSize("larger")
	assert.False(t, ok)
	_, ok = parseFontSize("NaNpt")
	assert.False(t, ok)
	_, ok = parseFontSize("+Infpt")
	assert.False(t, ok)
}

func TestCharFormatFromCSS(t *testing.T) {
	tests := []struct {
		style string
		want  model.CharFormat
	}{
		{"font-weight:bold", model.CharFormat{Bold: model.ToggleOn}},
		{"font-weight:400", model.CharFormat{Bold: model.ToggleOff}},
		{"font-style:oblique", model.CharFormat{Italic: model.ToggleOn}},
		{"text-decoration:underline line-through", model.CharFormat{Underline: model.ToggleOn, Strike: model.ToggleOn}},
		{"text-decoration-line:none", model.CharFormat{Underline: model.ToggleOff, Strike: model.ToggleOff}},
		{"font-family:sans-serif", model.CharFormat{}},
		{"font-family:Georgia, serif;font-size:x-large", model.CharFormat{Font: "Georgia", Size: 18}},
		{"color:inherit", model.CharFormat{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, charFormatFromCSS(parseDeclarations(tt.style)), tt.style)
	}
}

func TestBlockStyleFromCSS(t *testing.T) {
	bs := blockStyleFromCSS(parseDeclarations(
		"text-align:justify;padding-left:24px;margin-right:1cm;text-indent:2em;margin-top:6pt;margin-bottom:3pt;white-space:pre-line"))
	assert.Equal(t, model.ParaFormat{
		Alignment:   model.AlignJustify,
		IndentLeft:  18,
		IndentRight: 72 / 2.54,
		FirstLine:   24,
		SpaceBefore: 6,
		SpaceAfter:  3,
	}, bs.Format)
	assert.True(t, bs.HasSpace)
	assert.True(t, bs.Preserve)

	bs = blockStyleFromCSS(parseDeclarations("white-space:normal"))
	assert.True(t, bs.HasSpace)
	assert.False(t, bs.Preserve)
}

func TestFirstFontFamily(t *testing.T) {
	assert.Equal(t, "Segoe UI", firstFontFamily(`"Segoe UI", Arial`))
	assert.Equal(t, "Arial", firstFontFamily(`Arial`))
	assert.Equal(t, "", firstFontFamily(`monospace`))
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "10.5pt", formatPoints(10.5))
	assert.Equal(t, "12pt", formatPoints(12))
	assert.Equal(t, "-9pt", formatPoints(-9))
	assert.Equal(t, "Times New Roman", quoteFamily("Times New Roman"))
	assert.Equal(t, "'3Dumb'", quoteFamily("3Dumb"))
	assert.Equal(t, "'Font, Inc'", quoteFamily("Font, Inc"))
	assert.Equal(t, "color:#FF0000;font-size:12pt", cssText([]declaration{{"color", "#FF0000"}, {"font-size", "12pt"}}))
}
