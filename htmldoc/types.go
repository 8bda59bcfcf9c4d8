// Package htmldoc maps the document model to and from the HTML subset used by
// the editor.
package htmldoc

import "github.com/rybkakrzy/importer-sub001/model"

// Tables below are read-only after package initialization and are shared by
// concurrent conversions.

// headingTags maps heading levels to the tags Render emits. Deeper levels are
// rendered as paragraphs.
var headingTags = map[int]string{
	1: "h1",
	2: "h2",
}

// headingLevels maps heading tags accepted by Parse to levels.
var headingLevels = map[string]int{
	"h1": 1,
	"h2": 2,
	"h3": 3,
	"h4": 4,
	"h5": 5,
	"h6": 6,
}

// inlineFormats maps formatting tags to the character formatting they apply.
var inlineFormats = map[string]model.CharFormat{
	"b":      {Bold: model.ToggleOn},
	"strong": {Bold: model.ToggleOn},
	"i":      {Italic: model.ToggleOn},
	"em":     {Italic: model.ToggleOn},
	"cite":   {Italic: model.ToggleOn},
	"dfn":    {Italic: model.ToggleOn},
	"var":    {Italic: model.ToggleOn},
	"u":      {Underline: model.ToggleOn},
	"ins":    {Underline: model.ToggleOn},
	"s":      {Strike: model.ToggleOn},
	"strike": {Strike: model.ToggleOn},
	"del":    {Strike: model.ToggleOn},
	"code":   {Font: monospaceFont},
	"kbd":    {Font: monospaceFont},
	"samp":   {Font: monospaceFont},
	"tt":     {Font: monospaceFont},
}

const monospaceFont = "Courier New"

// paragraphTags start a new paragraph that is kept even when empty.
var paragraphTags = map[string]bool{
	"p":          true,
	"li":         true,
	"pre":        true,
	"address":    true,
	"figcaption": true,
	"dt":         true,
	"dd":         true,
}

// containerTags end the current paragraph; their text forms paragraphs only
// when present.
var containerTags = map[string]bool{
	"div":        true,
	"section":    true,
	"article":    true,
	"main":       true,
	"header":     true,
	"footer":     true,
	"nav":        true,
	"aside":      true,
	"blockquote": true,
	"center":     true,
	"figure":     true,
	"form":       true,
	"fieldset":   true,
	"dl":         true,
	"hr":         true,
	"body":       true,
	"html":       true,
}

// skippedTags never contribute content.
var skippedTags = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
	"math":     true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
	"title":    true,
	"meta":     true,
	"link":     true,
}

// fontSizes maps the legacy font size attribute (1-7) to points.
var fontSizes = map[string]float64{
	"1": 7.5,
	"2": 10,
	"3": 12,
	"4": 13.5,
	"5": 18,
	"6": 24,
	"7": 36,
}

// cssKeywordSizes maps CSS absolute-size keywords to points.
var cssKeywordSizes = map[string]float64{
	"xx-small": 7.5,
	"x-small":  7.5,
	"small":    10,
	"medium":   12,
	"large":    13.5,
	"x-large":  18,
	"xx-large": 24,
}

// colorNames holds the CSS named colors most often produced by editors.
var colorNames = map[string]string{
	"black":       "000000",
	"white":       "FFFFFF",
	"red":         "FF0000",
	"green":       "008000",
	"blue":        "0000FF",
	"yellow":      "FFFF00",
	"orange":      "FFA500",
	"purple":      "800080",
	"gray":        "808080",
	"grey":        "808080",
	"silver":      "C0C0C0",
	"maroon":      "800000",
	"olive":       "808000",
	"lime":        "00FF00",
	"aqua":        "00FFFF",
	"cyan":        "00FFFF",
	"teal":        "008080",
	"navy":        "000080",
	"fuchsia":     "FF00FF",
	"magenta":     "FF00FF",
	"brown":       "A52A2A",
	"pink":        "FFC0CB",
	"gold":        "FFD700",
	"darkred":     "8B0000",
	"darkgreen":   "006400",
	"darkblue":    "00008B",
	"darkgray":    "A9A9A9",
	"darkgrey":    "A9A9A9",
	"lightgray":   "D3D3D3",
	"lightgrey":   "D3D3D3",
	"indigo":      "4B0082",
	"violet":      "EE82EE",
	"crimson":     "DC143C",
	"coral":       "FF7F50",
	"tomato":      "FF6347",
	"orangered":   "FF4500",
	"steelblue":   "4682B4",
	"royalblue":   "4169E1",
	"dodgerblue":  "1E90FF",
	"forestgreen": "228B22",
	"seagreen":    "2E8B57",
	"slategray":   "708090",
	"chocolate":   "D2691E",
	"firebrick":   "B22222",
}
