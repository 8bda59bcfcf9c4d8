package model

import (
	"strconv"
	"strings"
)

// StyleType is the kind of element a style applies to.
type StyleType int

const (
	StyleParagraph StyleType = iota
	StyleCharacter
	StyleTable
	StyleNumbering
)

func (t StyleType) String() string {
	switch t {
	case StyleCharacter:
		return "character"
	case StyleTable:
		return "table"
	case StyleNumbering:
		return "numbering"
	default:
		return "paragraph"
	}
}

// ParseStyleType parses a WordprocessingML style type name.
func ParseStyleType(s string) StyleType {
	switch s {
	case "character":
		return StyleCharacter
	case "table":
		return StyleTable
	case "numbering":
		return StyleNumbering
	default:
		return StyleParagraph
	}
}

// Well-known style ids.
const (
	StyleNormal               = "Normal"
	StyleDefaultParagraphFont = "DefaultParagraphFont"
	StyleTableNormal          = "TableNormal"
	StyleListParagraph        = "ListParagraph"
	StyleTitle                = "Title"
)

// HeadingStyleID returns the built-in style id for a heading level (1-9).
func HeadingStyleID(level int) string {
	return "Heading" + strconv.Itoa(level)
}

// Style is a named set of formatting overrides inheriting from BasedOn.
type Style struct {
	ID           string
	Name         string
	Type         StyleType
	BasedOn      string
	Default      bool // default style of its type
	HeadingLevel int  // 1-9, 0 if not a heading
	Para         ParaFormat
	Char         CharFormat
}

// StyleCatalogue holds the styles of a document.
//
// Styles are added with Add; Flatten then resolves inheritance once into an
// effective table. After Flatten the catalogue is only read.
type StyleCatalogue struct {
	order       []string
	styles      map[string]*Style
	defaultPara ParaFormat
	defaultChar CharFormat
	effective   map[string]Style
}

// NewStyleCatalogue creates an empty catalogue.
func NewStyleCatalogue() *StyleCatalogue {
	return &StyleCatalogue{
		styles: make(map[string]*Style),
	}
}

// DefaultStyleCatalogue returns the catalogue used for new documents:
// Normal, Title, Heading1-6, ListParagraph, DefaultParagraphFont and TableNormal.
func DefaultStyleCatalogue() *StyleCatalogue {
	c := NewStyleCatalogue()
	c.SetDocDefaults(ParaFormat{SpaceAfter: 8}, CharFormat{Font: "Calibri", Size: 11})

	c.Add(Style{ID: StyleNormal, Name: "Normal", Type: StyleParagraph, Default: true})
	c.Add(Style{ID: StyleDefaultParagraphFont, Name: "Default Paragraph Font", Type: StyleCharacter, Default: true})
	c.Add(Style{ID: StyleTableNormal, Name: "Normal Table", Type: StyleTable, Default: true})
	c.Add(Style{
		ID: StyleTitle, Name: "Title", Type: StyleParagraph, BasedOn: StyleNormal,
		Char: CharFormat{Size: 28},
	})

	sizes := []float64{16, 13, 12, 11, 11, 11}
	for i, size := range sizes {
		level := i + 1
		c.Add(Style{
			ID:           HeadingStyleID(level),
			Name:         "heading " + strconv.Itoa(level),
			Type:         StyleParagraph,
			BasedOn:      StyleNormal,
			HeadingLevel: level,
			Para:         ParaFormat{SpaceBefore: 12},
			Char:         CharFormat{Bold: ToggleOn, Size: size, Color: "2F5496"},
		})
	}
	c.Add(Style{
		ID: StyleListParagraph, Name: "List Paragraph", Type: StyleParagraph, BasedOn: StyleNormal,
		Para: ParaFormat{IndentLeft: 36},
	})

	c.Flatten()
	return c
}

// SetDocDefaults sets the document-wide default formatting under all styles.
func (c *StyleCatalogue) SetDocDefaults(para ParaFormat, char CharFormat) {
	c.defaultPara = para
	c.defaultChar = char
	c.effective = nil
}

// DocDefaults returns the document-wide default formatting.
func (c *StyleCatalogue) DocDefaults() (ParaFormat, CharFormat) {
	return c.defaultPara, c.defaultChar
}

// Add inserts or replaces a style.
func (c *StyleCatalogue) Add(s Style) {
	if s.ID == "" {
		return
	}
	if _, ok := c.styles[s.ID]; !ok {
		c.order = append(c.order, s.ID)
	}
	c.styles[s.ID] = &s
	c.effective = nil
}

// Style returns the style as defined, without inheritance applied.
func (c *StyleCatalogue) Style(id string) (Style, bool) {
	s, ok := c.styles[id]
	if !ok {
		return Style{}, false
	}
	return *s, true
}

// Styles returns the defined styles in insertion order.
func (c *StyleCatalogue) Styles() []Style {
	out := make([]Style, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.styles[id])
	}
	return out
}

// Len returns the number of styles.
func (c *StyleCatalogue) Len() int {
	return len(c.order)
}

// Flatten resolves inheritance into the effective table. A BasedOn that
// points at an unknown style is ignored; a cycle is cut at the style that
// closes it. Both are reported as warnings.
func (c *StyleCatalogue) Flatten() []Warning {
	var warnings []Warning
	seen := make(map[string]bool)
	c.effective = make(map[string]Style, len(c.styles))

	for _, id := range c.order {
		chain, ws := c.buildInheritanceChain(id)
		for _, w := range ws {
			if !seen[w.Message] {
				seen[w.Message] = true
				warnings = append(warnings, w)
			}
		}

		eff := *c.styles[id]
		eff.Para = ParaFormat{}
		eff.Char = CharFormat{}
		eff.HeadingLevel = 0
		for _, sid := range chain {
			def := c.styles[sid]
			eff.Para = eff.Para.Merge(def.Para)
			eff.Char = eff.Char.Merge(def.Char)
			if def.HeadingLevel != 0 {
				eff.HeadingLevel = def.HeadingLevel
			}
		}
		c.effective[id] = eff
	}
	return warnings
}

// buildInheritanceChain returns style ids from base to derived.
func (c *StyleCatalogue) buildInheritanceChain(id string) ([]string, []Warning) {
	var chain []string
	var warnings []Warning
	visited := make(map[string]bool)

	current := id
	for current != "" {
		if visited[current] {
			// Only report the cycle once, from the style that closes it.
			if current == id {
				warnings = append(warnings, Warnf(WarnStyleCycle, "styles", "style %q inherits from itself; inheritance cut", id))
			}
			break
		}
		def, ok := c.styles[current]
		if !ok {
			warnings = append(warnings, Warnf(WarnStyleFallback, "styles", "style %q is based on unknown style %q", chain[0], current))
			break
		}
		visited[current] = true
		chain = append([]string{current}, chain...)
		current = def.BasedOn
	}
	return chain, warnings
}

// Effective returns the flattened style. It flattens lazily when Flatten has
// not been called yet.
func (c *StyleCatalogue) Effective(id string) (Style, bool) {
	if c.effective == nil {
		c.Flatten()
	}
	s, ok := c.effective[id]
	return s, ok
}

// DefaultStyleID returns the default style of a type: the style marked
// default, else Normal for paragraphs.
func (c *StyleCatalogue) DefaultStyleID(t StyleType) string {
	for _, id := range c.order {
		if s := c.styles[id]; s.Type == t && s.Default {
			return id
		}
	}
	if t == StyleParagraph {
		if _, ok := c.styles[StyleNormal]; ok {
			return StyleNormal
		}
	}
	return ""
}

// Resolve returns the effective style for id, falling back to the default
// style of the type. ok is false when the fallback was used for a non-empty id.
func (c *StyleCatalogue) Resolve(id string, t StyleType) (Style, bool) {
	if id != "" {
		if s, found := c.Effective(id); found {
			return s, true
		}
	}
	def, _ := c.Effective(c.DefaultStyleID(t))
	return def, id == ""
}

// FindByName returns the id of the style with the given display name,
// compared case-insensitively.
func (c *StyleCatalogue) FindByName(name string) (string, bool) {
	for _, id := range c.order {
		if strings.EqualFold(c.styles[id].Name, name) {
			return id, true
		}
	}
	return "", false
}

// HeadingStyle returns the id of the style used for a heading level, if the
// catalogue has one.
func (c *StyleCatalogue) HeadingStyle(level int) (string, bool) {
	id := HeadingStyleID(level)
	if _, ok := c.styles[id]; ok {
		return id, true
	}
	for _, sid := range c.order {
		if s, _ := c.Effective(sid); s.Type == StyleParagraph && s.HeadingLevel == level {
			return sid, true
		}
	}
	return "", false
}

// ParagraphFormat returns the effective paragraph formatting of p: document
// defaults, then its style chain, then direct formatting.
func (c *StyleCatalogue) ParagraphFormat(p *Paragraph) ParaFormat {
	s, _ := c.Resolve(p.StyleID, StyleParagraph)
	return c.defaultPara.Merge(s.Para).Merge(p.Format)
}

// BaseCharFormat returns the character formatting a paragraph style gives
// to its text before run-level formatting.
func (c *StyleCatalogue) BaseCharFormat(paraStyle string) CharFormat {
	s, _ := c.Resolve(paraStyle, StyleParagraph)
	return c.defaultChar.Merge(s.Char)
}

// RunFormat returns the effective character formatting of r inside a
// paragraph with style paraStyle.
func (c *StyleCatalogue) RunFormat(paraStyle string, r Run) CharFormat {
	f := c.BaseCharFormat(paraStyle)
	if r.StyleID != "" {
		if s, ok := c.Effective(r.StyleID); ok {
			f = f.Merge(s.Char)
		}
	}
	return f.Merge(r.Format)
}

// HeadingLevel returns the heading level of a paragraph style, 0 if none.
func (c *StyleCatalogue) HeadingLevel(id string) int {
	s, ok := c.Effective(id)
	if !ok {
		return 0
	}
	return s.HeadingLevel
}
