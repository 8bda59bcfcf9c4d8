package model

import "strings"

// Toggle is a tri-state boolean property: unset properties inherit.
type Toggle int8

const (
	ToggleUnset Toggle = iota
	ToggleOn
	ToggleOff
)

// Bool converts b to a set Toggle.
func Bool(b bool) Toggle {
	if b {
		return ToggleOn
	}
	return ToggleOff
}

// IsSet reports whether the toggle carries a value.
func (t Toggle) IsSet() bool { return t != ToggleUnset }

// On reports whether the toggle is explicitly on.
func (t Toggle) On() bool { return t == ToggleOn }

func (t Toggle) merge(over Toggle) Toggle {
	if over.IsSet() {
		return over
	}
	return t
}

// Alignment represents paragraph alignment
type Alignment int

const (
	AlignDefault Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
	AlignJustify
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return ""
	}
}

// ParseAlignment accepts CSS and WordprocessingML alignment names.
func ParseAlignment(s string) Alignment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "start":
		return AlignLeft
	case "center", "centre":
		return AlignCenter
	case "right", "end":
		return AlignRight
	case "justify", "both", "distribute":
		return AlignJustify
	default:
		return AlignDefault
	}
}

// CharFormat holds character formatting. Zero values inherit.
type CharFormat struct {
	Bold      Toggle
	Italic    Toggle
	Underline Toggle
	Strike    Toggle
	Color     string  // "RRGGBB", upper case
	Size      float64 // points
	Font      string
}

// IsZero reports whether no property is set.
func (c CharFormat) IsZero() bool {
	return c == CharFormat{}
}

// Merge returns c with every property set in over applied on top.
func (c CharFormat) Merge(over CharFormat) CharFormat {
	c.Bold = c.Bold.merge(over.Bold)
	c.Italic = c.Italic.merge(over.Italic)
	c.Underline = c.Underline.merge(over.Underline)
	c.Strike = c.Strike.merge(over.Strike)
	if over.Color != "" {
		c.Color = over.Color
	}
	if over.Size != 0 {
		c.Size = over.Size
	}
	if over.Font != "" {
		c.Font = over.Font
	}
	return c
}

// Diff returns the properties of c whose effective value differs from base.
// Toggles are compared by On(), so an unset toggle equals ToggleOff.
func (c CharFormat) Diff(base CharFormat) CharFormat {
	var d CharFormat
	if c.Bold.On() != base.Bold.On() {
		d.Bold = Bool(c.Bold.On())
	}
	if c.Italic.On() != base.Italic.On() {
		d.Italic = Bool(c.Italic.On())
	}
	if c.Underline.On() != base.Underline.On() {
		d.Underline = Bool(c.Underline.On())
	}
	if c.Strike.On() != base.Strike.On() {
		d.Strike = Bool(c.Strike.On())
	}
	if c.Color != "" && !strings.EqualFold(c.Color, base.Color) {
		d.Color = c.Color
	}
	if c.Size != 0 && c.Size != base.Size {
		d.Size = c.Size
	}
	if c.Font != "" && !strings.EqualFold(c.Font, base.Font) {
		d.Font = c.Font
	}
	return d
}

// ParaFormat holds paragraph formatting in points. Zero values inherit.
// A negative FirstLine is a hanging indent.
type ParaFormat struct {
	Alignment   Alignment
	IndentLeft  float64
	IndentRight float64
	FirstLine   float64
	SpaceBefore float64
	SpaceAfter  float64
}

// IsZero reports whether no property is set.
func (p ParaFormat) IsZero() bool {
	return p == ParaFormat{}
}

// Merge returns p with every property set in over applied on top.
func (p ParaFormat) Merge(over ParaFormat) ParaFormat {
	if over.Alignment != AlignDefault {
		p.Alignment = over.Alignment
	}
	if over.IndentLeft != 0 {
		p.IndentLeft = over.IndentLeft
	}
	if over.IndentRight != 0 {
		p.IndentRight = over.IndentRight
	}
	if over.FirstLine != 0 {
		p.FirstLine = over.FirstLine
	}
	if over.SpaceBefore != 0 {
		p.SpaceBefore = over.SpaceBefore
	}
	if over.SpaceAfter != 0 {
		p.SpaceAfter = over.SpaceAfter
	}
	return p
}

// NormalizeColor converts "#abc", "#AABBCC" or "aabbcc" into "AABBCC".
// It returns "" for anything else, including "auto".
func NormalizeColor(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return ""
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return ""
		}
	}
	return strings.ToUpper(s)
}
