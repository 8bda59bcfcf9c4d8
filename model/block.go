package model

import "strings"

// BlockType represents the type of body block
type BlockType int

const (
	BlockTypeUnknown BlockType = iota
	BlockTypeParagraph
	BlockTypeTable
	BlockTypeSectionBreak
	BlockTypeOpaque
)

func (bt BlockType) String() string {
	switch bt {
	case BlockTypeParagraph:
		return "Paragraph"
	case BlockTypeTable:
		return "Table"
	case BlockTypeSectionBreak:
		return "SectionBreak"
	case BlockTypeOpaque:
		return "Opaque"
	default:
		return "Unknown"
	}
}

// Block is the interface for all body blocks
type Block interface {
	Type() BlockType
	Text() string
}

// Paragraph is a sequence of runs, or a single image.
type Paragraph struct {
	StyleID string
	Format  ParaFormat
	Runs    []Run
	Image   *ImageRun
	List    *ListInfo
}

// NewParagraph creates a paragraph holding one unformatted run.
func NewParagraph(styleID, text string) *Paragraph {
	p := &Paragraph{StyleID: styleID}
	if text != "" {
		p.Runs = []Run{{Text: text}}
	}
	return p
}

// NewImageParagraph creates a paragraph that holds only an image.
func NewImageParagraph(img ImageRun) *Paragraph {
	return &Paragraph{Image: &img}
}

func (p *Paragraph) Type() BlockType { return BlockTypeParagraph }

func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// IsEmpty reports whether the paragraph has neither text nor an image.
func (p *Paragraph) IsEmpty() bool {
	if p.Image != nil {
		return false
	}
	for _, r := range p.Runs {
		if r.Text != "" {
			return false
		}
	}
	return true
}

// AddRun appends a run, merging it into the previous one when both carry
// the same formatting.
func (p *Paragraph) AddRun(r Run) {
	if r.Text == "" {
		return
	}
	if n := len(p.Runs); n > 0 && p.Runs[n-1].StyleID == r.StyleID && p.Runs[n-1].Format == r.Format {
		p.Runs[n-1].Text += r.Text
		return
	}
	p.Runs = append(p.Runs, r)
}

// Run is a span of text with uniform character formatting. Tabs are stored
// as '\t' and line breaks as '\n'.
type Run struct {
	Text    string
	StyleID string // character style
	Format  CharFormat
}

// ImageRun references a media asset by id. Width and Height are the display
// size in pixels at 96 DPI; zero means the asset's natural size.
type ImageRun struct {
	AssetID string
	Width   int
	Height  int
	AltText string
}

// ListInfo marks a paragraph as a list item.
type ListInfo struct {
	Ordered bool
	Level   int    // 0-based nesting level
	Marker  string // rendered marker, e.g. "•" or "3."
}

// Opaque is an element the model does not represent but that is safe to
// write back unchanged.
type Opaque struct {
	Name        string // qualified element name, e.g. "w:customXml"
	XML         string
	TextContent string
}

func (o *Opaque) Type() BlockType { return BlockTypeOpaque }
func (o *Opaque) Text() string    { return o.TextContent }

// SectionBreak ends a section; Section describes the section it ends.
type SectionBreak struct {
	Section SectionProperties
}

func (s *SectionBreak) Type() BlockType { return BlockTypeSectionBreak }
func (s *SectionBreak) Text() string    { return "" }
