package model

import (
	"strconv"
	"strings"
	"time"
)

// Document represents a complete word-processing document.
type Document struct {
	Blocks   []Block
	Styles   *StyleCatalogue
	Section  *SectionProperties // properties of the final section
	Media    []*MediaAsset
	Metadata Metadata
}

// Metadata contains document-level information. It travels alongside the
// block tree but is not part of it.
type Metadata struct {
	Title       string
	Subject     string
	Creator     string
	Description string
	Keywords    string
	Created     time.Time
	Modified    time.Time
}

// IsZero reports whether no metadata field is set.
func (m Metadata) IsZero() bool {
	return m.Title == "" && m.Subject == "" && m.Creator == "" && m.Description == "" &&
		m.Keywords == "" && m.Created.IsZero() && m.Modified.IsZero()
}

// NewDocument creates a new empty document
func NewDocument() *Document {
	return &Document{
		Blocks: make([]Block, 0),
	}
}

// Append adds blocks to the end of the body.
func (d *Document) Append(blocks ...Block) {
	d.Blocks = append(d.Blocks, blocks...)
}

// AddMedia registers an asset and returns its id. An asset without an id is
// given the next free "imageN" id.
func (d *Document) AddMedia(a *MediaAsset) string {
	if a.ID == "" {
		a.ID = "image" + strconv.Itoa(len(d.Media)+1)
		for d.hasMedia(a.ID) {
			a.ID += "_"
		}
	}
	d.Media = append(d.Media, a)
	return a.ID
}

func (d *Document) hasMedia(id string) bool {
	_, ok := d.MediaByID(id)
	return ok
}

// MediaByID looks up a media asset.
func (d *Document) MediaByID(id string) (*MediaAsset, bool) {
	for _, m := range d.Media {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// IsEmpty reports whether the body holds no text, images, tables or opaque content.
func (d *Document) IsEmpty() bool {
	empty := true
	d.Walk(func(b Block) bool {
		switch v := b.(type) {
		case *Paragraph:
			if !v.IsEmpty() {
				empty = false
			}
		case *Table, *Opaque:
			empty = false
		}
		return empty
	})
	return empty
}

// Walk visits every block in document order, descending into table cells.
// Returning false from fn stops the walk.
func (d *Document) Walk(fn func(Block) bool) {
	walkBlocks(d.Blocks, fn)
}

func walkBlocks(blocks []Block, fn func(Block) bool) bool {
	for _, b := range blocks {
		if !fn(b) {
			return false
		}
		if t, ok := b.(*Table); ok {
			for _, row := range t.Rows {
				for _, cell := range row.Cells {
					if !walkBlocks(cell.Blocks, fn) {
						return false
					}
				}
			}
		}
	}
	return true
}

// PlainText returns the text of the body, one line per paragraph.
func (d *Document) PlainText() string {
	return BlocksText(d.Blocks)
}

// BlocksText joins the text of blocks with newlines.
func BlocksText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text())
	}
	return strings.Join(parts, "\n")
}

// HeaderFooterSection returns the section that carries the document's header
// and footer: the final section, or the first section break that has one.
func (d *Document) HeaderFooterSection() *SectionProperties {
	if d.Section != nil && (d.Section.Header != nil || d.Section.Footer != nil) {
		return d.Section
	}
	for _, b := range d.Blocks {
		if sb, ok := b.(*SectionBreak); ok && (sb.Section.Header != nil || sb.Section.Footer != nil) {
			return &sb.Section
		}
	}
	return d.Section
}
