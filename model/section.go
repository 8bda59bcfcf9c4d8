package model

// Orientation represents page orientation
type Orientation int

const (
	OrientationPortrait Orientation = iota
	OrientationLandscape
)

func (o Orientation) String() string {
	if o == OrientationLandscape {
		return "landscape"
	}
	return "portrait"
}

// PageSetup describes page size and margins in points.
type PageSetup struct {
	Width        float64
	Height       float64
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64
	MarginHeader float64
	MarginFooter float64
	Orientation  Orientation
}

// DefaultPageSetup returns an A4 portrait page with 2.5 cm margins.
func DefaultPageSetup() PageSetup {
	return PageSetup{
		Width:        595.3,
		Height:       841.9,
		MarginTop:    70.85,
		MarginRight:  70.85,
		MarginBottom: 70.85,
		MarginLeft:   70.85,
		MarginHeader: 35.4,
		MarginFooter: 35.4,
	}
}

// SectionProperties describes one section of the document.
type SectionProperties struct {
	Page   PageSetup
	Header *HeaderFooter
	Footer *HeaderFooter
}

// HeaderFooter holds the content of a header or footer.
type HeaderFooter struct {
	Blocks []Block
}

// Text returns the header or footer text.
func (h *HeaderFooter) Text() string {
	if h == nil {
		return ""
	}
	return BlocksText(h.Blocks)
}
