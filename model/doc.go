// Package model provides the format-neutral representation of a
// word-processing document used as the pivot between DOCX and HTML.
//
// # Document Structure
//
// A [Document] is an ordered list of [Block] values plus the style catalogue,
// the final section's properties, the media it references and its metadata:
//
//	doc := model.NewDocument()
//	doc.Metadata.Title = "Report"
//	doc.Append(model.NewParagraph("Normal", "Hello"))
//
// The concrete block types are:
//
//   - [Paragraph] - runs of formatted text, or a single image
//   - [Table] - rows of cells, each cell holding blocks
//   - [SectionBreak] - the end of a section and its page setup
//   - [Opaque] - an element kept verbatim so it survives a round trip
//
// # Styles
//
// A [StyleCatalogue] holds named styles that inherit from one another.
// [StyleCatalogue.Flatten] resolves the inheritance once into an effective
// property table; after that the catalogue is read-only and safe for
// concurrent use.
//
// # Warnings
//
// Conversions that succeed with losses return [Warning] values next to the
// result instead of failing.
package model
