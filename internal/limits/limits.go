// Package limits holds the resource ceilings applied while parsing untrusted
// packages and HTML.
package limits

import "github.com/rybkakrzy/importer-sub001/internal/docerr"

// Limits bounds memory and recursion for a single engine call.
// A zero field means "use the default".
type Limits struct {
	MaxParts      int   // parts in a package
	MaxPartSize   int64 // uncompressed bytes of one part
	MaxTotalSize  int64 // uncompressed bytes of the whole package
	MaxDepth      int   // nesting depth of tables / HTML elements
	MaxBlocks     int   // blocks in one document
	MaxReferences int   // manifest references in one signature
}

// Default returns the built-in ceilings.
func Default() Limits {
	return Limits{
		MaxParts:      2000,
		MaxPartSize:   64 << 20,
		MaxTotalSize:  256 << 20,
		MaxDepth:      64,
		MaxBlocks:     200000,
		MaxReferences: 4000,
	}
}

// Normalize fills zero fields from Default.
func (l Limits) Normalize() Limits {
	d := Default()
	if l.MaxParts <= 0 {
		l.MaxParts = d.MaxParts
	}
	if l.MaxPartSize <= 0 {
		l.MaxPartSize = d.MaxPartSize
	}
	if l.MaxTotalSize <= 0 {
		l.MaxTotalSize = d.MaxTotalSize
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = d.MaxDepth
	}
	if l.MaxBlocks <= 0 {
		l.MaxBlocks = d.MaxBlocks
	}
	if l.MaxReferences <= 0 {
		l.MaxReferences = d.MaxReferences
	}
	return l
}

// CheckDepth returns ErrResourceLimitExceeded when depth is above MaxDepth.
func (l Limits) CheckDepth(op string, depth int) error {
	if depth > l.MaxDepth {
		return docerr.Newf(docerr.ErrResourceLimitExceeded, op, "nesting depth %d exceeds %d", depth, l.MaxDepth)
	}
	return nil
}

// CheckBlocks returns ErrResourceLimitExceeded when n is above MaxBlocks.
func (l Limits) CheckBlocks(op string, n int) error {
	if n > l.MaxBlocks {
		return docerr.Newf(docerr.ErrResourceLimitExceeded, op, "block count %d exceeds %d", n, l.MaxBlocks)
	}
	return nil
}
