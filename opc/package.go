// Package opc reads and writes Open Packaging Conventions containers: the ZIP
// archives that hold the XML parts, relationships and media of an OOXML document.
//
// A Package is an arena of parts keyed by part name. Relationships and the
// content-types table are themselves parts and are parsed on demand, so an
// unmodified package serializes back to the same bytes it was built from.
package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rybkakrzy/importer-sub001/internal/docerr"
	"github.com/rybkakrzy/importer-sub001/internal/limits"
)

// Well-known part names.
const (
	ContentTypesPart = "[Content_Types].xml"
	RootRelsPart     = "_rels/.rels"
)

// Package is an in-memory OOXML package.
type Package struct {
	order []string
	parts map[string][]byte
}

// New returns an empty package.
func New() *Package {
	return &Package{parts: make(map[string][]byte)}
}

// Open parses a ZIP archive into a Package.
//
// The archive must contain [Content_Types].xml and _rels/.rels. Part order
// follows the archive's central directory.
func Open(data []byte, lim limits.Limits) (*Package, error) {
	const op = "opc.Open"
	lim = lim.Normalize()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, docerr.New(docerr.ErrMalformedContainer, op, err)
	}

	if len(zr.File) > lim.MaxParts {
		return nil, docerr.Newf(docerr.ErrResourceLimitExceeded, op, "%d entries exceed %d", len(zr.File), lim.MaxParts)
	}

	p := New()
	var total int64
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		name := normalizeName(f.Name)
		if _, dup := p.parts[name]; dup {
			return nil, docerr.Newf(docerr.ErrMalformedContainer, op, "duplicate entry %q", name)
		}

		if f.UncompressedSize64 > uint64(lim.MaxPartSize) {
			return nil, docerr.Newf(docerr.ErrResourceLimitExceeded, op, "part %q is %d bytes", name, f.UncompressedSize64)
		}
		content, err := readEntry(f, lim.MaxPartSize)
		if err != nil {
			return nil, docerr.New(docerr.ErrMalformedContainer, op, err).InPart(name)
		}
		total += int64(len(content))
		if total > lim.MaxTotalSize {
			return nil, docerr.Newf(docerr.ErrResourceLimitExceeded, op, "package exceeds %d bytes", lim.MaxTotalSize)
		}

		p.order = append(p.order, name)
		p.parts[name] = content
	}

	for _, required := range []string{ContentTypesPart, RootRelsPart} {
		if !p.HasPart(required) {
			return nil, docerr.Newf(docerr.ErrMalformedContainer, op, "missing required part %s", required)
		}
	}

	return p, nil
}

// readEntry decompresses one archive entry, refusing to read past max bytes
// even when the declared size lies.
func readEntry(f *zip.File, max int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, docerr.Newf(docerr.ErrResourceLimitExceeded, "opc.Open", "part %q exceeds %d bytes", f.Name, max)
	}
	return data, nil
}

func normalizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.TrimPrefix(name, "/")
}

// HasPart reports whether the named part exists.
func (p *Package) HasPart(name string) bool {
	_, ok := p.parts[normalizeName(name)]
	return ok
}

// Part returns the bytes of the named part. The returned slice must not be modified.
func (p *Package) Part(name string) ([]byte, bool) {
	data, ok := p.parts[normalizeName(name)]
	return data, ok
}

// SetPart adds or replaces a part. New parts are appended to the package order.
func (p *Package) SetPart(name string, data []byte) {
	name = normalizeName(name)
	if _, ok := p.parts[name]; !ok {
		p.order = append(p.order, name)
	}
	p.parts[name] = append([]byte(nil), data...)
}

// DeletePart removes a part if present.
func (p *Package) DeletePart(name string) {
	name = normalizeName(name)
	if _, ok := p.parts[name]; !ok {
		return
	}
	delete(p.parts, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// PartNames returns part names in package order.
func (p *Package) PartNames() []string {
	return append([]string(nil), p.order...)
}

// Len returns the number of parts.
func (p *Package) Len() int {
	return len(p.order)
}

// Clone returns a deep copy of the package.
func (p *Package) Clone() *Package {
	c := &Package{
		order: append([]string(nil), p.order...),
		parts: make(map[string][]byte, len(p.parts)),
	}
	for name, data := range p.parts {
		c.parts[name] = append([]byte(nil), data...)
	}
	return c
}

// dosEpoch is 1980-01-01 00:00 in MS-DOS date/time encoding.
const (
	dosEpochDate = 1<<5 | 1
	dosEpochTime = 0
)

// Serialize writes the package as a ZIP archive.
//
// The output is deterministic: [Content_Types].xml comes first, the remaining
// parts follow in package order, every entry is deflated and stamped with the
// same DOS timestamp.
func (p *Package) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, name := range p.serializationOrder() {
		hdr := &zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		hdr.ModifiedDate = dosEpochDate
		hdr.ModifiedTime = dosEpochTime

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("creating entry %s: %w", name, err)
		}
		if _, err := w.Write(p.parts[name]); err != nil {
			return nil, fmt.Errorf("writing entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *Package) serializationOrder() []string {
	names := make([]string, 0, len(p.order))
	if _, ok := p.parts[ContentTypesPart]; ok {
		names = append(names, ContentTypesPart)
	}
	for _, n := range p.order {
		if n != ContentTypesPart {
			names = append(names, n)
		}
	}
	return names
}

// MainDocument returns the part targeted by the root officeDocument relationship.
func (p *Package) MainDocument() (string, error) {
	const op = "opc.MainDocument"

	rels, err := p.Relationships("")
	if err != nil {
		return "", err
	}
	for _, r := range rels.ByType(RelTypeOfficeDocument) {
		target := ResolveTarget("", r.Target)
		if !p.HasPart(target) {
			return "", docerr.Newf(docerr.ErrMalformedContainer, op, "main document %s not found", target)
		}
		return target, nil
	}
	return "", docerr.Newf(docerr.ErrMalformedContainer, op, "no officeDocument relationship")
}

// Validate checks that the main document exists and that every internal
// relationship target resolves to a part.
func (p *Package) Validate() error {
	const op = "opc.Validate"

	if _, err := p.MainDocument(); err != nil {
		return err
	}

	names := p.PartNames()
	sort.Strings(names)
	for _, name := range names {
		source, ok := SourceOfRelsPart(name)
		if !ok {
			continue
		}
		rels, err := p.Relationships(source)
		if err != nil {
			return err
		}
		for _, r := range rels.All() {
			if r.External() {
				continue
			}
			target := ResolveTarget(source, r.Target)
			if !p.HasPart(target) {
				return docerr.Newf(docerr.ErrMalformedContainer, op, "relationship %s in %s targets missing part %s", r.ID, name, target)
			}
		}
	}
	return nil
}
