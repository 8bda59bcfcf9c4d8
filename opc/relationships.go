package opc

import (
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/rybkakrzy/importer-sub001/internal/docerr"
)

// Relationship types used by WordprocessingML packages.
const (
	RelTypeOfficeDocument   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeCoreProperties   = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	RelTypeExtendedProps    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	RelTypeStyles           = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	RelTypeNumbering        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	RelTypeImage            = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelTypeHyperlink        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	RelTypeHeader           = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	RelTypeFooter           = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	RelTypeSignatureOrigin  = "http://schemas.openxmlformats.org/package/2006/relationships/digital-signature/origin"
	RelTypeSignature        = "http://schemas.openxmlformats.org/package/2006/relationships/digital-signature/signature"
	relationshipsNamespace  = "http://schemas.openxmlformats.org/package/2006/relationships"
	targetModeExternal      = "External"
	relationshipsPartSuffix = ".rels"
)

// Relationship is a typed reference from a source part to a target part or URI.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// External reports whether the target is outside the package.
func (r Relationship) External() bool {
	return r.TargetMode == targetModeExternal
}

// Relationships is the parsed content of one .rels part.
type Relationships struct {
	source string
	items  []Relationship
}

type relationshipsXML struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Xmlns         string         `xml:"xmlns,attr"`
	Relationships []Relationship `xml:"Relationship"`
}

// NewRelationships returns an empty relationship set for source.
func NewRelationships(source string) *Relationships {
	return &Relationships{source: normalizeName(source)}
}

// Source returns the source part name ("" for the package root).
func (r *Relationships) Source() string {
	return r.source
}

// All returns the relationships in document order.
func (r *Relationships) All() []Relationship {
	return append([]Relationship(nil), r.items...)
}

// Len returns the number of relationships.
func (r *Relationships) Len() int {
	return len(r.items)
}

// ByID looks up a relationship by id.
func (r *Relationships) ByID(id string) (Relationship, bool) {
	for _, rel := range r.items {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

// ByType returns the relationships of the given type, in order.
func (r *Relationships) ByType(typ string) []Relationship {
	var out []Relationship
	for _, rel := range r.items {
		if rel.Type == typ {
			out = append(out, rel)
		}
	}
	return out
}

// Add appends a relationship with the next free rIdN id and returns the id.
func (r *Relationships) Add(typ, target string, external bool) string {
	id := r.nextID()
	rel := Relationship{ID: id, Type: typ, Target: target}
	if external {
		rel.TargetMode = targetModeExternal
	}
	r.items = append(r.items, rel)
	return id
}

func (r *Relationships) nextID() string {
	max := 0
	for _, rel := range r.items {
		if n, ok := strings.CutPrefix(rel.ID, "rId"); ok {
			if v, err := strconv.Atoi(n); err == nil && v > max {
				max = v
			}
		}
	}
	return "rId" + strconv.Itoa(max+1)
}

// Marshal renders the relationships as a .rels part.
func (r *Relationships) Marshal() ([]byte, error) {
	doc := relationshipsXML{Xmlns: relationshipsNamespace, Relationships: r.items}
	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling relationships: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// ParseRelationships parses the content of a .rels part.
func ParseRelationships(source string, data []byte) (*Relationships, error) {
	var doc relationshipsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &Relationships{source: normalizeName(source), items: doc.Relationships}, nil
}

// Relationships returns the relationships whose source is the given part
// ("" for the package root). A missing .rels part yields an empty set.
func (p *Package) Relationships(source string) (*Relationships, error) {
	name := RelsPartName(source)
	data, ok := p.Part(name)
	if !ok {
		return NewRelationships(source), nil
	}
	rels, err := ParseRelationships(source, data)
	if err != nil {
		return nil, docerr.New(docerr.ErrMalformedContainer, "opc.Relationships", err).InPart(name)
	}
	return rels, nil
}

// SetRelationships writes rels back into the package.
func (p *Package) SetRelationships(rels *Relationships) error {
	data, err := rels.Marshal()
	if err != nil {
		return err
	}
	p.SetPart(RelsPartName(rels.source), data)
	return nil
}

// RelsPartName returns the .rels part holding the relationships of source.
//
//	RelsPartName("")                  == "_rels/.rels"
//	RelsPartName("word/document.xml") == "word/_rels/document.xml.rels"
func RelsPartName(source string) string {
	source = normalizeName(source)
	if source == "" {
		return RootRelsPart
	}
	dir, file := path.Split(source)
	return dir + "_rels/" + file + relationshipsPartSuffix
}

// SourceOfRelsPart is the inverse of RelsPartName.
func SourceOfRelsPart(name string) (string, bool) {
	name = normalizeName(name)
	if name == RootRelsPart {
		return "", true
	}
	if !strings.HasSuffix(name, relationshipsPartSuffix) {
		return "", false
	}
	dir, file := path.Split(name)
	if !strings.HasSuffix(dir, "_rels/") {
		return "", false
	}
	return strings.TrimSuffix(dir, "_rels/") + strings.TrimSuffix(file, relationshipsPartSuffix), true
}

// ResolveTarget resolves a relationship target against its source part and
// returns a package part name.
func ResolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return normalizeName(path.Clean(target))
	}
	base := path.Dir(normalizeName(source))
	if source == "" {
		base = ""
	}
	return normalizeName(path.Clean(path.Join(base, target)))
}

// RelativeTarget returns the target string that a relationship from source
// should carry to reach the part named target.
func RelativeTarget(source, target string) string {
	source = normalizeName(source)
	target = normalizeName(target)
	dir := path.Dir(source)
	if source == "" || dir == "." {
		return target
	}
	if rest, ok := strings.CutPrefix(target, dir+"/"); ok {
		return rest
	}
	return "/" + target
}
