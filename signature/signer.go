package signature

import (
	"crypto"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	dsig "github.com/russellhaering/goxmldsig"
	"go.uber.org/zap"

	"github.com/rybkakrzy/importer-sub001/internal/docerr"
	"github.com/rybkakrzy/importer-sub001/opc"
)

const (
	signaturesDir     = "_xmlsignatures/"
	defaultOriginPart = signaturesDir + "origin.sigs"
)

// Signer adds XML digital signatures to packages.
type Signer struct {
	opts options
}

// NewSigner returns a Signer configured by opts.
func NewSigner(opts ...Option) *Signer {
	return &Signer{opts: buildOptions(opts)}
}

// Sign returns a copy of pkg carrying one more signature. pkg itself is not
// modified, and signatures already present are left as they are.
func (s *Signer) Sign(pkg *opc.Package, req Request) (*opc.Package, error) {
	const op = "signature.Sign"

	creds, err := decodeCredentials(req.Certificate, req.Password)
	if err != nil {
		return nil, err
	}
	if _, err := pkg.MainDocument(); err != nil {
		return nil, err
	}

	out := pkg.Clone()
	ct, err := out.ContentTypes()
	if err != nil {
		return nil, err
	}
	origin, err := ensureOrigin(out, ct)
	if err != nil {
		return nil, err
	}

	manifest, err := s.buildManifest(out, ct)
	if err != nil {
		return nil, err
	}

	d := &descriptor{
		SetupID:     "{" + strings.ToUpper(uuid.NewString()) + "}",
		SignerName:  req.SignerName,
		SignerTitle: req.SignerTitle,
		SignerEmail: req.SignerEmail,
		Reason:      req.Reason,
		SigningTime: s.opts.clock.Now(),
		Method:      creds.method,
		Chain:       creds.chain,
		Manifest:    manifest,
	}
	doc := d.build()
	if err := signDocument(doc, creds.key); err != nil {
		return nil, docerr.New(docerr.ErrInvalidCredentials, op, err)
	}
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("%s: writing signature: %w", op, err)
	}

	part := nextSignaturePart(out)
	out.SetPart(part, data)
	ct.SetOverride(part, opc.ContentTypeSignatureXML)
	if err := out.SetContentTypes(ct); err != nil {
		return nil, err
	}
	rels, err := out.Relationships(origin)
	if err != nil {
		return nil, err
	}
	rels.Add(opc.RelTypeSignature, opc.RelativeTarget(origin, part), false)
	if err := out.SetRelationships(rels); err != nil {
		return nil, err
	}

	s.opts.logger.Debug("package signed",
		zap.String("part", part),
		zap.String("signer", req.SignerName),
		zap.String("subject", creds.leaf.Subject.String()),
		zap.Int("references", len(manifest)))
	return out, nil
}

// ensureOrigin returns the signature origin part, creating it and its root
// relationship when the package has none.
func ensureOrigin(pkg *opc.Package, ct *opc.ContentTypes) (string, error) {
	rels, err := pkg.Relationships("")
	if err != nil {
		return "", err
	}
	if existing := rels.ByType(opc.RelTypeSignatureOrigin); len(existing) > 0 {
		name := opc.ResolveTarget("", existing[0].Target)
		if !pkg.HasPart(name) {
			pkg.SetPart(name, []byte{})
		}
		if ct.Lookup(name) == "" {
			ct.SetOverride(name, opc.ContentTypeSignatureOrig)
		}
		return name, nil
	}

	pkg.SetPart(defaultOriginPart, []byte{})
	ct.AddDefault("sigs", opc.ContentTypeSignatureOrig)
	rels.Add(opc.RelTypeSignatureOrigin, defaultOriginPart, false)
	if err := pkg.SetRelationships(rels); err != nil {
		return "", err
	}
	return defaultOriginPart, nil
}

// excluded reports whether a part stays outside the manifest: the
// content-types table changes with every signature, and signature parts
// cannot cover themselves.
func excluded(ct *opc.ContentTypes, name, contentType string) bool {
	switch {
	case name == opc.ContentTypesPart:
		return true
	case strings.HasPrefix(name, signaturesDir):
		return true
	case contentType == opc.ContentTypeSignatureXML || contentType == opc.ContentTypeSignatureOrig:
		return true
	}
	if source, ok := opc.SourceOfRelsPart(name); ok && source != "" {
		return strings.HasPrefix(source, signaturesDir) || ct.Lookup(source) == opc.ContentTypeSignatureOrig
	}
	return false
}

func (s *Signer) buildManifest(pkg *opc.Package, ct *opc.ContentTypes) ([]manifestEntry, error) {
	const op = "signature.buildManifest"

	var entries []manifestEntry
	for _, name := range pkg.PartNames() {
		contentType := ct.Lookup(name)
		if excluded(ct, name, contentType) {
			continue
		}
		data, _ := pkg.Part(name)
		entry := manifestEntry{URI: partURI(name, contentType)}
		if isXMLPart(name, contentType) {
			if canonical, err := canonicalPart(data); err == nil {
				entry.Canonical = true
				data = canonical
			} else {
				s.opts.logger.Debug("digesting raw bytes of unparsable XML part",
					zap.String("part", name), zap.Error(err))
			}
		}
		entry.Digest = sha256Digest(data)
		entries = append(entries, entry)
	}
	if len(entries) > s.opts.limits.MaxReferences {
		return nil, docerr.Newf(docerr.ErrResourceLimitExceeded, op,
			"%d parts exceed %d signature references", len(entries), s.opts.limits.MaxReferences)
	}
	return entries, nil
}

// signDocument fills in the reference digests of SignedInfo and signs it.
func signDocument(doc *etree.Document, key crypto.Signer) error {
	root := doc.Root()
	ids, err := indexIDs(root)
	if err != nil {
		return err
	}
	si := root.SelectElement(dsig.SignedInfoTag)
	for _, ref := range si.SelectElements(dsig.ReferenceTag) {
		target := ids[strings.TrimPrefix(ref.SelectAttrValue(dsig.URIAttr, ""), "#")]
		if target == nil {
			return fmt.Errorf("reference %s has no target", ref.SelectAttrValue(dsig.URIAttr, ""))
		}
		canonical, err := canonicalElement(target)
		if err != nil {
			return err
		}
		ref.SelectElement(dsig.DigestValueTag).SetText(sha256Digest(canonical))
	}

	canonical, err := canonicalElement(si)
	if err != nil {
		return err
	}
	sig, err := key.Sign(rand.Reader, signedInfoDigest(canonical), crypto.SHA256)
	if err != nil {
		return err
	}
	root.SelectElement(dsig.SignatureValueTag).SetText(base64.StdEncoding.EncodeToString(sig))
	return nil
}

// indexIDs maps Id attributes to their elements. Duplicate ids are rejected
// so a reference can only ever resolve to one element.
func indexIDs(root *etree.Element) (map[string]*etree.Element, error) {
	ids := make(map[string]*etree.Element)
	var walk func(el *etree.Element) error
	walk = func(el *etree.Element) error {
		if id := el.SelectAttrValue("Id", ""); id != "" {
			if _, dup := ids[id]; dup {
				return fmt.Errorf("duplicate Id %q", id)
			}
			ids[id] = el
		}
		for _, child := range el.ChildElements() {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return ids, walk(root)
}

// nextSignaturePart returns the first free _xmlsignatures/sigN.xml name.
func nextSignaturePart(pkg *opc.Package) string {
	for n := 1; ; n++ {
		name := path.Join(signaturesDir, fmt.Sprintf("sig%d.xml", n))
		if !pkg.HasPart(name) {
			return name
		}
	}
}
