package signature

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"github.com/russellhaering/goxmldsig/etreeutils"
	"go.uber.org/zap"

	"github.com/rybkakrzy/importer-sub001/opc"
)

// Verifier checks the signatures present in a package.
type Verifier struct {
	opts options
}

// NewVerifier returns a Verifier configured by opts.
func NewVerifier(opts ...Option) *Verifier {
	return &Verifier{opts: buildOptions(opts)}
}

// failure is a verification failure mapped to an outcome.
type failure struct {
	outcome Outcome
	detail  string
}

func (f *failure) Error() string { return f.detail }

func fail(outcome Outcome, format string, args ...any) error {
	return &failure{outcome: outcome, detail: fmt.Sprintf(format, args...)}
}

// Verify evaluates every signature in pkg and returns one record per
// signature part, in part-name order with numbered parts compared by
// number. A package without signatures yields an empty slice. Only an
// unreadable content-types table or package relationship part is an error.
func (v *Verifier) Verify(pkg *opc.Package) ([]Record, error) {
	parts, err := v.signatureParts(pkg)
	if err != nil {
		return nil, err
	}
	ct, err := pkg.ContentTypes()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(parts))
	for _, name := range parts {
		rec := v.verifyPart(pkg, ct, name)
		v.opts.logger.Debug("signature verified",
			zap.String("part", name),
			zap.Stringer("outcome", rec.Outcome),
			zap.String("detail", rec.Detail))
		records = append(records, rec)
	}
	return records, nil
}

// signatureParts lists the parts targeted by origin relationships together
// with orphan parts carrying the signature content type. An unreadable
// origin relationship part is skipped; its signatures are still found by
// content type.
func (v *Verifier) signatureParts(pkg *opc.Package) ([]string, error) {
	found := make(map[string]bool)

	root, err := pkg.Relationships("")
	if err != nil {
		return nil, err
	}
	for _, o := range root.ByType(opc.RelTypeSignatureOrigin) {
		origin := opc.ResolveTarget("", o.Target)
		rels, err := pkg.Relationships(origin)
		if err != nil {
			v.opts.logger.Warn("skipping unreadable signature origin relationships",
				zap.String("origin", origin), zap.Error(err))
			continue
		}
		for _, r := range rels.ByType(opc.RelTypeSignature) {
			if name := opc.ResolveTarget(origin, r.Target); pkg.HasPart(name) {
				found[name] = true
			}
		}
	}

	ct, err := pkg.ContentTypes()
	if err != nil {
		return nil, err
	}
	for _, name := range pkg.PartNames() {
		if ct.Lookup(name) == opc.ContentTypeSignatureXML {
			found[name] = true
		}
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sortPartNames(names)
	return names, nil
}

// sortPartNames orders part names so that numbered siblings follow their
// numbers: sig2.xml sorts before sig10.xml.
func sortPartNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return naturalLess(names[i], names[j])
	})
}

func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		switch {
		case da && db:
			na, ra := splitDigits(a)
			nb, rb := splitDigits(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			if na != nb {
				return na < nb
			}
			a, b = ra, rb
		case a[0] != b[0]:
			return a[0] < b[0]
		default:
			a, b = a[1:], b[1:]
		}
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func splitDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func (v *Verifier) verifyPart(pkg *opc.Package, ct *opc.ContentTypes, name string) Record {
	rec := Record{Part: name, Outcome: Valid}
	data, _ := pkg.Part(name)

	err := v.check(pkg, ct, data, &rec)
	var f *failure
	switch {
	case err == nil:
	case errors.As(err, &f):
		rec.Outcome, rec.Detail = f.outcome, f.detail
	default:
		rec.Outcome, rec.Detail = Unparseable, err.Error()
	}
	return rec
}

// check runs the verification steps in order; the first failure decides the outcome.
func (v *Verifier) check(pkg *opc.Package, ct *opc.ContentTypes, data []byte, rec *Record) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fail(Unparseable, "reading signature XML: %v", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != dsig.SignatureTag || root.NamespaceURI() != dsig.Namespace {
		return fail(Unparseable, "root element is not an XML signature")
	}
	readSignerDetails(root, rec)

	si := findChild(root, dsig.Namespace, dsig.SignedInfoTag)
	if si == nil {
		return fail(Unparseable, "missing SignedInfo")
	}
	sigValue := findChild(root, dsig.Namespace, dsig.SignatureValueTag)
	if sigValue == nil {
		return fail(Unparseable, "missing SignatureValue")
	}
	chain, err := embeddedChain(root)
	if err != nil {
		return err
	}
	leaf := chain[0]
	rec.Subject = leaf.Subject.String()
	rec.Issuer = leaf.Issuer.String()
	rec.Thumbprint = thumbprint(leaf.Raw)
	rec.NotBefore = leaf.NotBefore.UTC()
	rec.NotAfter = leaf.NotAfter.UTC()

	ids, err := indexIDs(root)
	if err != nil {
		return fail(Unparseable, "%v", err)
	}
	signed, err := v.checkReferences(si, ids)
	if err != nil {
		return err
	}
	if err := v.checkManifest(pkg, ct, root, signed); err != nil {
		return err
	}
	if err := checkCertDigest(root, leaf); err != nil {
		return err
	}
	if err := checkSignatureValue(si, sigValue, leaf); err != nil {
		return err
	}

	now := v.opts.clock.Now()
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return fail(Expired, "certificate valid from %s to %s",
			leaf.NotBefore.UTC().Format(time.RFC3339), leaf.NotAfter.UTC().Format(time.RFC3339))
	}
	return v.checkChain(chain, now)
}

// embeddedChain parses the certificates in KeyInfo, leaf first.
func embeddedChain(root *etree.Element) ([]*x509.Certificate, error) {
	keyInfo := findChild(root, dsig.Namespace, dsig.KeyInfoTag)
	if keyInfo == nil {
		return nil, fail(Unparseable, "missing KeyInfo")
	}
	ctx, err := etreeutils.NSBuildParentContext(keyInfo)
	if err != nil {
		return nil, fail(Unparseable, "%v", err)
	}
	var chain []*x509.Certificate
	err = etreeutils.NSFindIterateCtx(ctx, keyInfo, dsig.Namespace, dsig.X509CertificateTag,
		func(_ etreeutils.NSContext, el *etree.Element) error {
			der, err := base64.StdEncoding.DecodeString(compactBase64(el.Text()))
			if err != nil {
				return fail(Unparseable, "decoding certificate: %v", err)
			}
			cert, err := x509.ParseCertificate(der)
			if err != nil {
				return fail(Unparseable, "parsing certificate: %v", err)
			}
			chain = append(chain, cert)
			return nil
		})
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, fail(Unparseable, "no certificate in KeyInfo")
	}
	return chain, nil
}

// checkReferences recomputes the digest of every element SignedInfo points
// at and returns those elements.
func (v *Verifier) checkReferences(si *etree.Element, ids map[string]*etree.Element) ([]*etree.Element, error) {
	method := findChild(si, dsig.Namespace, dsig.SignatureMethodTag)
	if method == nil || !signatureMethods[method.SelectAttrValue(dsig.AlgorithmAttr, "")] {
		return nil, fail(Unparseable, "unsupported signature method")
	}
	c14n := findChild(si, dsig.Namespace, dsig.CanonicalizationMethodTag)
	if c14n == nil || c14n.SelectAttrValue(dsig.AlgorithmAttr, "") != c14nExclusive {
		return nil, fail(Unparseable, "unsupported canonicalization method")
	}

	ctx, err := etreeutils.NSBuildParentContext(si)
	if err != nil {
		return nil, fail(Unparseable, "%v", err)
	}
	var signed []*etree.Element
	err = etreeutils.NSFindChildrenIterateCtx(ctx, si, dsig.Namespace, dsig.ReferenceTag,
		func(_ etreeutils.NSContext, ref *etree.Element) error {
			uri := ref.SelectAttrValue(dsig.URIAttr, "")
			id, ok := strings.CutPrefix(uri, "#")
			target := ids[id]
			if !ok || target == nil {
				return fail(HashMismatch, "reference %q does not resolve", uri)
			}
			want, canonical, err := referenceDigest(ref)
			if err != nil {
				return err
			}
			if !canonical {
				return fail(Unparseable, "reference %q is not canonicalized", uri)
			}
			got, err := canonicalElement(target)
			if err != nil {
				return fail(Unparseable, "canonicalizing %q: %v", uri, err)
			}
			if sha256Digest(got) != want {
				return fail(HashMismatch, "digest of %q does not match", uri)
			}
			signed = append(signed, target)
			return nil
		})
	if err != nil {
		return nil, err
	}
	if len(signed) == 0 {
		return nil, fail(Unparseable, "SignedInfo has no references")
	}
	return signed, nil
}

// referenceDigest reads the expected digest of a Reference and whether its
// target is canonicalized first.
func referenceDigest(ref *etree.Element) (digest string, canonical bool, err error) {
	method := findChild(ref, dsig.Namespace, dsig.DigestMethodTag)
	if method == nil || method.SelectAttrValue(dsig.AlgorithmAttr, "") != digestSHA256 {
		return "", false, fail(Unparseable, "unsupported digest method")
	}
	value := findChild(ref, dsig.Namespace, dsig.DigestValueTag)
	if value == nil {
		return "", false, fail(Unparseable, "missing DigestValue")
	}

	if transforms := findChild(ref, dsig.Namespace, dsig.TransformsTag); transforms != nil {
		for _, t := range transforms.ChildElements() {
			if t.SelectAttrValue(dsig.AlgorithmAttr, "") != c14nExclusive {
				return "", false, fail(Unparseable, "unsupported transform %q", t.SelectAttrValue(dsig.AlgorithmAttr, ""))
			}
			canonical = true
		}
	}
	return compactBase64(value.Text()), canonical, nil
}

// checkManifest recomputes the digest of every package part listed in the
// manifest. The manifest must sit inside a signed element.
func (v *Verifier) checkManifest(pkg *opc.Package, ct *opc.ContentTypes, root *etree.Element, signed []*etree.Element) error {
	manifest := findDescendant(root, dsig.Namespace, "Manifest")
	if manifest == nil {
		return fail(Unparseable, "missing Manifest")
	}
	if !coveredBy(manifest, signed) {
		return fail(HashMismatch, "manifest is not covered by SignedInfo")
	}

	refs := manifest.ChildElements()
	if len(refs) > v.opts.limits.MaxReferences {
		return fail(Unparseable, "%d manifest references exceed %d", len(refs), v.opts.limits.MaxReferences)
	}
	for _, ref := range refs {
		if ref.Tag != dsig.ReferenceTag {
			continue
		}
		uri := ref.SelectAttrValue(dsig.URIAttr, "")
		name, contentType, err := parsePartURI(uri)
		if err != nil {
			return fail(Unparseable, "manifest reference %q: %v", uri, err)
		}
		want, canonical, err := referenceDigest(ref)
		if err != nil {
			return err
		}
		data, ok := pkg.Part(name)
		if !ok {
			return fail(HashMismatch, "signed part %s is missing", name)
		}
		if got := ct.Lookup(name); contentType != "" && got != contentType {
			return fail(HashMismatch, "content type of %s changed to %q", name, got)
		}
		if canonical {
			if data, err = canonicalPart(data); err != nil {
				return fail(HashMismatch, "signed part %s is no longer well-formed: %v", name, err)
			}
		}
		if sha256Digest(data) != want {
			return fail(HashMismatch, "digest of %s does not match", name)
		}
	}
	return nil
}

func coveredBy(el *etree.Element, signed []*etree.Element) bool {
	for p := el; p != nil; p = p.Parent() {
		for _, s := range signed {
			if p == s {
				return true
			}
		}
	}
	return false
}

// checkCertDigest compares the signing certificate digest recorded in the
// qualifying properties, when present, with the embedded leaf.
func checkCertDigest(root *etree.Element, leaf *x509.Certificate) error {
	certDigest := findDescendant(root, nsXAdES, "CertDigest")
	if certDigest == nil {
		return nil
	}
	value := findChild(certDigest, dsig.Namespace, dsig.DigestValueTag)
	if value == nil {
		return nil
	}
	sum := sha256.Sum256(leaf.Raw)
	if compactBase64(value.Text()) != base64.StdEncoding.EncodeToString(sum[:]) {
		return fail(CertificateInvalid, "signing certificate digest does not match the embedded certificate")
	}
	return nil
}

func checkSignatureValue(si, sigValue *etree.Element, leaf *x509.Certificate) error {
	sig, err := base64.StdEncoding.DecodeString(compactBase64(sigValue.Text()))
	if err != nil {
		return fail(Unparseable, "decoding SignatureValue: %v", err)
	}
	canonical, err := canonicalElement(si)
	if err != nil {
		return fail(Unparseable, "canonicalizing SignedInfo: %v", err)
	}

	algo := x509.SHA256WithRSA
	method := findChild(si, dsig.Namespace, dsig.SignatureMethodTag)
	if method != nil && method.SelectAttrValue(dsig.AlgorithmAttr, "") == methodECDSASHA256 {
		algo = x509.ECDSAWithSHA256
	}
	if err := leaf.CheckSignature(algo, canonical, sig); err != nil {
		return fail(HashMismatch, "signature value does not verify: %v", err)
	}
	return nil
}

// checkChain builds a chain from the leaf to a trusted root. Embedded
// certificates serve as intermediates; self-signed ones are roots when
// self-signed trust is enabled.
func (v *Verifier) checkChain(chain []*x509.Certificate, now time.Time) error {
	roots := x509.NewCertPool()
	if v.opts.roots != nil {
		roots = v.opts.roots.Clone()
	}
	intermediates := x509.NewCertPool()
	for _, cert := range chain {
		if v.opts.trustSelfSigned && isSelfSigned(cert) {
			roots.AddCert(cert)
			continue
		}
		intermediates.AddCert(cert)
	}

	_, err := chain[0].Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		CurrentTime:   now,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return fail(CertificateInvalid, "%v", err)
	}
	return nil
}

// isSelfSigned checks the certificate's signature with its own key. Unlike
// CheckSignatureFrom it does not require the CA flag.
func isSelfSigned(cert *x509.Certificate) bool {
	if !bytes.Equal(cert.RawSubject, cert.RawIssuer) {
		return false
	}
	return cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature) == nil
}

// findChild returns the first child of el with the given namespace and tag,
// resolving prefixes declared on el's ancestors.
func findChild(el *etree.Element, ns, tag string) *etree.Element {
	ctx, err := etreeutils.NSBuildParentContext(el)
	if err != nil {
		return nil
	}
	found, err := etreeutils.NSFindOneChildCtx(ctx, el, ns, tag)
	if err != nil {
		return nil
	}
	return found
}

// findDescendant is findChild for the whole subtree of el.
func findDescendant(el *etree.Element, ns, tag string) *etree.Element {
	ctx, err := etreeutils.NSBuildParentContext(el)
	if err != nil {
		return nil
	}
	found, err := etreeutils.NSFindOneCtx(ctx, el, ns, tag)
	if err != nil {
		return nil
	}
	return found
}

func compactBase64(s string) string {
	return strings.Join(strings.Fields(s), "")
}
