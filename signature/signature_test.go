package signature

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"software.sslmate.com/src/go-pkcs12"

	"github.com/rybkakrzy/importer-sub001/docx"
	"github.com/rybkakrzy/importer-sub001/internal/docerr"
	"github.com/rybkakrzy/importer-sub001/internal/limits"
	"github.com/rybkakrzy/importer-sub001/model"
	"github.com/rybkakrzy/importer-sub001/opc"
)

const testPassword = "correct horse"

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// newCert creates a certificate for key, signed by parent (self-signed when
// parent is nil).
func newCert(t *testing.T, cn string, key crypto.Signer, parent *x509.Certificate, parentKey crypto.Signer, isCA bool) *x509.Certificate {
	t.Helper()
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: cn, Organization: []string{"Kancelaria Testowa"}},
		NotBefore:             testNow.Add(-24 * time.Hour),
		NotAfter:              testNow.Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  isCA,
	}
	if parent == nil {
		parent, parentKey = tmpl, key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, key.Public(), parentKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func rsaKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

// selfSignedPFX returns a PKCS#12 archive holding a self-signed RSA certificate.
func selfSignedPFX(t *testing.T, cn string) ([]byte, *x509.Certificate) {
	t.Helper()
	key := rsaKey(t)
	cert := newCert(t, cn, key, nil, nil, false)
	pfx, err := pkcs12.Modern.Encode(key, cert, nil, testPassword)
	require.NoError(t, err)
	return pfx, cert
}

func testPackage(t *testing.T) *opc.Package {
	t.Helper()
	doc := model.NewDocument()
	doc.Append(
		model.NewParagraph(model.HeadingStyleID(1), "Umowa"),
		model.NewParagraph("", "Hello signed world"),
	)
	pkg, err := docx.NewWriter().Write(doc)
	require.NoError(t, err)
	return pkg
}

func testRequest(pfx []byte) Request {
	return Request{
		Certificate: pfx,
		Password:    testPassword,
		SignerName:  "Jan Kowalski",
		SignerTitle: "Dyrektor",
		SignerEmail: "jan.kowalski@example.com",
		Reason:      "Approval",
	}
}

func fixedClock() Option {
	return WithClock(clockwork.NewFakeClockAt(testNow))
}

// flipBit flips the lowest bit of the first byte of marker inside part.
func flipBit(t *testing.T, pkg *opc.Package, part, marker string) {
	t.Helper()
	data, ok := pkg.Part(part)
	require.True(t, ok)
	i := bytes.Index(data, []byte(marker))
	require.GreaterOrEqual(t, i, 0, "marker %q not in %s", marker, part)
	data = append([]byte(nil), data...)
	data[i] ^= 0x01
	pkg.SetPart(part, data)
}

func TestSignAndVerify(t *testing.T) {
	pfx, cert := selfSignedPFX(t, "Jan Kowalski")
	pkg := testPackage(t)
	before, err := pkg.Serialize()
	require.NoError(t, err)

	signed, err := NewSigner(fixedClock()).Sign(pkg, testRequest(pfx))
	require.NoError(t, err)

	after, err := pkg.Serialize()
	require.NoError(t, err)
	assert.Equal(t, before, after, "input package must not change")

	assert.True(t, signed.HasPart("_xmlsignatures/origin.sigs"))
	assert.True(t, signed.HasPart("_xmlsignatures/sig1.xml"))
	ct, err := signed.ContentTypes()
	require.NoError(t, err)
	assert.Equal(t, opc.ContentTypeSignatureXML, ct.Lookup("_xmlsignatures/sig1.xml"))
	assert.Equal(t, opc.ContentTypeSignatureOrig, ct.Lookup("_xmlsignatures/origin.sigs"))

	records, err := NewVerifier(fixedClock()).Verify(signed)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, Valid, rec.Outcome, rec.Detail)
	assert.True(t, rec.IsValid())
	assert.Equal(t, "_xmlsignatures/sig1.xml", rec.Part)
	assert.Equal(t, "Jan Kowalski", rec.SignerName)
	assert.Equal(t, "Dyrektor", rec.SignerTitle)
	assert.Equal(t, "jan.kowalski@example.com", rec.SignerEmail)
	assert.Equal(t, "Approval", rec.Reason)
	assert.Equal(t, testNow, rec.SigningTime)
	assert.Equal(t, cert.Subject.String(), rec.Subject)
	assert.Equal(t, cert.Issuer.String(), rec.Issuer)
	assert.Len(t, rec.Thumbprint, 40)
	assert.Equal(t, strings.ToUpper(rec.Thumbprint), rec.Thumbprint)
	assert.Equal(t, cert.NotAfter.UTC(), rec.NotAfter)
}

func TestSign_SurvivesSerialization(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	signed, err := NewSigner(fixedClock()).Sign(testPackage(t), testRequest(pfx))
	require.NoError(t, err)

	data, err := signed.Serialize()
	require.NoError(t, err)
	reopened, err := opc.Open(data, limits.Default())
	require.NoError(t, err)

	records, err := NewVerifier(fixedClock()).Verify(reopened)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Valid, records[0].Outcome, records[0].Detail)
}

func TestSign_Additive(t *testing.T) {
	pfxA, _ := selfSignedPFX(t, "Jan Kowalski")
	pfxB, _ := selfSignedPFX(t, "Anna Nowak")
	signer := NewSigner(fixedClock())

	once, err := signer.Sign(testPackage(t), testRequest(pfxA))
	require.NoError(t, err)
	first, _ := once.Part("_xmlsignatures/sig1.xml")

	req := testRequest(pfxB)
	req.SignerName = "Anna Nowak"
	twice, err := signer.Sign(once, req)
	require.NoError(t, err)

	still, _ := twice.Part("_xmlsignatures/sig1.xml")
	assert.Equal(t, first, still, "existing signature must not change")

	records, err := NewVerifier(fixedClock()).Verify(twice)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Jan Kowalski", records[0].SignerName)
	assert.Equal(t, "Anna Nowak", records[1].SignerName)
	for _, r := range records {
		assert.Equal(t, Valid, r.Outcome, r.Detail)
	}

	rels, err := twice.Relationships("_xmlsignatures/origin.sigs")
	require.NoError(t, err)
	assert.Len(t, rels.ByType(opc.RelTypeSignature), 2)
	root, err := twice.Relationships("")
	require.NoError(t, err)
	assert.Len(t, root.ByType(opc.RelTypeSignatureOrigin), 1)
}

func TestVerify_TamperIsolation(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	signer := NewSigner(fixedClock())

	signed, err := signer.Sign(testPackage(t), testRequest(pfx))
	require.NoError(t, err)
	flipBit(t, signed, "word/document.xml", "Hello signed")

	resigned, err := signer.Sign(signed, testRequest(pfx))
	require.NoError(t, err)

	records, err := NewVerifier(fixedClock()).Verify(resigned)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, HashMismatch, records[0].Outcome)
	assert.Contains(t, records[0].Detail, "word/document.xml")
	assert.Equal(t, Valid, records[1].Outcome, records[1].Detail)
}

func TestVerify_TamperedSignaturePart(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	signer := NewSigner(fixedClock())

	signed, err := signer.Sign(testPackage(t), testRequest(pfx))
	require.NoError(t, err)
	signed, err = signer.Sign(signed, testRequest(pfx))
	require.NoError(t, err)
	flipBit(t, signed, "_xmlsignatures/sig1.xml", "Approval")

	records, err := NewVerifier(fixedClock()).Verify(signed)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, HashMismatch, records[0].Outcome)
	assert.Equal(t, Valid, records[1].Outcome, records[1].Detail)
}

func TestVerify_ChangedContentTypeAndMissingPart(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	signed, err := NewSigner(fixedClock()).Sign(testPackage(t), testRequest(pfx))
	require.NoError(t, err)

	removed := signed.Clone()
	removed.DeletePart("docProps/app.xml")
	records, err := NewVerifier(fixedClock()).Verify(removed)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, HashMismatch, records[0].Outcome)

	retyped := signed.Clone()
	ct, err := retyped.ContentTypes()
	require.NoError(t, err)
	ct.SetOverride("word/document.xml", "application/xml")
	require.NoError(t, retyped.SetContentTypes(ct))
	records, err = NewVerifier(fixedClock()).Verify(retyped)
	require.NoError(t, err)
	assert.Equal(t, HashMismatch, records[0].Outcome)
}

func TestVerify_Unparseable(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	signed, err := NewSigner(fixedClock()).Sign(testPackage(t), testRequest(pfx))
	require.NoError(t, err)

	tests := map[string]string{
		"not xml":       "this is not a signature",
		"foreign root":  `<Other xmlns="urn:x"/>`,
		"no key info":   `<Signature xmlns="http://www.w3.org/2000/09/xmldsig#"><SignedInfo/><SignatureValue/></Signature>`,
		"bad cert data": `<Signature xmlns="http://www.w3.org/2000/09/xmldsig#"><SignedInfo/><SignatureValue/><KeyInfo><X509Data><X509Certificate>AAAA</X509Certificate></X509Data></KeyInfo></Signature>`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			pkg := signed.Clone()
			pkg.SetPart("_xmlsignatures/sig1.xml", []byte(body))
			records, err := NewVerifier(fixedClock()).Verify(pkg)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, Unparseable, records[0].Outcome)
			assert.NotEmpty(t, records[0].Detail)
		})
	}
}

func TestVerify_Expired(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	signed, err := NewSigner(fixedClock()).Sign(testPackage(t), testRequest(pfx))
	require.NoError(t, err)

	later := WithClock(clockwork.NewFakeClockAt(testNow.Add(2 * 365 * 24 * time.Hour)))
	records, err := NewVerifier(later).Verify(signed)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Expired, records[0].Outcome)
}

func TestVerify_SelfSignedTrust(t *testing.T) {
	pfx, cert := selfSignedPFX(t, "Jan Kowalski")
	signed, err := NewSigner(fixedClock()).Sign(testPackage(t), testRequest(pfx))
	require.NoError(t, err)

	records, err := NewVerifier(fixedClock(), WithTrustSelfSigned(false)).Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, CertificateInvalid, records[0].Outcome)

	roots := x509.NewCertPool()
	roots.AddCert(cert)
	records, err = NewVerifier(fixedClock(), WithTrustSelfSigned(false), WithTrustRoots(roots)).Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, Valid, records[0].Outcome, records[0].Detail)
}

func TestSignAndVerify_ECDSAChain(t *testing.T) {
	caKey := rsaKey(t)
	ca := newCert(t, "Test CA", caKey, nil, nil, true)
	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	leaf := newCert(t, "Jan Kowalski", leafKey, ca, caKey, false)

	pfx, err := pkcs12.Modern.Encode(leafKey, leaf, []*x509.Certificate{ca}, testPassword)
	require.NoError(t, err)

	signed, err := NewSigner(fixedClock()).Sign(testPackage(t), testRequest(pfx))
	require.NoError(t, err)

	records, err := NewVerifier(fixedClock()).Verify(signed)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Valid, records[0].Outcome, records[0].Detail)
	assert.Equal(t, "CN=Test CA,O=Kancelaria Testowa", records[0].Issuer)

	roots := x509.NewCertPool()
	roots.AddCert(ca)
	records, err = NewVerifier(fixedClock(), WithTrustSelfSigned(false), WithTrustRoots(roots)).Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, Valid, records[0].Outcome, records[0].Detail)
}

func TestSign_InvalidCredentials(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	pkg := testPackage(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"wrong password", Request{Certificate: pfx, Password: "wrong"}},
		{"garbage", Request{Certificate: []byte("not a pfx"), Password: testPassword}},
		{"empty", Request{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewSigner().Sign(pkg, tt.req)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, docerr.ErrInvalidCredentials)
		})
	}
}

func TestSign_NotADocument(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	pkg := opc.New()
	require.NoError(t, pkg.SetContentTypes(opc.NewContentTypes()))
	require.NoError(t, pkg.SetRelationships(opc.NewRelationships("")))

	_, err := NewSigner().Sign(pkg, testRequest(pfx))
	assert.ErrorIs(t, err, docerr.ErrMalformedContainer)
}

func TestVerify_NoSignatures(t *testing.T) {
	records, err := NewVerifier().Verify(testPackage(t))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestVerify_OrphanSignaturePart(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	signed, err := NewSigner(fixedClock()).Sign(testPackage(t), testRequest(pfx))
	require.NoError(t, err)
	signed.DeletePart(opc.RelsPartName("_xmlsignatures/origin.sigs"))

	records, err := NewVerifier(fixedClock()).Verify(signed)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "_xmlsignatures/sig1.xml", records[0].Part)
	assert.Equal(t, Valid, records[0].Outcome, records[0].Detail)
}

func TestVerify_ChangedXMLDeclaration(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	signed, err := NewSigner(fixedClock()).Sign(testPackage(t), testRequest(pfx))
	require.NoError(t, err)
	flipBit(t, signed, "word/document.xml", `yes"?>`)

	records, err := NewVerifier(fixedClock()).Verify(signed)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, HashMismatch, records[0].Outcome)
	assert.Contains(t, records[0].Detail, "word/document.xml")
}

func TestVerify_MalformedOriginRelationships(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	signer := NewSigner(fixedClock())
	signed, err := signer.Sign(testPackage(t), testRequest(pfx))
	require.NoError(t, err)
	signed, err = signer.Sign(signed, testRequest(pfx))
	require.NoError(t, err)
	signed.SetPart(opc.RelsPartName("_xmlsignatures/origin.sigs"), []byte("<Relationships"))

	core, logs := observer.New(zap.DebugLevel)
	records, err := NewVerifier(fixedClock(), WithLogger(zap.New(core))).Verify(signed)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, Valid, rec.Outcome, rec.Detail)
	}
	assert.Equal(t, 1, logs.FilterMessage("skipping unreadable signature origin relationships").Len())
}

func TestSortPartNames(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "numbered signatures",
			in:   []string{"_xmlsignatures/sig10.xml", "_xmlsignatures/sig2.xml", "_xmlsignatures/sig1.xml", "_xmlsignatures/sig11.xml"},
			want: []string{"_xmlsignatures/sig1.xml", "_xmlsignatures/sig2.xml", "_xmlsignatures/sig10.xml", "_xmlsignatures/sig11.xml"},
		},
		{
			name: "directories first",
			in:   []string{"b/sig1.xml", "a/sig9.xml", "a/sig10.xml"},
			want: []string{"a/sig9.xml", "a/sig10.xml", "b/sig1.xml"},
		},
		{
			name: "leading zeros",
			in:   []string{"sig002.xml", "sig1.xml", "sig02.xml"},
			want: []string{"sig1.xml", "sig002.xml", "sig02.xml"},
		},
		{
			name: "prefix",
			in:   []string{"sig1.xml.bak", "sig1.xml"},
			want: []string{"sig1.xml", "sig1.xml.bak"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]string(nil), tt.in...)
			sortPartNames(got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerify_TenSignaturesInNumericOrder(t *testing.T) {
	pfx, _ := selfSignedPFX(t, "Jan Kowalski")
	signer := NewSigner(fixedClock())
	pkg := testPackage(t)
	for i := 0; i < 11; i++ {
		var err error
		pkg, err = signer.Sign(pkg, testRequest(pfx))
		require.NoError(t, err)
	}

	records, err := NewVerifier(fixedClock()).Verify(pkg)
	require.NoError(t, err)
	require.Len(t, records, 11)
	for i, rec := range records {
		assert.Equal(t, fmt.Sprintf("_xmlsignatures/sig%d.xml", i+1), rec.Part)
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "Valid", Valid.String())
	assert.Equal(t, "HashMismatch", HashMismatch.String())
	assert.Equal(t, "CertificateInvalid", CertificateInvalid.String())
	assert.Equal(t, "Expired", Expired.String())
	assert.Equal(t, "Unparseable", Unparseable.String())
	assert.Equal(t, "Unknown", Outcome(42).String())

	text, err := Expired.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Expired", string(text))

	var o Outcome
	require.NoError(t, o.UnmarshalText([]byte("HashMismatch")))
	assert.Equal(t, HashMismatch, o)
	assert.Error(t, o.UnmarshalText([]byte("Bogus")))
}

func TestPartURI(t *testing.T) {
	uri := partURI("word/document.xml", opc.ContentTypeMainDocument)
	assert.Equal(t, "/word/document.xml?ContentType="+opc.ContentTypeMainDocument, uri)

	name, ct, err := parsePartURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "word/document.xml", name)
	assert.Equal(t, opc.ContentTypeMainDocument, ct)

	name, _, err = parsePartURI(partURI("word/media/my image.png", "image/png"))
	require.NoError(t, err)
	assert.Equal(t, "word/media/my image.png", name)
}

func TestCanonicalPart_IgnoresSerializationDetails(t *testing.T) {
	a, err := canonicalPart([]byte(`<?xml version="1.0"?><a xmlns:x="urn:x" y='1'><b/></a>`))
	require.NoError(t, err)
	b, err := canonicalPart([]byte("<?xml  version=\"1.0\"  ?>\n<a y=\"1\"><b></b></a>"))
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
	assert.Equal(t, "<?xml version=\"1.0\"?>\n<a y=\"1\"><b></b></a>", string(a))

	bare, err := canonicalPart([]byte(`<a y="1"><b></b></a>`))
	require.NoError(t, err)
	assert.Equal(t, `<a y="1"><b></b></a>`, string(bare))

	_, err = canonicalPart([]byte("<a>"))
	assert.Error(t, err)
}

func TestCanonicalPart_DeclarationChanges(t *testing.T) {
	base, err := canonicalPart([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?><a/>`))
	require.NoError(t, err)

	tests := []struct {
		name string
		data string
	}{
		{"standalone", `<?xml version="1.0" encoding="UTF-8" standalone="xes"?><a/>`},
		{"encoding", `<?xml version="1.0" encoding="utf-8" standalone="yes"?><a/>`},
		{"removed", `<a/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := canonicalPart([]byte(tt.data))
			require.NoError(t, err)
			assert.NotEqual(t, string(base), string(got))
		})
	}
}
