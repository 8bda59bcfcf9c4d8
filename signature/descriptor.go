package signature

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
)

const (
	nsMDSSI  = "http://schemas.openxmlformats.org/package/2006/digital-signature"
	nsOffice = "http://schemas.microsoft.com/office/2006/digsig"
	nsXAdES  = "http://uri.etsi.org/01903/v1.3.2#"

	refTypeObject           = "http://www.w3.org/2000/09/xmldsig#Object"
	refTypeSignedProperties = "http://uri.etsi.org/01903#SignedProperties"

	idSignature        = "idPackageSignature"
	idPackageObject    = "idPackageObject"
	idOfficeObject     = "idOfficeObject"
	idSignedProperties = "idSignedProperties"

	signingTimeFormat = "2006-01-02T15:04:05Z"
	mdssiTimeFormat   = "YYYY-MM-DDThh:mm:ssTZD"
)

// manifestEntry is one signed package part.
type manifestEntry struct {
	URI       string
	Digest    string
	Canonical bool
}

// partURI names a part and its content type the way manifest references do.
func partURI(name, contentType string) string {
	u := url.URL{Path: "/" + name, RawQuery: "ContentType=" + contentType}
	return u.String()
}

// parsePartURI is the inverse of partURI. The query is read raw because
// content types contain '+'.
func parsePartURI(uri string) (name, contentType string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	contentType, _ = strings.CutPrefix(u.RawQuery, "ContentType=")
	return strings.TrimPrefix(u.Path, "/"), contentType, nil
}

// descriptor holds everything written into one signature part.
type descriptor struct {
	SetupID     string
	SignerName  string
	SignerTitle string
	SignerEmail string
	Reason      string
	SigningTime time.Time
	Method      string
	Chain       []*x509.Certificate // leaf first
	Manifest    []manifestEntry
}

// build lays out the Signature element. Reference digests and the signature
// value are left empty for the signer to fill in.
func (d *descriptor) build() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	root := doc.CreateElement(dsig.SignatureTag)
	root.CreateAttr("xmlns", dsig.Namespace)
	root.CreateAttr("Id", idSignature)

	si := root.CreateElement(dsig.SignedInfoTag)
	si.CreateElement(dsig.CanonicalizationMethodTag).CreateAttr(dsig.AlgorithmAttr, c14nExclusive)
	si.CreateElement(dsig.SignatureMethodTag).CreateAttr(dsig.AlgorithmAttr, d.Method)
	addReference(si, refTypeObject, "#"+idPackageObject, true)
	addReference(si, refTypeObject, "#"+idOfficeObject, true)
	addReference(si, refTypeSignedProperties, "#"+idSignedProperties, true)

	root.CreateElement(dsig.SignatureValueTag)

	x509Data := root.CreateElement(dsig.KeyInfoTag).CreateElement(dsig.X509DataTag)
	for _, cert := range d.Chain {
		x509Data.CreateElement(dsig.X509CertificateTag).SetText(base64.StdEncoding.EncodeToString(cert.Raw))
	}

	d.buildPackageObject(root.CreateElement("Object"))
	d.buildOfficeObject(root.CreateElement("Object"))
	d.buildQualifyingProperties(root.CreateElement("Object"))
	return doc
}

func addReference(parent *etree.Element, typ, uri string, canonical bool) *etree.Element {
	ref := parent.CreateElement(dsig.ReferenceTag)
	if typ != "" {
		ref.CreateAttr("Type", typ)
	}
	ref.CreateAttr(dsig.URIAttr, uri)
	if canonical {
		ref.CreateElement(dsig.TransformsTag).CreateElement(dsig.TransformTag).CreateAttr(dsig.AlgorithmAttr, c14nExclusive)
	}
	ref.CreateElement(dsig.DigestMethodTag).CreateAttr(dsig.AlgorithmAttr, digestSHA256)
	ref.CreateElement(dsig.DigestValueTag)
	return ref
}

func (d *descriptor) buildPackageObject(obj *etree.Element) {
	obj.CreateAttr("Id", idPackageObject)

	manifest := obj.CreateElement("Manifest")
	for _, e := range d.Manifest {
		addReference(manifest, "", e.URI, e.Canonical).SelectElement(dsig.DigestValueTag).SetText(e.Digest)
	}

	prop := obj.CreateElement("SignatureProperties").CreateElement("SignatureProperty")
	prop.CreateAttr("Id", "idSignatureTime")
	prop.CreateAttr("Target", "#"+idSignature)
	st := prop.CreateElement("mdssi:SignatureTime")
	st.CreateAttr("xmlns:mdssi", nsMDSSI)
	st.CreateElement("mdssi:Format").SetText(mdssiTimeFormat)
	st.CreateElement("mdssi:Value").SetText(d.SigningTime.UTC().Format(signingTimeFormat))
}

func (d *descriptor) buildOfficeObject(obj *etree.Element) {
	obj.CreateAttr("Id", idOfficeObject)

	prop := obj.CreateElement("SignatureProperties").CreateElement("SignatureProperty")
	prop.CreateAttr("Id", "idOfficeV1Details")
	prop.CreateAttr("Target", "#"+idSignature)

	info := prop.CreateElement("SignatureInfoV1")
	info.CreateAttr("xmlns", nsOffice)
	for _, f := range []struct{ tag, value string }{
		{"SetupID", d.SetupID},
		{"SignatureText", d.SignerName},
		{"SignatureImage", ""},
		{"SignatureComments", d.Reason},
		{"SignatureProviderId", "{00000000-0000-0000-0000-000000000000}"},
		{"SignatureProviderUrl", ""},
		{"SignatureProviderDetails", "9"},
		{"SignatureType", "1"},
		{"DelegateSuggestedSigner", d.SignerName},
		{"DelegateSuggestedSigner2", d.SignerTitle},
		{"DelegateSuggestedSignerEmail", d.SignerEmail},
		{"ManifestHashAlgorithm", digestSHA256},
	} {
		info.CreateElement(f.tag).SetText(f.value)
	}
}

func (d *descriptor) buildQualifyingProperties(obj *etree.Element) {
	leaf := d.Chain[0]

	qp := obj.CreateElement("xd:QualifyingProperties")
	qp.CreateAttr("xmlns:xd", nsXAdES)
	qp.CreateAttr("Target", "#"+idSignature)

	sp := qp.CreateElement("xd:SignedProperties")
	sp.CreateAttr("Id", idSignedProperties)
	ssp := sp.CreateElement("xd:SignedSignatureProperties")
	ssp.CreateElement("xd:SigningTime").SetText(d.SigningTime.UTC().Format(signingTimeFormat))

	cert := ssp.CreateElement("xd:SigningCertificate").CreateElement("xd:Cert")
	digest := cert.CreateElement("xd:CertDigest")
	digest.CreateElement(dsig.DigestMethodTag).CreateAttr(dsig.AlgorithmAttr, digestSHA256)
	sum := sha256.Sum256(leaf.Raw)
	digest.CreateElement(dsig.DigestValueTag).SetText(base64.StdEncoding.EncodeToString(sum[:]))
	serial := cert.CreateElement("xd:IssuerSerial")
	serial.CreateElement("X509IssuerName").SetText(leaf.Issuer.String())
	serial.CreateElement("X509SerialNumber").SetText(leaf.SerialNumber.String())

	ssp.CreateElement("xd:SignaturePolicyIdentifier").CreateElement("xd:SignaturePolicyImplied")
	if d.SignerTitle != "" {
		ssp.CreateElement("xd:SignerRole").CreateElement("xd:ClaimedRoles").
			CreateElement("xd:ClaimedRole").SetText(d.SignerTitle)
	}
}

// readSignerDetails fills the signer fields of rec from a parsed signature.
// Missing elements leave the fields empty.
func readSignerDetails(root *etree.Element, rec *Record) {
	text := func(ns, tag string) string {
		el := findDescendant(root, ns, tag)
		if el == nil {
			return ""
		}
		return strings.TrimSpace(el.Text())
	}

	rec.SignerName = text(nsOffice, "DelegateSuggestedSigner")
	if rec.SignerName == "" {
		rec.SignerName = text(nsOffice, "SignatureText")
	}
	rec.SignerTitle = text(nsOffice, "DelegateSuggestedSigner2")
	if rec.SignerTitle == "" {
		rec.SignerTitle = text(nsXAdES, "ClaimedRole")
	}
	rec.SignerEmail = text(nsOffice, "DelegateSuggestedSignerEmail")
	rec.Reason = text(nsOffice, "SignatureComments")

	for _, v := range []string{text(nsMDSSI, "Value"), text(nsXAdES, "SigningTime")} {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			rec.SigningTime = t.UTC()
			break
		}
	}
}
