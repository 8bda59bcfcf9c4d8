package signature

import (
	"bytes"
	"crypto"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"github.com/russellhaering/goxmldsig/etreeutils"
)

// Algorithm identifiers written into and accepted from signature XML.
const (
	methodRSASHA256   = dsig.RSASHA256SignatureMethod
	methodECDSASHA256 = dsig.ECDSASHA256SignatureMethod
	digestSHA256      = "http://www.w3.org/2001/04/xmlenc#sha256"
	c14nExclusive     = string(dsig.CanonicalXML10ExclusiveAlgorithmId)
)

var signatureMethods = map[string]bool{
	methodRSASHA256:   true,
	methodECDSASHA256: true,
}

// canonicalElement serializes el in exclusive canonical form, carrying the
// namespaces declared on its ancestors. el itself is left untouched.
func canonicalElement(el *etree.Element) ([]byte, error) {
	ctx, err := etreeutils.NSBuildParentContext(el)
	if err != nil {
		return nil, err
	}
	detached, err := etreeutils.NSDetatch(ctx, el)
	if err != nil {
		return nil, err
	}
	return dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("").Canonicalize(detached)
}

// canonicalPart returns the exclusive canonical form of an XML part. The
// XML declaration is kept ahead of the canonical root, so a changed
// encoding or standalone flag alters the digest.
func canonicalPart(data []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	canonical, err := dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("").Canonicalize(root)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, tok := range doc.Child {
		if tok == root {
			break
		}
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			buf.WriteString("<?xml " + strings.Join(strings.Fields(pi.Inst), " ") + "?>\n")
		}
	}
	buf.Write(canonical)
	return buf.Bytes(), nil
}

// isXMLPart reports whether a part is digested in canonical form.
func isXMLPart(name, contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.HasSuffix(ct, "/xml") || strings.HasSuffix(ct, "+xml") {
		return true
	}
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xml") || strings.HasSuffix(lower, ".rels")
}

func sha256Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// signedInfoDigest hashes the canonical SignedInfo for signing or checking.
func signedInfoDigest(canonical []byte) []byte {
	h := crypto.SHA256.New()
	h.Write(canonical)
	return h.Sum(nil)
}

func thumbprint(der []byte) string {
	sum := sha1.Sum(der)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
