// Package signature signs OOXML packages with XML digital signatures and
// verifies the signatures already present in a package.
//
// A signature covers every part of the package except the content-types
// table and the signature parts themselves. Signing never touches existing
// signatures, so a package can carry several independent signatures, each
// verified on its own.
package signature

import (
	"fmt"
	"time"
)

// Outcome is the verification result of one signature.
type Outcome int

const (
	Valid Outcome = iota
	HashMismatch
	CertificateInvalid
	Expired
	Unparseable
)

var outcomeNames = map[Outcome]string{
	Valid:              "Valid",
	HashMismatch:       "HashMismatch",
	CertificateInvalid: "CertificateInvalid",
	Expired:            "Expired",
	Unparseable:        "Unparseable",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "Unknown"
}

// MarshalText renders the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses an outcome name.
func (o *Outcome) UnmarshalText(text []byte) error {
	for k, v := range outcomeNames {
		if v == string(text) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("unknown signature outcome %q", text)
}

// Record describes one signature found in a package.
type Record struct {
	Part        string    `json:"part"`
	SignerName  string    `json:"signerName"`
	SignerTitle string    `json:"signerTitle,omitempty"`
	SignerEmail string    `json:"signerEmail,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	SigningTime time.Time `json:"signingTime"`

	Subject    string    `json:"subject,omitempty"`
	Issuer     string    `json:"issuer,omitempty"`
	Thumbprint string    `json:"thumbprint,omitempty"` // SHA-1 of the DER certificate, upper-case hex
	NotBefore  time.Time `json:"notBefore"`
	NotAfter   time.Time `json:"notAfter"`

	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}

// IsValid reports whether the signature verified.
func (r Record) IsValid() bool {
	return r.Outcome == Valid
}

// Request carries the credentials and signer details for one signing operation.
type Request struct {
	Certificate []byte // PKCS#12 archive holding the key and certificate chain
	Password    string
	SignerName  string
	SignerTitle string
	SignerEmail string
	Reason      string
}
