// Package importer converts WordprocessingML (.docx) packages to the editor's
// HTML subset and back, and signs and verifies those packages with OOXML
// digital signatures.
//
// Basic usage:
//
//	eng := importer.New()
//	res, err := eng.ConvertDocxToHTML(data)
//	if err != nil {
//	    // handle error
//	}
//	if len(res.Warnings) > 0 {
//	    log.Println("Warnings:", importer.FormatWarnings(res.Warnings))
//	}
//
// Signing:
//
//	signed, err := eng.SignDocument(data, importer.SignRequest{
//	    Certificate: pfx,
//	    Password:    "secret",
//	    SignerName:  "Jan Kowalski",
//	    Reason:      "Approval",
//	})
//	records, err := eng.VerifySignatures(signed)
//
// Every call is independent; an Engine may be shared between goroutines.
// For lower-level access use the opc, docx, htmldoc and signature packages.
package importer

import (
	"strings"

	"github.com/rybkakrzy/importer-sub001/internal/docerr"
	"github.com/rybkakrzy/importer-sub001/model"
	"github.com/rybkakrzy/importer-sub001/signature"
)

// Error kinds returned by the engine. Match them with errors.Is.
var (
	ErrMalformedContainer       = docerr.ErrMalformedContainer
	ErrInvalidDocumentStructure = docerr.ErrInvalidDocumentStructure
	ErrInvalidCredentials       = docerr.ErrInvalidCredentials
	ErrUnsupportedImageSource   = docerr.ErrUnsupportedImageSource
	ErrResourceLimitExceeded    = docerr.ErrResourceLimitExceeded
)

type (
	// Warning is a soft conversion issue returned next to a result.
	Warning = model.Warning
	// Metadata holds the document core properties.
	Metadata = model.Metadata
	// SignatureRecord is the verification result of one signature part.
	SignatureRecord = signature.Record
)

// DocxToHTMLConverter converts a .docx package into editor HTML.
type DocxToHTMLConverter interface {
	ConvertDocxToHTML(data []byte) (*HTMLResult, error)
}

// HTMLToDocxConverter builds a .docx package from editor HTML.
type HTMLToDocxConverter interface {
	ConvertHTMLToDocx(in HTMLInput) ([]byte, []Warning, error)
}

// DigitalSignatureService signs packages and reports on their signatures.
type DigitalSignatureService interface {
	SignDocument(data []byte, req SignRequest) ([]byte, error)
	VerifySignatures(data []byte) ([]SignatureRecord, error)
}

var (
	_ DocxToHTMLConverter     = (*Engine)(nil)
	_ HTMLToDocxConverter     = (*Engine)(nil)
	_ DigitalSignatureService = (*Engine)(nil)
)

// HTMLResult is the outcome of ConvertDocxToHTML.
type HTMLResult struct {
	HTML     string
	Header   string // empty when the document has no header
	Footer   string
	Metadata Metadata
	Images   []Image
	Warnings []Warning
}

// Image is a media asset of a converted document.
type Image struct {
	ID       string
	MIMEType string
	Data     string // base64
	Width    int    // pixels, 0 when unknown
	Height   int
}

// HTMLInput is the input of ConvertHTMLToDocx. Non-empty Metadata fields
// override those found in the HTML head.
type HTMLInput struct {
	HTML     string
	Metadata *Metadata
	Header   string
	Footer   string
}

// SignRequest carries the PKCS#12 credentials and the signer details.
type SignRequest struct {
	Certificate []byte
	Password    string
	SignerName  string
	SignerTitle string
	SignerEmail string
	Reason      string
}

// FormatWarnings joins warnings into a single line.
func FormatWarnings(warnings []Warning) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}

// Must is a helper that wraps a call returning (T, error) and panics if the
// error is non-nil. It is intended for scripts and tests.
//
// Example:
//
//	records := importer.Must(eng.VerifySignatures(data))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
