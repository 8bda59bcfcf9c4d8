package importer

import (
	"github.com/rybkakrzy/importer-sub001/internal/metrics"
	"github.com/rybkakrzy/importer-sub001/opc"
	"github.com/rybkakrzy/importer-sub001/signature"
)

// SignDocument adds one signature to a .docx package and returns the new
// package bytes. Existing signatures are left untouched.
//
// Fails with ErrInvalidCredentials when the PKCS#12 data cannot be decoded
// with the password, and with ErrMalformedContainer when data is not a
// WordprocessingML package.
func (e *Engine) SignDocument(data []byte, req SignRequest) (out []byte, err error) {
	start := e.clock.Now()
	defer func() { e.finish(metrics.OpSign, start, nil, err) }()

	pkg, err := opc.Open(data, e.limits)
	if err != nil {
		return nil, err
	}
	signed, err := e.signer().Sign(pkg, signature.Request(req))
	if err != nil {
		return nil, err
	}
	return signed.Serialize()
}

// VerifySignatures checks every signature in a .docx package and returns one
// record per signature part, in part name order. A package without
// signatures yields an empty slice. Only a package that cannot be opened is
// an error; failed checks are reported as record outcomes.
func (e *Engine) VerifySignatures(data []byte) (records []SignatureRecord, err error) {
	start := e.clock.Now()
	defer func() { e.finish(metrics.OpVerify, start, nil, err) }()

	pkg, err := opc.Open(data, e.limits)
	if err != nil {
		return nil, err
	}
	records, err = e.verifier().Verify(pkg)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		e.metrics.AddSignature(rec.Outcome.String())
	}
	return records, nil
}
