package signature

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"errors"

	"software.sslmate.com/src/go-pkcs12"

	"github.com/rybkakrzy/importer-sub001/internal/docerr"
)

// credentials is a decoded signing key with its certificate chain, leaf first.
type credentials struct {
	key    crypto.Signer
	leaf   *x509.Certificate
	chain  []*x509.Certificate
	method string // XML signature method identifier
}

// decodeCredentials unpacks a PKCS#12 archive. Only RSA and ECDSA keys whose
// public half matches the leaf certificate are accepted.
func decodeCredentials(pfx []byte, password string) (*credentials, error) {
	const op = "signature.decodeCredentials"

	if len(pfx) == 0 {
		return nil, docerr.Newf(docerr.ErrInvalidCredentials, op, "no certificate supplied")
	}
	key, leaf, cas, err := pkcs12.DecodeChain(pfx, password)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return nil, docerr.Newf(docerr.ErrInvalidCredentials, op, "incorrect password")
		}
		return nil, docerr.New(docerr.ErrInvalidCredentials, op, err)
	}

	c := &credentials{leaf: leaf, chain: append([]*x509.Certificate{leaf}, cas...)}
	switch k := key.(type) {
	case *rsa.PrivateKey:
		c.key, c.method = k, methodRSASHA256
		if !k.PublicKey.Equal(leaf.PublicKey) {
			return nil, docerr.Newf(docerr.ErrInvalidCredentials, op, "private key does not match certificate")
		}
	case *ecdsa.PrivateKey:
		c.key, c.method = k, methodECDSASHA256
		if !k.PublicKey.Equal(leaf.PublicKey) {
			return nil, docerr.Newf(docerr.ErrInvalidCredentials, op, "private key does not match certificate")
		}
	default:
		return nil, docerr.Newf(docerr.ErrInvalidCredentials, op, "unsupported key type %T", key)
	}
	return c, nil
}
