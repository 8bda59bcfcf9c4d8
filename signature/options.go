package signature

import (
	"crypto/x509"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/rybkakrzy/importer-sub001/internal/limits"
)

// Option configures a Signer or Verifier.
type Option func(*options)

type options struct {
	logger          *zap.Logger
	clock           clockwork.Clock
	roots           *x509.CertPool
	trustSelfSigned bool
	limits          limits.Limits
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used for signing times and certificate validity checks.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithTrustRoots adds trusted root certificates for chain building.
func WithTrustRoots(pool *x509.CertPool) Option {
	return func(o *options) {
		o.roots = pool
	}
}

// WithTrustSelfSigned controls whether a self-signed certificate embedded in
// the signature is accepted as its own root. It is on by default.
func WithTrustSelfSigned(trust bool) Option {
	return func(o *options) {
		o.trustSelfSigned = trust
	}
}

// WithLimits sets the resource ceilings.
func WithLimits(l limits.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:          zap.NewNop(),
		clock:           clockwork.NewRealClock(),
		trustSelfSigned: true,
		limits:          limits.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.limits = o.limits.Normalize()
	return o
}
