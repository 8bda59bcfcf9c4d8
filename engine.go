package importer

import (
	"crypto/x509"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/rybkakrzy/importer-sub001/docx"
	"github.com/rybkakrzy/importer-sub001/htmldoc"
	"github.com/rybkakrzy/importer-sub001/internal/docerr"
	"github.com/rybkakrzy/importer-sub001/internal/limits"
	"github.com/rybkakrzy/importer-sub001/internal/metrics"
	"github.com/rybkakrzy/importer-sub001/signature"
)

// Engine runs conversions and signature operations. The zero value is not
// usable; create one with New.
type Engine struct {
	logger          *zap.Logger
	limits          limits.Limits
	metrics         *metrics.Metrics
	clock           clockwork.Clock
	roots           *x509.CertPool
	trustSelfSigned bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Failures are logged at Warn, skipped content
// at Debug.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLimits sets the resource ceilings applied to every call.
func WithLimits(l limits.Limits) Option {
	return func(e *Engine) {
		e.limits = l
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock sets the clock used for signing times, certificate validity
// checks and durations.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithTrustRoots sets the pool of trusted root certificates for verification.
func WithTrustRoots(pool *x509.CertPool) Option {
	return func(e *Engine) {
		e.roots = pool
	}
}

// WithTrustSelfSigned controls whether self-signed signing certificates
// are accepted as their own root. The default is true.
func WithTrustSelfSigned(trust bool) Option {
	return func(e *Engine) {
		e.trustSelfSigned = trust
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:          zap.NewNop(),
		limits:          limits.Default(),
		clock:           clockwork.NewRealClock(),
		trustSelfSigned: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.limits = e.limits.Normalize()
	return e
}

func (e *Engine) reader() *docx.Reader {
	return docx.NewReader(docx.WithLogger(e.logger), docx.WithLimits(e.limits))
}

func (e *Engine) writer() *docx.Writer {
	return docx.NewWriter(docx.WithLogger(e.logger), docx.WithLimits(e.limits))
}

func (e *Engine) htmlOptions() []htmldoc.Option {
	return []htmldoc.Option{htmldoc.WithLogger(e.logger), htmldoc.WithLimits(e.limits)}
}

func (e *Engine) signer() *signature.Signer {
	return signature.NewSigner(
		signature.WithLogger(e.logger),
		signature.WithClock(e.clock),
		signature.WithLimits(e.limits),
	)
}

func (e *Engine) verifier() *signature.Verifier {
	return signature.NewVerifier(
		signature.WithLogger(e.logger),
		signature.WithClock(e.clock),
		signature.WithLimits(e.limits),
		signature.WithTrustRoots(e.roots),
		signature.WithTrustSelfSigned(e.trustSelfSigned),
	)
}

// finish records the outcome of one call and logs failures.
func (e *Engine) finish(op string, start time.Time, warnings []Warning, err error) {
	result := "ok"
	if err != nil {
		result = docerr.Code(err)
		e.logger.Warn("operation failed",
			zap.String("operation", op),
			zap.String("code", result),
			zap.Error(err))
	}
	e.metrics.ObserveOperation(op, result, e.clock.Since(start))
	for _, w := range warnings {
		e.metrics.AddWarning(string(w.Code))
		e.logger.Debug("conversion warning",
			zap.String("operation", op),
			zap.String("code", string(w.Code)),
			zap.String("location", w.Location),
			zap.String("message", w.Message))
	}
}
