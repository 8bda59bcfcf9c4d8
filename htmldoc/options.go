package htmldoc

import (
	"go.uber.org/zap"

	"github.com/rybkakrzy/importer-sub001/internal/limits"
)

// Option configures Parse and ParseBlocks.
type Option func(*options)

type options struct {
	logger *zap.Logger
	limits limits.Limits
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLimits sets the resource ceilings.
func WithLimits(l limits.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), limits: limits.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	o.limits = o.limits.Normalize()
	return o
}
