// Package config loads docxkit settings from a YAML file and DOCXKIT_*
// environment variables.
package config

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/rybkakrzy/importer-sub001/internal/limits"
)

// EnvPrefix is the prefix of environment overrides, e.g. DOCXKIT_LOG_LEVEL.
const EnvPrefix = "DOCXKIT"

// Config is the complete tool configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Signature SignatureConfig `mapstructure:"signature"`
	Batch     BatchConfig     `mapstructure:"batch"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// LimitsConfig mirrors limits.Limits.
type LimitsConfig struct {
	MaxParts      int   `mapstructure:"max_parts"`
	MaxPartSize   int64 `mapstructure:"max_part_size"`
	MaxTotalSize  int64 `mapstructure:"max_total_size"`
	MaxDepth      int   `mapstructure:"max_depth"`
	MaxBlocks     int   `mapstructure:"max_blocks"`
	MaxReferences int   `mapstructure:"max_references"`
}

// SignatureConfig controls signature verification trust.
type SignatureConfig struct {
	TrustSelfSigned bool   `mapstructure:"trust_self_signed"`
	TrustedRoots    string `mapstructure:"trusted_roots"` // PEM bundle path
}

// BatchConfig controls archive processing.
type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

func setDefaults(v *viper.Viper) {
	d := limits.Default()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("limits.max_parts", d.MaxParts)
	v.SetDefault("limits.max_part_size", d.MaxPartSize)
	v.SetDefault("limits.max_total_size", d.MaxTotalSize)
	v.SetDefault("limits.max_depth", d.MaxDepth)
	v.SetDefault("limits.max_blocks", d.MaxBlocks)
	v.SetDefault("limits.max_references", d.MaxReferences)
	v.SetDefault("signature.trust_self_signed", true)
	v.SetDefault("signature.trusted_roots", "")
	v.SetDefault("batch.concurrency", 4)
}

// Load reads the configuration. With an empty path, docxkit.yaml is looked
// up in the working directory and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("docxkit")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that cannot work.
func (c *Config) Validate() error {
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}
	if c.Limits.MaxParts < 0 || c.Limits.MaxPartSize < 0 || c.Limits.MaxTotalSize < 0 ||
		c.Limits.MaxDepth < 0 || c.Limits.MaxBlocks < 0 || c.Limits.MaxReferences < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	return nil
}

// EngineLimits converts the limits section; zero fields take the defaults.
func (c *Config) EngineLimits() limits.Limits {
	return limits.Limits{
		MaxParts:      c.Limits.MaxParts,
		MaxPartSize:   c.Limits.MaxPartSize,
		MaxTotalSize:  c.Limits.MaxTotalSize,
		MaxDepth:      c.Limits.MaxDepth,
		MaxBlocks:     c.Limits.MaxBlocks,
		MaxReferences: c.Limits.MaxReferences,
	}.Normalize()
}

// TrustRoots loads the configured PEM bundle. It returns nil when none is set.
func (c *Config) TrustRoots() (*x509.CertPool, error) {
	if c.Signature.TrustedRoots == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.Signature.TrustedRoots)
	if err != nil {
		return nil, fmt.Errorf("reading trusted roots: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates in %s", c.Signature.TrustedRoots)
	}
	return pool, nil
}
