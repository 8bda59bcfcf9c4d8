package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rybkakrzy/importer-sub001/internal/limits"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)
	assert.True(t, cfg.Signature.TrustSelfSigned)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, limits.Default(), cfg.EngineLimits())

	pool, err := cfg.TrustRoots()
	require.NoError(t, err)
	assert.Nil(t, pool)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "docxkit.yaml", `
log:
  level: debug
limits:
  max_depth: 16
signature:
  trust_self_signed: false
batch:
  concurrency: 2
`)
	t.Setenv("DOCXKIT_BATCH_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Signature.TrustSelfSigned)
	assert.Equal(t, 8, cfg.Batch.Concurrency)

	lim := cfg.EngineLimits()
	assert.Equal(t, 16, lim.MaxDepth)
	assert.Equal(t, limits.Default().MaxParts, lim.MaxParts)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, "bad.yaml", "batch:\n  concurrency: 0\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "batch.concurrency")
}

func TestTrustRoots_Errors(t *testing.T) {
	cfg := &Config{Signature: SignatureConfig{TrustedRoots: filepath.Join(t.TempDir(), "none.pem")}}
	_, err := cfg.TrustRoots()
	assert.Error(t, err)

	cfg.Signature.TrustedRoots = writeFile(t, "empty.pem", "not pem")
	_, err = cfg.TrustRoots()
	assert.ErrorContains(t, err, "no certificates")
}
