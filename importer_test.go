package importer

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"software.sslmate.com/src/go-pkcs12"

	"github.com/rybkakrzy/importer-sub001/internal/metrics"
	"github.com/rybkakrzy/importer-sub001/opc"
	"github.com/rybkakrzy/importer-sub001/signature"
)

const testPassword = "tajne-haslo"

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func testPFX(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(42),
		Subject:               pkix.Name{CommonName: "Jan Kowalski"},
		NotBefore:             testNow.Add(-time.Hour),
		NotAfter:              testNow.Add(30 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	pfx, err := pkcs12.Modern.Encode(key, cert, nil, testPassword)
	require.NoError(t, err)
	return pfx
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func testEngine(opts ...Option) *Engine {
	return New(append([]Option{WithClock(clockwork.NewFakeClockAt(testNow))}, opts...)...)
}

func TestEngine_HTMLRoundTrip(t *testing.T) {
	eng := testEngine()

	data, warnings, err := eng.ConvertHTMLToDocx(HTMLInput{
		HTML:     `<h1>Umowa</h1><p>Strona <strong>pierwsza</strong></p><p><img src="` + pngDataURI(t) + `"></p>`,
		Metadata: &Metadata{Title: "Umowa najmu", Creator: "Jan Kowalski"},
		Header:   `<p>Naglowek</p>`,
		Footer:   `<p>Stopka</p>`,
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	res, err := eng.ConvertDocxToHTML(data)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "<h1>Umowa</h1>")
	assert.Contains(t, res.HTML, "<strong>pierwsza</strong>")
	assert.Contains(t, res.HTML, `src="data:image/png;base64,`)
	assert.Contains(t, res.Header, "Naglowek")
	assert.Contains(t, res.Footer, "Stopka")
	assert.Equal(t, "Umowa najmu", res.Metadata.Title)
	assert.Equal(t, "Jan Kowalski", res.Metadata.Creator)

	require.Len(t, res.Images, 1)
	img := res.Images[0]
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, 3, img.Width)
	assert.Equal(t, 2, img.Height)
	_, err = base64.StdEncoding.DecodeString(img.Data)
	assert.NoError(t, err)
}

func TestEngine_BlankDocument(t *testing.T) {
	eng := testEngine()

	data, _, err := eng.ConvertHTMLToDocx(HTMLInput{})
	require.NoError(t, err)

	res, err := eng.ConvertDocxToHTML(data)
	require.NoError(t, err)
	assert.Empty(t, res.Header)
	assert.Empty(t, res.Footer)
	assert.Empty(t, res.Images)
}

func TestEngine_ConvertHTMLToDocx_Deterministic(t *testing.T) {
	eng := testEngine()
	in := HTMLInput{HTML: `<p>Tekst</p><ul><li>jeden</li><li>dwa</li></ul>`}

	a, _, err := eng.ConvertHTMLToDocx(in)
	require.NoError(t, err)
	b, _, err := eng.ConvertHTMLToDocx(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEngine_ConvertHTMLToDocx_Warnings(t *testing.T) {
	eng := testEngine()

	_, warnings, err := eng.ConvertHTMLToDocx(HTMLInput{
		HTML: `<p><a href="https://example.com">link</a><img src="https://example.com/a.png"></p>`,
	})
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	assert.Contains(t, FormatWarnings(warnings), "unsupported-image-source")
}

func TestEngine_ConvertDocxToHTML_Errors(t *testing.T) {
	eng := testEngine()

	_, err := eng.ConvertDocxToHTML([]byte("not a zip"))
	assert.ErrorIs(t, err, ErrMalformedContainer)

	_, err = eng.ConvertDocxToHTML(nil)
	assert.ErrorIs(t, err, ErrMalformedContainer)
}

func TestEngine_DepthLimit(t *testing.T) {
	eng := testEngine()
	html := strings.Repeat("<div>", 200) + "x" + strings.Repeat("</div>", 200)

	_, _, err := eng.ConvertHTMLToDocx(HTMLInput{HTML: html})
	assert.ErrorIs(t, err, ErrResourceLimitExceeded)
}

func TestEngine_SignAndVerify(t *testing.T) {
	eng := testEngine()
	pfx := testPFX(t)

	data, _, err := eng.ConvertHTMLToDocx(HTMLInput{HTML: `<p>Hello signed world</p>`})
	require.NoError(t, err)

	records, err := eng.VerifySignatures(data)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	req := SignRequest{
		Certificate: pfx,
		Password:    testPassword,
		SignerName:  "Jan Kowalski",
		Reason:      "Approval",
	}
	signed, err := eng.SignDocument(data, req)
	require.NoError(t, err)
	signed, err = eng.SignDocument(signed, req)
	require.NoError(t, err)

	records, err = eng.VerifySignatures(signed)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, signature.Valid, rec.Outcome, rec.Detail)
		assert.Equal(t, "Jan Kowalski", rec.SignerName)
		assert.Equal(t, "Approval", rec.Reason)
		assert.Equal(t, testNow, rec.SigningTime)
	}

	// The signed package still converts.
	res, err := eng.ConvertDocxToHTML(signed)
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "Hello signed world")
}

func TestEngine_TamperedDocument(t *testing.T) {
	eng := testEngine()
	data, _, err := eng.ConvertHTMLToDocx(HTMLInput{HTML: `<p>Hello signed world</p>`})
	require.NoError(t, err)
	signed, err := eng.SignDocument(data, SignRequest{Certificate: testPFX(t), Password: testPassword})
	require.NoError(t, err)

	pkg, err := opc.Open(signed, eng.limits)
	require.NoError(t, err)
	part, ok := pkg.Part("word/document.xml")
	require.True(t, ok)
	pkg.SetPart("word/document.xml", bytes.Replace(part, []byte("Hello"), []byte("Jello"), 1))
	tampered, err := pkg.Serialize()
	require.NoError(t, err)

	records, err := eng.VerifySignatures(tampered)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, signature.HashMismatch, records[0].Outcome)
}

func TestEngine_SignErrors(t *testing.T) {
	eng := testEngine()
	data, _, err := eng.ConvertHTMLToDocx(HTMLInput{HTML: `<p>x</p>`})
	require.NoError(t, err)
	pfx := testPFX(t)

	tests := []struct {
		name string
		data []byte
		req  SignRequest
		want error
	}{
		{"wrong password", data, SignRequest{Certificate: pfx, Password: "zle"}, ErrInvalidCredentials},
		{"no certificate", data, SignRequest{Password: testPassword}, ErrInvalidCredentials},
		{"not a package", []byte("plain text"), SignRequest{Certificate: pfx, Password: testPassword}, ErrMalformedContainer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.SignDocument(tt.data, tt.req)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err = eng.VerifySignatures([]byte("plain text"))
	assert.ErrorIs(t, err, ErrMalformedContainer)
}

func TestEngine_MetricsAndLogging(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	core, logs := observer.New(zap.DebugLevel)
	eng := testEngine(WithMetrics(m), WithLogger(zap.New(core)))

	_, _, err := eng.ConvertHTMLToDocx(HTMLInput{HTML: `<p><a href="https://example.com">link</a></p>`})
	require.NoError(t, err)
	_, err = eng.ConvertDocxToHTML([]byte("broken"))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(metrics.OpHTMLToDocx, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(metrics.OpDocxToHTML, "MalformedContainer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Warnings.WithLabelValues("link-target-dropped")))

	failures := logs.FilterMessage("operation failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zap.WarnLevel, failures[0].Level)
	assert.Equal(t, "MalformedContainer", failures[0].ContextMap()["code"])
	assert.NotEmpty(t, logs.FilterMessage("conversion warning").All())
}

func TestFormatWarnings(t *testing.T) {
	assert.Equal(t, "", FormatWarnings(nil))
	got := FormatWarnings([]Warning{
		{Code: "a", Message: "first"},
		{Code: "b", Location: "word/document.xml", Message: "second"},
	})
	assert.Equal(t, "a: first; b: word/document.xml: second", got)
}

func TestMust(t *testing.T) {
	assert.Equal(t, 3, Must(3, nil))
	assert.Panics(t, func() { Must(0, ErrMalformedContainer) })
}
