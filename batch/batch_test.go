package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	importer "github.com/rybkakrzy/importer-sub001"
	"github.com/rybkakrzy/importer-sub001/internal/limits"
)

type zipEntry struct {
	name    string
	data    []byte
	nonUTF8 bool
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate, NonUTF8: e.nonUTF8})
		require.NoError(t, err)
		_, err = w.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func docxOf(t *testing.T, html string) []byte {
	t.Helper()
	data, _, err := importer.New().ConvertHTMLToDocx(importer.HTMLInput{HTML: html})
	require.NoError(t, err)
	return data
}

func TestProcess(t *testing.T) {
	archive := buildZip(t,
		zipEntry{name: "umowy/"},
		zipEntry{name: "umowy/pierwsza.docx", data: docxOf(t, "<p>Pierwsza</p>")},
		zipEntry{name: "notatki.txt", data: []byte("nie dotyczy")},
		zipEntry{name: "__MACOSX/umowy/._pierwsza.docx", data: []byte("resource fork")},
		zipEntry{name: "zepsuta.docx", data: []byte("not a zip")},
		zipEntry{name: "umow\x82.docx", data: docxOf(t, "<p>Druga</p>"), nonUTF8: true},
	)

	entries, err := NewProcessor(importer.New(), WithConcurrency(2)).Process(context.Background(), archive)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "umowy/pierwsza.docx", entries[0].Name)
	require.NoError(t, entries[0].Err)
	assert.Contains(t, entries[0].Result.HTML, "Pierwsza")

	assert.Equal(t, "zepsuta.docx", entries[1].Name)
	assert.ErrorIs(t, entries[1].Err, importer.ErrMalformedContainer)
	assert.Nil(t, entries[1].Result)

	assert.Equal(t, "umowé.docx", entries[2].Name)
	require.NoError(t, entries[2].Err)
	assert.Contains(t, entries[2].Result.HTML, "Druga")
}

func TestProcess_NotAnArchive(t *testing.T) {
	_, err := NewProcessor(importer.New()).Process(context.Background(), []byte("plain"))
	assert.ErrorIs(t, err, importer.ErrMalformedContainer)
}

func TestProcess_TooManyEntries(t *testing.T) {
	archive := buildZip(t,
		zipEntry{name: "a.docx"},
		zipEntry{name: "b.docx"},
		zipEntry{name: "c.docx"},
	)
	_, err := NewProcessor(importer.New(), WithLimits(limits.Limits{MaxParts: 2})).
		Process(context.Background(), archive)
	assert.ErrorIs(t, err, importer.ErrResourceLimitExceeded)
}

func TestProcess_EmptyArchive(t *testing.T) {
	entries, err := NewProcessor(importer.New()).Process(context.Background(), buildZip(t))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type countingConverter struct {
	calls atomic.Int32
	err   error
}

func (c *countingConverter) ConvertDocxToHTML([]byte) (*importer.HTMLResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &importer.HTMLResult{HTML: "<p></p>"}, nil
}

func TestProcess_ConverterErrorsStayPerEntry(t *testing.T) {
	doc := docxOf(t, "<p>x</p>")
	archive := buildZip(t,
		zipEntry{name: "a.docx", data: doc},
		zipEntry{name: "b.docx", data: doc},
		zipEntry{name: "c.docx", data: doc},
	)
	boom := errors.New("boom")
	conv := &countingConverter{err: boom}

	entries, err := NewProcessor(conv, WithConcurrency(1)).Process(context.Background(), archive)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.ErrorIs(t, e.Err, boom)
	}
	assert.EqualValues(t, 3, conv.calls.Load())
}

func TestProcess_CancelledContext(t *testing.T) {
	doc := docxOf(t, "<p>x</p>")
	archive := buildZip(t, zipEntry{name: "a.docx", data: doc})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := &countingConverter{}
	_, err := NewProcessor(conv).Process(ctx, archive)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, conv.calls.Load())
}
