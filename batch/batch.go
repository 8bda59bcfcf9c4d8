// Package batch converts every WordprocessingML package found in a ZIP
// archive to HTML.
package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	importer "github.com/rybkakrzy/importer-sub001"
	"github.com/rybkakrzy/importer-sub001/format"
	"github.com/rybkakrzy/importer-sub001/internal/docerr"
	"github.com/rybkakrzy/importer-sub001/internal/limits"
)

const opProcess = "batch.Process"

// Entry is the result of one archive entry.
type Entry struct {
	Name   string // decoded entry name
	Result *importer.HTMLResult
	Err    error
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithConcurrency sets how many entries are converted at once.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLimits sets the ceilings applied to the outer archive.
func WithLimits(l limits.Limits) Option {
	return func(p *Processor) {
		p.limits = l
	}
}

// Processor drives a converter over the entries of an archive.
type Processor struct {
	conv        importer.DocxToHTMLConverter
	logger      *zap.Logger
	concurrency int
	limits      limits.Limits
}

// NewProcessor creates a Processor that converts with conv.
func NewProcessor(conv importer.DocxToHTMLConverter, opts ...Option) *Processor {
	p := &Processor{conv: conv, logger: zap.NewNop(), concurrency: 4, limits: limits.Default()}
	for _, opt := range opts {
		opt(p)
	}
	p.limits = p.limits.Normalize()
	return p
}

// Process converts each .docx entry of the archive in data. Directories,
// __MACOSX/ resource forks and entries that are not WordprocessingML
// packages are skipped. A failed entry records its error and does not stop
// the others. Entries are returned in archive order.
//
// Process fails only when data is not a ZIP archive, when the archive has
// more entries than allowed, or when ctx is done.
func (p *Processor) Process(ctx context.Context, data []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, docerr.New(docerr.ErrMalformedContainer, opProcess, err)
	}
	if len(zr.File) > p.limits.MaxParts {
		return nil, docerr.Newf(docerr.ErrResourceLimitExceeded, opProcess,
			"archive has %d entries, limit is %d", len(zr.File), p.limits.MaxParts)
	}

	var files []*zip.File
	for _, f := range zr.File {
		if skipEntry(f) {
			continue
		}
		if format.Detect(entryName(f)) != format.DOCX {
			p.logger.Debug("skipping entry", zap.String("name", entryName(f)))
			continue
		}
		files = append(files, f)
	}

	entries := make([]Entry, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries[i] = p.convert(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (p *Processor) convert(f *zip.File) Entry {
	e := Entry{Name: entryName(f)}
	data, err := p.read(f)
	if err == nil && format.DetectBytes(data) != format.DOCX {
		err = docerr.Newf(docerr.ErrMalformedContainer, opProcess, "%s is not a WordprocessingML package", e.Name)
	}
	if err == nil {
		e.Result, err = p.conv.ConvertDocxToHTML(data)
	}
	if err != nil {
		p.logger.Warn("entry failed", zap.String("name", e.Name), zap.Error(err))
		e.Err = err
	}
	return e
}

func (p *Processor) read(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > uint64(p.limits.MaxTotalSize) {
		return nil, docerr.Newf(docerr.ErrResourceLimitExceeded, opProcess,
			"%s is %d bytes, limit is %d", entryName(f), f.UncompressedSize64, p.limits.MaxTotalSize)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, docerr.New(docerr.ErrMalformedContainer, opProcess, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, p.limits.MaxTotalSize+1))
	if err != nil {
		return nil, docerr.New(docerr.ErrMalformedContainer, opProcess, fmt.Errorf("read %s: %w", entryName(f), err))
	}
	if int64(len(data)) > p.limits.MaxTotalSize {
		return nil, docerr.Newf(docerr.ErrResourceLimitExceeded, opProcess, "%s exceeds %d bytes", entryName(f), p.limits.MaxTotalSize)
	}
	return data, nil
}

// entryName decodes names stored without the UTF-8 flag as code page 437.
func entryName(f *zip.File) string {
	if !f.NonUTF8 {
		return f.Name
	}
	name, err := charmap.CodePage437.NewDecoder().String(f.Name)
	if err != nil {
		return f.Name
	}
	return name
}

func skipEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return true
	}
	if strings.HasPrefix(f.Name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(f.Name), "._")
}
