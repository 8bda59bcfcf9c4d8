package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	importer "github.com/rybkakrzy/importer-sub001"
	"github.com/rybkakrzy/importer-sub001/signature"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
)

// printWarnings lists conversion warnings on w.
func printWarnings(w io.Writer, warnings []importer.Warning) {
	if len(warnings) == 0 {
		return
	}
	warnColor.Fprintf(w, "%d warning(s):\n", len(warnings))
	for _, warn := range warnings {
		fmt.Fprintf(w, "  - %s\n", warn)
	}
}

// outcomeText colours a verification outcome.
func outcomeText(o signature.Outcome) string {
	switch o {
	case signature.Valid:
		return okColor.Sprint(o)
	case signature.Expired:
		return warnColor.Sprint(o)
	default:
		return failColor.Sprint(o)
	}
}

// outputPath returns out, or in with its extension replaced by ext.
func outputPath(in, out, ext string) string {
	if out != "" {
		return out
	}
	return strings.TrimSuffix(in, filepath.Ext(in)) + ext
}

// readOptional reads path, or returns "" when path is empty.
func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
