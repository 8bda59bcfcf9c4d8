package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rybkakrzy/importer-sub001/batch"
)

func newBatchCommand(a *app) *cobra.Command {
	var outDir string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch INPUT.zip",
		Short: "Convert every .docx document in a ZIP archive to HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if concurrency <= 0 {
				concurrency = a.cfg.Batch.Concurrency
			}
			if outDir == "" {
				outDir = strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			}

			p := batch.NewProcessor(a.engine,
				batch.WithLogger(a.log),
				batch.WithLimits(a.cfg.EngineLimits()),
				batch.WithConcurrency(concurrency))
			entries, err := p.Process(cmd.Context(), data)
			if err != nil {
				return fmt.Errorf("batch %s: %w", args[0], err)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Entry", "Output", "Warnings", "Status"})
			failed := 0
			for _, e := range entries {
				if e.Err != nil {
					failed++
					tw.AppendRow(table.Row{e.Name, "", "", failColor.Sprint(e.Err)})
					continue
				}
				target, err := entryOutput(outDir, e.Name)
				if err == nil {
					err = os.WriteFile(target, []byte(e.Result.HTML), 0o644)
				}
				if err != nil {
					failed++
					tw.AppendRow(table.Row{e.Name, "", "", failColor.Sprint(err)})
					continue
				}
				tw.AppendRow(table.Row{e.Name, target, len(e.Result.Warnings), okColor.Sprint("ok")})
			}
			tw.AppendFooter(table.Row{"", "", "converted", fmt.Sprintf("%d/%d", len(entries)-failed, len(entries))})
			tw.SetStyle(table.StyleLight)
			tw.Render()

			if failed > 0 {
				return fmt.Errorf("%d of %d entries failed", failed, len(entries))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output directory (default: archive name)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "entries converted at once (default from config)")
	return cmd
}

// entryOutput maps an archive entry to an .html file under dir, refusing
// names that would escape it.
func entryOutput(dir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unsafe entry name %q", name)
	}
	target := filepath.Join(dir, strings.TrimSuffix(clean, filepath.Ext(clean))+".html")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	return target, nil
}
