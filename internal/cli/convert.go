package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	importer "github.com/rybkakrzy/importer-sub001"
)

func newToHTMLCommand(a *app) *cobra.Command {
	var out, headerOut, footerOut string

	cmd := &cobra.Command{
		Use:   "to-html INPUT.docx",
		Short: "Convert a .docx document to HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := a.engine.ConvertDocxToHTML(data)
			if err != nil {
				return fmt.Errorf("convert %s: %w", args[0], err)
			}

			target := outputPath(args[0], out, ".html")
			if err := os.WriteFile(target, []byte(res.HTML), 0o644); err != nil {
				return err
			}
			for _, f := range []struct{ path, html string }{{headerOut, res.Header}, {footerOut, res.Footer}} {
				if f.path == "" || f.html == "" {
					continue
				}
				if err := os.WriteFile(f.path, []byte(f.html), 0o644); err != nil {
					return err
				}
			}

			a.log.Info("converted",
				zap.String("input", args[0]),
				zap.String("output", target),
				zap.Int("images", len(res.Images)),
				zap.Int("warnings", len(res.Warnings)))
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], target)
			printWarnings(cmd.ErrOrStderr(), res.Warnings)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default INPUT.html)")
	cmd.Flags().StringVar(&headerOut, "header-out", "", "write the header HTML to this file")
	cmd.Flags().StringVar(&footerOut, "footer-out", "", "write the footer HTML to this file")
	return cmd
}

func newToDocxCommand(a *app) *cobra.Command {
	var (
		out, headerFile, footerFile string
		meta                        importer.Metadata
	)

	cmd := &cobra.Command{
		Use:   "to-docx INPUT.html",
		Short: "Convert HTML to a .docx document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			header, err := readOptional(headerFile)
			if err != nil {
				return err
			}
			footer, err := readOptional(footerFile)
			if err != nil {
				return err
			}

			data, warnings, err := a.engine.ConvertHTMLToDocx(importer.HTMLInput{
				HTML:     string(src),
				Metadata: &meta,
				Header:   header,
				Footer:   footer,
			})
			if err != nil {
				return fmt.Errorf("convert %s: %w", args[0], err)
			}

			target := outputPath(args[0], out, ".docx")
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], target)
			printWarnings(cmd.ErrOrStderr(), warnings)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", "", "output file (default INPUT.docx)")
	f.StringVar(&headerFile, "header", "", "HTML file with the page header")
	f.StringVar(&footerFile, "footer", "", "HTML file with the page footer")
	f.StringVar(&meta.Title, "title", "", "document title")
	f.StringVar(&meta.Subject, "subject", "", "document subject")
	f.StringVar(&meta.Creator, "author", "", "document author")
	return cmd
}
