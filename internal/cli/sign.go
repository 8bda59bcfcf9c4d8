package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	importer "github.com/rybkakrzy/importer-sub001"
)

// passwordEnv is read when --password is not given.
const passwordEnv = "DOCXKIT_CERT_PASSWORD"

func newSignCommand(a *app) *cobra.Command {
	var (
		out, certFile string
		req           importer.SignRequest
	)

	cmd := &cobra.Command{
		Use:   "sign INPUT.docx",
		Short: "Add a digital signature to a .docx document",
		Long: `Signs the document with the key and certificate chain of a PKCS#12 (.pfx)
file. Existing signatures are kept. The password is taken from --password or
the ` + passwordEnv + ` environment variable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			req.Certificate, err = os.ReadFile(certFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("password") {
				req.Password = os.Getenv(passwordEnv)
			}

			signed, err := a.engine.SignDocument(data, req)
			if err != nil {
				return fmt.Errorf("sign %s: %w", args[0], err)
			}
			target := args[0]
			if out != "" {
				target = out
			}
			if err := os.WriteFile(target, signed, 0o644); err != nil {
				return err
			}
			a.log.Info("signed", zap.String("input", args[0]), zap.String("output", target), zap.String("signer", req.SignerName))
			fmt.Fprintf(cmd.OutOrStdout(), "signed %s\n", target)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "output", "o", "", "output file (default: overwrite INPUT)")
	f.StringVar(&certFile, "cert", "", "PKCS#12 file with the signing key")
	f.StringVar(&req.Password, "password", "", "PKCS#12 password")
	f.StringVar(&req.SignerName, "name", "", "signer name")
	f.StringVar(&req.SignerTitle, "title", "", "signer title")
	f.StringVar(&req.SignerEmail, "email", "", "signer e-mail")
	f.StringVar(&req.Reason, "reason", "", "purpose of the signature")
	_ = cmd.MarkFlagRequired("cert")
	return cmd
}

// errInvalidSignatures makes verify exit non-zero.
var errInvalidSignatures = errors.New("document has invalid signatures")

func newVerifyCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify INPUT.docx",
		Short: "Verify the digital signatures of a .docx document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			records, err := a.engine.VerifySignatures(data)
			if err != nil {
				return fmt.Errorf("verify %s: %w", args[0], err)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(records); err != nil {
					return err
				}
			} else if len(records) == 0 {
				fmt.Fprintln(w, "no signatures")
			} else {
				tw := table.NewWriter()
				tw.SetOutputMirror(w)
				tw.AppendHeader(table.Row{"Part", "Signer", "Signed", "Certificate", "Thumbprint", "Outcome"})
				for _, rec := range records {
					signed := ""
					if !rec.SigningTime.IsZero() {
						signed = rec.SigningTime.Format("2006-01-02 15:04:05Z07:00")
					}
					tw.AppendRow(table.Row{rec.Part, rec.SignerName, signed, rec.Subject, rec.Thumbprint, outcomeText(rec.Outcome)})
				}
				tw.SetStyle(table.StyleLight)
				tw.Render()
				for _, rec := range records {
					if rec.Detail != "" {
						fmt.Fprintf(w, "%s: %s\n", rec.Part, rec.Detail)
					}
				}
			}

			for _, rec := range records {
				if !rec.IsValid() {
					return errInvalidSignatures
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the records as JSON")
	return cmd
}
