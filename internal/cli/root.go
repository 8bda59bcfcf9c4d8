// Package cli implements the docxkit command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	importer "github.com/rybkakrzy/importer-sub001"
	"github.com/rybkakrzy/importer-sub001/internal/config"
	"github.com/rybkakrzy/importer-sub001/internal/logger"
)

// app holds what every subcommand needs once the configuration is loaded.
type app struct {
	cfgFile  string
	logLevel string
	debug    bool

	cfg    *config.Config
	log    *zap.Logger
	engine *importer.Engine
}

// NewRootCommand creates the docxkit command tree.
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "docxkit",
		Short: "Convert, sign and verify Word documents",
		Long: `docxkit converts WordprocessingML (.docx) documents to editor HTML and back,
adds OOXML digital signatures to them and verifies existing signatures.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./docxkit.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.debug, "debug", false, "development logging at debug level")

	root.AddCommand(
		newToHTMLCommand(a),
		newToDocxCommand(a),
		newSignCommand(a),
		newVerifyCommand(a),
		newBatchCommand(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	roots, err := cfg.TrustRoots()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.engine = importer.New(
		importer.WithLogger(log),
		importer.WithLimits(cfg.EngineLimits()),
		importer.WithTrustRoots(roots),
		importer.WithTrustSelfSigned(cfg.Signature.TrustSelfSigned),
	)
	return nil
}
