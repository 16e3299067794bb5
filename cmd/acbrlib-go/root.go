package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hsiuhsiu/acbrlib-go/internal/config"
	"github.com/hsiuhsiu/acbrlib-go/internal/logger"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib"
)

// app carries the state shared by every subcommand.
type app struct {
	cfgFile string
	verbose bool

	cfg *config.Config
	log zerolog.Logger

	// Tests inject these; nil means the native loader and stderr.
	platform acbrlib.Platform
	logOut   io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "acbrlib-go",
		Short: "Load and exercise ACBr native libraries",
		Long: `acbrlib-go resolves ACBr component libraries from the resources directory
next to the executable (or the configured one), loads them through the
process-wide loader and calls into them.

Configuration precedence: ACBRLIB_* environment variables, then the file
given with --config, then built-in defaults.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newVersionCmd(a),
		newProbeCmd(a),
		newInfoCmd(a),
		newStressCmd(a),
	)
	return root
}

func (a *app) init() error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg
	if a.logOut != nil {
		a.log = logger.New(cfg.Logging, a.logOut)
	} else {
		a.log = logger.Setup(cfg.Logging)
	}
	return nil
}

func (a *app) newLoader() (*acbrlib.Loader, error) {
	lc, err := a.cfg.LoaderConfig(logger.Adapter(a.log))
	if err != nil {
		return nil, err
	}
	lc.Platform = a.platform
	return acbrlib.NewLoader(lc)
}
