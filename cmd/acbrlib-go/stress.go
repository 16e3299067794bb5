package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hsiuhsiu/acbrlib-go/internal/logger"
	"github.com/hsiuhsiu/acbrlib-go/internal/stress"
)

func newStressCmd(a *app) *cobra.Command {
	var (
		tasks       int
		concurrency int
		eventFile   string
	)
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run many concurrent eSocial sessions against one loader",
		Long: `stress starts --tasks sessions with at most --concurrency in flight. Each
session loads the eSocial component (retrying while another load is in
progress), initializes an instance with a throwaway INI file, sets the log
and schema paths, loads the event file, sends it and reads the last return.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Stress
			if cmd.Flags().Changed("tasks") {
				sc.Tasks = tasks
			}
			if cmd.Flags().Changed("concurrency") {
				sc.Concurrency = concurrency
			}
			if cmd.Flags().Changed("event") {
				sc.EventFile = eventFile
			}
			if sc.Concurrency < 1 {
				return fmt.Errorf("concurrency must be at least 1")
			}

			event, err := os.ReadFile(sc.EventFile)
			if err != nil {
				return fmt.Errorf("read event: %w", err)
			}
			tempDir, err := filepath.Abs(sc.TempDir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(tempDir, 0o755); err != nil {
				return err
			}

			loader, err := a.newLoader()
			if err != nil {
				return err
			}
			defer loader.Close()

			log := logger.Adapter(a.log)
			task := stress.ESocialTask(loader, stress.Scenario{
				TempDir:     tempDir,
				LogPath:     a.cfg.ESocial.LogPath,
				SchemasPath: a.cfg.ESocial.SchemasPath,
				CryptKey:    a.cfg.ESocial.CryptKey(),
				EventXML:    string(event),
				Group:       sc.Group,
				Logger:      log,
			})
			rep, err := stress.Run(cmd.Context(), task, stress.Options{
				Tasks:           sc.Tasks,
				Concurrency:     sc.Concurrency,
				MaxRetries:      sc.MaxRetries,
				InitialInterval: sc.InitialInterval,
				MaxInterval:     sc.MaxInterval,
				Logger:          log,
			})
			if rep != nil {
				printReport(cmd, rep)
			}
			if err != nil {
				return err
			}
			if rep.Failed > 0 {
				return fmt.Errorf("%d of %d tasks failed", rep.Failed, rep.Total)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&tasks, "tasks", 0, "number of sessions (default from config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "sessions in flight (default from config)")
	cmd.Flags().StringVar(&eventFile, "event", "", "event XML file (default from config)")
	return cmd
}

func printReport(cmd *cobra.Command, rep *stress.Report) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "total\t%d\n", rep.Total)
	fmt.Fprintf(w, "succeeded\t%d\n", rep.Succeeded)
	fmt.Fprintf(w, "failed\t%d\n", rep.Failed)
	fmt.Fprintf(w, "already loading\t%d\n", rep.AlreadyLoading)
	fmt.Fprintf(w, "elapsed\t%s\n", rep.Elapsed)
	for _, c := range rep.Categories() {
		fmt.Fprintf(w, "  %s\t%d\n", c, rep.Errors[c])
	}
	_ = w.Flush()
}
