package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/glengine/internal/importer"
	"github.com/cleared-dev/glengine/internal/pipeline"
	"github.com/cleared-dev/glengine/internal/report"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the input tables and account mapping without building the books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, log, err := settings(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cfg, err := loadConfig(s.ConfigPath)
			if err != nil {
				return err
			}
			tables, err := importer.Load(s.InputDir, log)
			if err != nil {
				return err
			}
			in := pipeline.Input{Tables: tables}
			opts := pipeline.Options{
				Config:       cfg,
				OnInvalidRow: s.OnInvalidRow,
				Logger:       log,
			}
			failures, err := pipeline.Validate(cmd.Context(), in, opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(failures) == 0 {
				fmt.Fprintln(w, "Input is valid")
			} else {
				fmt.Fprintf(w, "%d invalid row(s) would be skipped:\n", len(failures))
				for _, f := range failures {
					fmt.Fprintf(w, "  %s\n", f)
				}
			}

			if s.JournalPath == "" {
				return nil
			}
			return replayJournal(cmd, s.JournalPath, in, opts)
		},
	}

	addInputFlags(cmd)
	cmd.Flags().String("journal", "", "also replay a Journal.csv written by an earlier run against the chart")
	return cmd
}

func replayJournal(cmd *cobra.Command, path string, in pipeline.Input, opts pipeline.Options) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	rp, err := pipeline.ReplayJournal(cmd.Context(), in, opts, f)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if n := len(rp.Problems); n > 0 {
		fmt.Fprintf(w, "Journal %s has %d problem(s):\n", path, n)
		for _, p := range rp.Problems {
			fmt.Fprintf(w, "  %s\n", p)
		}
		return fmt.Errorf("journal %s failed audit", path)
	}
	if rp.TrialBalance == nil {
		fmt.Fprintf(w, "Journal %s has no entries\n", path)
		return nil
	}
	fmt.Fprintf(w, "Journal replays %d entries; debits %s, credits %s\n",
		len(rp.Entries), report.Money(rp.TrialBalance.TotalDebit), report.Money(rp.TrialBalance.TotalCredit))
	return nil
}
