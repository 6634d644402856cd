package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cleared-dev/glengine/internal/auditlog"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/gitops"
	"github.com/cleared-dev/glengine/internal/importer"
	"github.com/cleared-dev/glengine/internal/pipeline"
	"github.com/cleared-dev/glengine/internal/report"
	"github.com/cleared-dev/glengine/internal/schema"
)

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "input", "directory holding the input CSV files")
	cmd.Flags().String("on-invalid-row", "", "abort or skip invalid input rows (overrides glengine.yaml)")
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the books from the input directory and write every output table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, log, err := settings(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return runRun(cmd, s, log)
		},
	}

	addInputFlags(cmd)
	cmd.Flags().String("output", "output", "directory to write output tables to")
	cmd.Flags().String("as-of", "", "cutoff date YYYY-MM-DD (default: latest transaction date)")
	cmd.Flags().String("period-start", "", "income statement start date YYYY-MM-DD (default: fiscal year start)")
	cmd.Flags().String("sqlite", "", "also write the output tables to this SQLite database")
	cmd.Flags().Bool("commit", false, "commit the output directory to git")

	return cmd
}

func runRun(cmd *cobra.Command, s *config.Settings, log *zap.Logger) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(s.ConfigPath)
	if err != nil {
		return err
	}

	audit := auditlog.NewRun(nil)
	log = log.With(zap.String("run_id", audit.ID.String()))
	audit.Record("", auditlog.ActionRunStarted, fmt.Sprintf("input=%s output=%s", s.InputDir, s.OutputDir))

	fail := func(err error) error {
		audit.Record("", auditlog.ActionRunFailed, err.Error())
		if aerr := auditlog.Append(s.OutputDir, audit.Entries()); aerr != nil {
			log.Warn("writing audit log", zap.Error(aerr))
		}
		log.Error("run failed", zap.Error(err))
		return err
	}

	tables, err := importer.Load(s.InputDir, log)
	if err != nil {
		return fail(err)
	}
	res, err := pipeline.Run(ctx, pipeline.Input{Tables: tables}, pipeline.Options{
		Config:       cfg,
		AsOf:         s.AsOf,
		PeriodStart:  s.PeriodStart,
		OnInvalidRow: s.OnInvalidRow,
		Logger:       log,
		Clock:        time.Now,
	})
	if err != nil {
		return fail(err)
	}
	for _, st := range res.Stages {
		audit.Record(st.Name, auditlog.ActionStage, st.Details)
	}

	out := res.Tables()
	if err := report.Publish(ctx, report.Sinks{CSVDir: s.OutputDir, SQLitePath: s.SQLitePath}, out); err != nil {
		return fail(err)
	}
	asOf := res.AsOf.Format(schema.DateFormat)
	audit.Record("", auditlog.ActionRunSucceeded, fmt.Sprintf("%d tables as of %s", len(out), asOf))
	if err := auditlog.Append(s.OutputDir, audit.Entries()); err != nil {
		return err
	}

	if s.Commit || cfg.Git.AutoCommit {
		hash, err := gitops.CommitAll(ctx, s.OutputDir, "books as of "+asOf,
			gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail})
		if err != nil {
			return err
		}
		if hash != "" {
			log.Info("committed output", zap.String("commit", hash))
			// The commit already holds the log up to run_succeeded; this row
			// is picked up by the next commit.
			n := len(audit.Entries())
			audit.Record("", auditlog.ActionCommitted, hash)
			if err := auditlog.Append(s.OutputDir, audit.Entries()[n:]); err != nil {
				return err
			}
		}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Books as of %s (period from %s)\n", asOf, res.PeriodStart.Format(schema.DateFormat))
	fmt.Fprintf(w, "  journal entries: %d\n", len(res.Journal))
	fmt.Fprintf(w, "  net income:      %s\n", report.Money(res.Income.NetIncome))
	fmt.Fprintf(w, "  total assets:    %s\n", report.Money(res.Balance.TotalAssets))
	fmt.Fprintf(w, "  insights:        %d\n", len(res.Insights))
	if n := len(res.Failures); n > 0 {
		fmt.Fprintf(w, "  skipped rows:    %d (see %s.csv)\n", n, report.TableValidationReport)
	}
	fmt.Fprintf(w, "Wrote %d tables to %s\n", len(out), s.OutputDir)
	return nil
}
