package pipeline

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/cleared-dev/glengine/internal/journal"
	"github.com/cleared-dev/glengine/internal/ledger"
	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/schema"
)

// Replay is a Journal table read back and checked against the chart of
// accounts of the current input.
type Replay struct {
	Entries []model.JournalEntry
	// Problems are the audit findings. When there are any, no ledger is
	// built and TrialBalance is nil.
	Problems     []journal.AuditError
	TrialBalance *ledger.TrialBalance
}

// ReplayJournal reads a Journal table written by an earlier run and rebuilds
// the ledger from it. Every entry is rebuilt through journal.NewEntry, so an
// edited file that no longer balances fails the read.
func ReplayJournal(ctx context.Context, in Input, opts Options, journalCSV io.Reader) (*Replay, error) {
	r, err := prepare(ctx, in, opts)
	if err != nil {
		return nil, err
	}
	entries, err := journal.ReadJournal(journalCSV)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	rp := &Replay{Entries: entries, Problems: journal.Audit(entries, r.res.Chart)}
	if len(rp.Problems) > 0 || len(entries) == 0 {
		r.log.Warn("journal replay stopped",
			zap.Int("entries", len(entries)),
			zap.Int("problems", len(rp.Problems)),
		)
		return rp, nil
	}

	l, err := ledger.Build(ctx, r.res.Chart, entries)
	if err != nil {
		return nil, fmt.Errorf("building ledger: %w", err)
	}
	if err := l.AssertClosure(); err != nil {
		return nil, err
	}
	asOf := l.LatestDate()
	if rp.TrialBalance, err = l.TrialBalance(asOf); err != nil {
		return nil, err
	}
	if err := r.stage(ctx, "replay",
		zap.Int("entries", len(entries)),
		zap.String("as_of", asOf.Format(schema.DateFormat)),
	); err != nil {
		return nil, err
	}
	return rp, nil
}
