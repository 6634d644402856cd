// Package aging buckets open receivables and payables by days past due.
package aging

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/model"
)

// Bucket is an aging bucket label.
type Bucket string

const (
	BucketCurrent Bucket = "current"
	Bucket1To30   Bucket = "1-30"
	Bucket31To60  Bucket = "31-60"
	Bucket61To90  Bucket = "61-90"
	BucketOver90  Bucket = "90+"
)

// Buckets lists the buckets in reporting order.
var Buckets = []Bucket{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// BucketFor places a days-past-due count. Not yet due (<= 0) is current.
func BucketFor(daysPastDue int) Bucket {
	switch {
	case daysPastDue <= 0:
		return BucketCurrent
	case daysPastDue <= 30:
		return Bucket1To30
	case daysPastDue <= 60:
		return Bucket31To60
	case daysPastDue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Detail is one open entry.
type Detail struct {
	EntryID        string
	CounterpartyID string
	InvoiceNo      string
	InvoiceDate    time.Time
	DueDate        time.Time
	Total          decimal.Decimal
	Paid           decimal.Decimal
	Open           decimal.Decimal
	DaysPastDue    int
	Bucket         Bucket
}

// Summary totals one bucket.
type Summary struct {
	Bucket Bucket
	Count  int
	Amount decimal.Decimal
}

// CounterpartyTotal is the open balance owed by or to one counterparty.
type CounterpartyTotal struct {
	CounterpartyID string
	Open           decimal.Decimal
	Over90         decimal.Decimal
}

// Schedule is the aging of one ledger side as of a date.
type Schedule struct {
	Kind    model.SourceKind
	AsOf    time.Time
	Details []Detail
	Summary []Summary
	Total   decimal.Decimal

	ByCounterparty []CounterpartyTotal
}

// Build ages entries as of asOf. Invoices dated after asOf are ignored and
// payments dated after asOf are not yet applied. Entries are aged in
// parallel; details are returned ordered by entry id.
func Build(ctx context.Context, kind model.SourceKind, entries []model.SourceEntry, asOf time.Time) (*Schedule, error) {
	results := make([]*Detail, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range entries {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = age(entries[i], asOf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Schedule{Kind: kind, AsOf: asOf, Total: decimal.Zero}
	for _, d := range results {
		if d != nil {
			s.Details = append(s.Details, *d)
		}
	}
	sort.SliceStable(s.Details, func(i, j int) bool { return s.Details[i].EntryID < s.Details[j].EntryID })

	byBucket := make(map[Bucket]*Summary, len(Buckets))
	for _, b := range Buckets {
		byBucket[b] = &Summary{Bucket: b, Amount: decimal.Zero}
	}
	parties := make(map[string]*CounterpartyTotal)
	for _, d := range s.Details {
		sum := byBucket[d.Bucket]
		sum.Count++
		sum.Amount = sum.Amount.Add(d.Open)
		s.Total = s.Total.Add(d.Open)

		p, ok := parties[d.CounterpartyID]
		if !ok {
			p = &CounterpartyTotal{CounterpartyID: d.CounterpartyID, Open: decimal.Zero, Over90: decimal.Zero}
			parties[d.CounterpartyID] = p
		}
		p.Open = p.Open.Add(d.Open)
		if d.Bucket == BucketOver90 {
			p.Over90 = p.Over90.Add(d.Open)
		}
	}
	for _, b := range Buckets {
		s.Summary = append(s.Summary, *byBucket[b])
	}
	for _, p := range parties {
		s.ByCounterparty = append(s.ByCounterparty, *p)
	}
	sort.Slice(s.ByCounterparty, func(i, j int) bool {
		return s.ByCounterparty[i].CounterpartyID < s.ByCounterparty[j].CounterpartyID
	})
	return s, nil
}

func age(e model.SourceEntry, asOf time.Time) *Detail {
	open, ok := e.OpenAsOf(asOf)
	if !ok {
		return nil
	}
	days := DaysBetween(e.DueDate, asOf)
	return &Detail{
		EntryID:        e.EntryID,
		CounterpartyID: e.CounterpartyID,
		InvoiceNo:      e.InvoiceNo,
		InvoiceDate:    e.InvoiceDate,
		DueDate:        e.DueDate,
		Total:          e.Total(),
		Paid:           e.PaidAsOf(asOf),
		Open:           open,
		DaysPastDue:    days,
		Bucket:         BucketFor(days),
	}
}

// Reconcile checks that the bucket totals add up to the open balance of the
// details.
func (s *Schedule) Reconcile() error {
	buckets, details := decimal.Zero, decimal.Zero
	for _, b := range s.Summary {
		buckets = buckets.Add(b.Amount)
	}
	for _, d := range s.Details {
		details = details.Add(d.Open)
	}
	if !buckets.Equal(details) {
		return &apperrors.ReconciliationError{
			Check:    "aging_" + string(s.Kind),
			Expected: details,
			Actual:   buckets,
			Detail:   "bucket totals differ from open balances",
		}
	}
	return nil
}

// Bucket returns the summary of one bucket.
func (s *Schedule) Bucket(b Bucket) Summary {
	for _, sum := range s.Summary {
		if sum.Bucket == b {
			return sum
		}
	}
	return Summary{Bucket: b, Amount: decimal.Zero}
}

// Share returns the fraction of the open total sitting in bucket b. It is
// invalid when nothing is open.
func (s *Schedule) Share(b Bucket) decimal.NullDecimal {
	if s.Total.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(s.Bucket(b).Amount.Div(s.Total))
}
