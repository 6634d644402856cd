package schema

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cleared-dev/glengine/internal/apperrors"
)

// Policy decides what happens to a row that fails validation.
type Policy string

const (
	Abort Policy = "abort"
	Skip  Policy = "skip"
)

// ParsePolicy parses an on_invalid_row value.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case Abort:
		return Abort, nil
	case Skip:
		return Skip, nil
	}
	return "", &apperrors.ConfigError{Field: "validation.on_invalid_row", Reason: fmt.Sprintf("must be abort or skip, got %q", s)}
}

// Collector applies a Policy to validation failures as they are found.
type Collector struct {
	policy   Policy
	log      *zap.Logger
	failures []apperrors.RowFailure
}

// NewCollector returns a Collector. A nil logger discards skip warnings.
func NewCollector(policy Policy, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{policy: policy, log: log}
}

// Add records failures. Under Abort any failure returns a
// *apperrors.SchemaValidationError; under Skip failures are logged and kept,
// except table-level (row 0) failures, which always abort since no row of
// the table can be read.
func (c *Collector) Add(failures ...apperrors.RowFailure) error {
	if len(failures) == 0 {
		return nil
	}
	tableLevel := false
	for _, f := range failures {
		if f.Row == 0 {
			tableLevel = true
		}
	}
	if c.policy != Skip || tableLevel {
		all := append(append([]apperrors.RowFailure(nil), c.failures...), failures...)
		return &apperrors.SchemaValidationError{Failures: all}
	}
	for _, f := range failures {
		c.log.Warn("skipping invalid row",
			zap.String("table", f.Table),
			zap.Int("row", f.Row),
			zap.String("column", f.Column),
			zap.String("reason", f.Reason),
		)
	}
	c.failures = append(c.failures, failures...)
	return nil
}

// Failures returns every failure recorded under Skip.
func (c *Collector) Failures() []apperrors.RowFailure {
	return append([]apperrors.RowFailure(nil), c.failures...)
}
