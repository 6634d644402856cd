// Package forecast projects monthly revenue with simple exponential
// smoothing.
package forecast

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/apperrors"
)

// MinPeriods is the shortest history a forecast is made from.
const MinPeriods = 2

// DefaultAlpha is the smoothing factor used when none is configured.
const DefaultAlpha = 0.3

const periodLayout = "2006-01"

// Observation is one historical period.
type Observation struct {
	Period string // "2006-01"
	Value  decimal.Decimal
}

// Point is one row of a forecast: either an observed period with its
// smoothed level, or a projected period.
type Point struct {
	Period    string
	Actual    decimal.NullDecimal // invalid for projected periods
	Smoothed  float64
	Projected bool
}

// Result is a forecast, or the reason none was made.
type Result struct {
	Alpha   float64
	Horizon int
	Points  []Point
	Note    string // set when the forecast was skipped
}

// Projection returns only the projected points.
func (r *Result) Projection() []Point {
	var out []Point
	for _, p := range r.Points {
		if p.Projected {
			out = append(out, p)
		}
	}
	return out
}

// Last returns the last observed value and whether there was one.
func (r *Result) Last() (decimal.Decimal, bool) {
	for i := len(r.Points) - 1; i >= 0; i-- {
		if !r.Points[i].Projected {
			return r.Points[i].Actual.Decimal, true
		}
	}
	return decimal.Zero, false
}

// Smooth applies S_t = alpha*x_t + (1-alpha)*S_{t-1}, seeded with S_1 = x_1.
func Smooth(xs []float64, alpha float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	out := make([]float64, len(xs))
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// Project repeats the final smoothed level for horizon periods.
func Project(level float64, horizon int) []float64 {
	out := make([]float64, horizon)
	for i := range out {
		out[i] = level
	}
	return out
}

// Forecast smooths history and projects horizon periods past its last
// period. With fewer than MinPeriods observations it returns a Result
// holding only the explanation alongside an InsufficientHistoryError.
func Forecast(history []Observation, alpha float64, horizon int) (*Result, error) {
	if alpha <= 0 || alpha > 1 {
		return nil, &apperrors.ConfigError{Field: "forecast.alpha", Reason: fmt.Sprintf("must be in (0, 1], got %g", alpha)}
	}
	if horizon <= 0 {
		return nil, &apperrors.ConfigError{Field: "forecast.horizon", Reason: "must be positive"}
	}

	res := &Result{Alpha: alpha, Horizon: horizon}
	if len(history) < MinPeriods {
		err := &apperrors.InsufficientHistoryError{Periods: len(history), Required: MinPeriods}
		res.Note = err.Error()
		return res, err
	}

	xs := make([]float64, len(history))
	for i, o := range history {
		xs[i] = o.Value.InexactFloat64()
	}
	smoothed := Smooth(xs, alpha)
	for i, o := range history {
		res.Points = append(res.Points, Point{
			Period:   o.Period,
			Actual:   decimal.NewNullDecimal(o.Value),
			Smoothed: smoothed[i],
		})
	}

	last, err := time.Parse(periodLayout, history[len(history)-1].Period)
	if err != nil {
		return nil, fmt.Errorf("parsing period %q: %w", history[len(history)-1].Period, err)
	}
	for i, v := range Project(smoothed[len(smoothed)-1], horizon) {
		res.Points = append(res.Points, Point{
			Period:    last.AddDate(0, i+1, 0).Format(periodLayout),
			Smoothed:  v,
			Projected: true,
		})
	}
	return res, nil
}
