package forecast

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/glengine/internal/apperrors"
)

func history(values ...int64) []Observation {
	periods := []string{"2024-11", "2024-12", "2025-01", "2025-02", "2025-03"}
	out := make([]Observation, len(values))
	for i, v := range values {
		out[i] = Observation{Period: periods[i], Value: decimal.NewFromInt(v)}
	}
	return out
}

func TestSmooth(t *testing.T) {
	got := Smooth([]float64{100, 110, 105, 120}, 0.3)
	want := []float64{100, 103, 103.6, 108.52}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "S_%d", i+1)
	}
	assert.Nil(t, Smooth(nil, 0.3))
}

func TestSmoothAlphaOneFollowsSeries(t *testing.T) {
	xs := []float64{5, 9, 2}
	assert.Equal(t, xs, Smooth(xs, 1))
}

func TestForecast(t *testing.T) {
	res, err := Forecast(history(100, 110, 105, 120), 0.3, 6)
	require.NoError(t, err)
	require.Len(t, res.Points, 10)
	assert.Empty(t, res.Note)

	first := res.Points[0]
	assert.Equal(t, "2024-11", first.Period)
	assert.True(t, first.Actual.Valid)
	assert.False(t, first.Projected)

	proj := res.Projection()
	require.Len(t, proj, 6)
	assert.Equal(t, "2025-03", proj[0].Period)
	assert.Equal(t, "2025-08", proj[5].Period)
	for _, p := range proj {
		assert.InDelta(t, 108.52, p.Smoothed, 1e-9)
		assert.False(t, p.Actual.Valid)
	}

	last, ok := res.Last()
	require.True(t, ok)
	assert.True(t, last.Equal(decimal.NewFromInt(120)))
}

func TestForecastInsufficientHistory(t *testing.T) {
	for _, h := range [][]Observation{nil, history(100)} {
		res, err := Forecast(h, 0.3, 6)
		require.Error(t, err)
		var ih *apperrors.InsufficientHistoryError
		require.True(t, errors.As(err, &ih))
		assert.Equal(t, len(h), ih.Periods)
		assert.Equal(t, MinPeriods, ih.Required)
		assert.False(t, apperrors.IsFatal(err))

		require.NotNil(t, res)
		assert.Empty(t, res.Points)
		assert.Contains(t, res.Note, "insufficient history")
	}
}

func TestForecastRejectsBadParameters(t *testing.T) {
	tests := []struct {
		name    string
		alpha   float64
		horizon int
	}{
		{"zero alpha", 0, 6},
		{"alpha above one", 1.5, 6},
		{"zero horizon", 0.3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Forecast(history(1, 2), tt.alpha, tt.horizon)
			assert.ErrorIs(t, err, apperrors.ErrConfig)
		})
	}
}
