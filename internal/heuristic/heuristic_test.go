package heuristic

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestnav/forecaster/internal/models"
)

var start = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

func meta(scores map[string]float64) *models.AreaMetadata {
	return &models.AreaMetadata{Location: "Adyar", Scores: scores}
}

func assertWellFormed(t *testing.T, preds []models.Prediction, months int) {
	t.Helper()
	require.Len(t, preds, months)
	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), preds[0].Time)
	for i, p := range preds {
		assert.GreaterOrEqual(t, p.Estimate, 0.0)
		assert.Equal(t, math.Round(p.Estimate), p.Estimate, "estimate %d is not integral", i)
		if i > 0 {
			assert.Equal(t, models.AddMonths(preds[i-1].Time, 1), p.Time)
		}
	}
}

func TestPlotsStable(t *testing.T) {
	preds := Plots(meta(map[string]float64{models.ScoreAvailablePlots: 100}), start, 60)
	assertWellFormed(t, preds, 60)
	for _, p := range preds {
		assert.LessOrEqual(t, p.Estimate, 200.0)
	}
	// i=0: seasonal 1.04, drift 0 -> 104
	assert.Equal(t, 104.0, preds[0].Estimate)
	// current -> round(95 + 5.2) = 100; i=1: seasonal 1.024, drift -0.01 -> round(101.4) = 101
	assert.Equal(t, 101.0, preds[1].Estimate)
}

func TestPlotsWithoutSeed(t *testing.T) {
	preds := Plots(meta(nil), start, 5)
	assertWellFormed(t, preds, 5)
	for _, p := range preds {
		assert.Zero(t, p.Estimate)
	}

	negative := Plots(meta(map[string]float64{models.ScoreAvailablePlots: -40}), start, 3)
	for _, p := range negative {
		assert.Zero(t, p.Estimate)
	}
}

func TestRentalsBase(t *testing.T) {
	// 100 + (10-5)*40 + 5*20 + 5*15
	assert.Equal(t, 475.0, RentalsBase(meta(nil)))
	assert.Equal(t, 475.0, RentalsBase(nil))
	assert.Equal(t, 475.0, RentalsBase(meta(map[string]float64{
		models.ScoreCost: 5, models.ScoreServices: 5, models.ScoreConnectivity: 5,
	})))

	assert.Equal(t, 475.0, RentalsBase(meta(map[string]float64{
		models.ScoreCost: 0, models.ScoreServices: 0, models.ScoreConnectivity: 0,
	})), "zero scores count as absent")
	assert.Equal(t, 475.0, RentalsBase(meta(map[string]float64{models.ScoreServices: 0})))

	prev := math.Inf(1)
	for cost := 1.0; cost <= 10; cost++ {
		base := RentalsBase(meta(map[string]float64{models.ScoreCost: cost}))
		assert.Less(t, base, prev, "lower cost score must give a higher base")
		prev = base
	}
}

func TestRentals(t *testing.T) {
	preds := Rentals(meta(nil), start, 24)
	assertWellFormed(t, preds, 24)
	// i=0: seasonal 1.025 -> round(486.875)
	assert.Equal(t, 487.0, preds[0].Estimate)
	// i=11: seasonal 0.975, growth 1.11 -> round(514.04...)
	assert.Equal(t, math.Round(475*0.975*1.11), preds[11].Estimate)
}

func TestPrice(t *testing.T) {
	preds := Price(meta(map[string]float64{models.ScoreCost: 7}), start, 13)
	assertWellFormed(t, preds, 13)
	assert.Equal(t, 5_100_000.0, preds[0].Estimate)
	assert.Equal(t, 5_304_000.0, preds[12].Estimate)

	assert.Equal(t, 6_100_000.0, PriceBase(nil))
}

func TestFor(t *testing.T) {
	for _, m := range models.Metrics {
		assert.NotNil(t, For(m), m.String())
	}
	assert.Nil(t, For(models.Metric("weather")))
	assert.Empty(t, Rentals(nil, start, 0))
}
