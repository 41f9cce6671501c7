// Package heuristic projects metrics from area metadata alone, for areas
// without a usable history series.
package heuristic

import (
	"math"
	"time"

	"nestnav/forecaster/internal/models"
)

// Generator produces months consecutive monthly estimates starting at start.
type Generator func(meta *models.AreaMetadata, start time.Time, months int) []models.Prediction

// For returns the generator of a metric.
func For(metric models.Metric) Generator {
	switch metric {
	case models.MetricPrice:
		return Price
	case models.MetricPlots:
		return Plots
	case models.MetricRentals:
		return Rentals
	default:
		return nil
	}
}

// Plots decays the seeded plot count with a six month wobble, smoothing the
// running level toward each new estimate.
func Plots(meta *models.AreaMetadata, start time.Time, months int) []models.Prediction {
	current := math.Max(meta.Score(models.ScoreAvailablePlots, 0), 0)
	return generate(start, months, func(i int) float64 {
		seasonal := 1 + 0.08*(0.5-float64(i%6)/5)
		drift := -0.01 * float64(i)
		est := math.Max(0, math.Round(current*seasonal+drift*current))
		current = math.Max(0, math.Round(0.95*current+0.05*est))
		return est
	})
}

// RentalsBase is the rental level implied by the cost, services and
// connectivity scores, each defaulting to 5 when absent or zero.
func RentalsBase(meta *models.AreaMetadata) float64 {
	cost := meta.ScoreOrDefault(models.ScoreCost, 5)
	services := meta.ScoreOrDefault(models.ScoreServices, 5)
	connectivity := meta.ScoreOrDefault(models.ScoreConnectivity, 5)
	return math.Round(100 + (10-cost)*40 + services*20 + connectivity*15)
}

// Rentals grows the score-derived base by 1% a month with a yearly wobble.
func Rentals(meta *models.AreaMetadata, start time.Time, months int) []models.Prediction {
	base := RentalsBase(meta)
	return generate(start, months, func(i int) float64 {
		seasonal := 1 + 0.05*(0.5-float64(i%12)/11)
		growth := 1 + 0.01*float64(i)
		return math.Max(0, math.Round(base*seasonal*growth))
	})
}

// PriceBase is the expected synthetic base price for an area: the cost score
// (default 6) term plus the midpoint of the synthetic noise range.
func PriceBase(meta *models.AreaMetadata) float64 {
	return 1_000_000*(12-meta.Score(models.ScoreCost, 6)) + 100_000
}

// Price grows the cost-derived base price by 4% a year.
func Price(meta *models.AreaMetadata, start time.Time, months int) []models.Prediction {
	base := PriceBase(meta)
	return generate(start, months, func(i int) float64 {
		growth := 1 + 0.04*(float64(i)/12)
		return math.Max(0, math.Round(base*growth))
	})
}

func generate(start time.Time, months int, next func(i int) float64) []models.Prediction {
	if months < 0 {
		months = 0
	}
	first := models.MonthStart(start)
	out := make([]models.Prediction, months)
	for i := range out {
		out[i] = models.Prediction{
			Time:     models.AddMonths(first, i),
			Estimate: next(i),
		}
	}
	return out
}
