package trend

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"nestnav/forecaster/internal/models"
)

const (
	// SeasonalPeriod is the cycle length of the seasonal component.
	SeasonalPeriod = 12
	// DefaultIntervalWidth is the coverage of the reported band.
	DefaultIntervalWidth = 0.8

	backfitIterations = 10
)

// Options configures a Model.
type Options struct {
	// IntervalWidth is the coverage of the prediction interval, in (0, 1).
	IntervalWidth float64
	// MinSeasonalPoints is the number of observations required before a
	// seasonal component is fitted.
	MinSeasonalPoints int
}

// Model fits and extrapolates one series per call. It holds no per-series
// state and is safe for concurrent use.
type Model struct {
	z                 float64
	minSeasonalPoints int
}

// Fit is a fitted series.
type Fit struct {
	Start     time.Time
	Intercept float64
	Slope     float64
	Seasonal  [SeasonalPeriod]float64
	Sigma     float64

	n    int
	xbar float64
	sxx  float64
}

func NewModel(opts Options) *Model {
	if opts.IntervalWidth <= 0 || opts.IntervalWidth >= 1 {
		opts.IntervalWidth = DefaultIntervalWidth
	}
	if opts.MinSeasonalPoints <= 0 {
		opts.MinSeasonalPoints = 2 * SeasonalPeriod
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	return &Model{
		z:                 normal.Quantile(0.5 + opts.IntervalWidth/2),
		minSeasonalPoints: opts.MinSeasonalPoints,
	}
}

// FitAndPredict fits series and returns one prediction per observed point
// followed by horizon predictions for the months after the last observation.
// Future predictions are stamped at the last day of their month.
func (m *Model) FitAndPredict(series []models.TimeSeriesPoint, horizon int) ([]models.Prediction, error) {
	points := models.NormalizePoints(series)
	fit, err := m.Fit(points)
	if err != nil {
		return nil, err
	}
	if horizon < 0 {
		horizon = 0
	}

	out := make([]models.Prediction, 0, len(points)+horizon)
	for _, p := range points {
		out = append(out, m.predict(fit, p.Time, p.Time))
	}

	last := points[len(points)-1].Time
	for h := 1; h <= horizon; h++ {
		monthStart := models.AddMonths(last, h)
		out = append(out, m.predict(fit, monthStart, models.MonthEnd(monthStart)))
	}
	return out, nil
}

// Fit estimates trend, seasonality and residual spread for normalized points.
func (m *Model) Fit(points []models.TimeSeriesPoint) (*Fit, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 points, got %d: %w", len(points), models.ErrInsufficientData)
	}

	start := models.MonthStart(points[0].Time)
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(models.MonthsBetween(start, p.Time))
		ys[i] = p.Value
	}
	if xs[len(xs)-1] == xs[0] {
		return nil, fmt.Errorf("all points fall in the same month: %w", models.ErrInsufficientData)
	}

	fit := &Fit{Start: start, n: len(points)}
	fit.xbar = stat.Mean(xs, nil)
	for _, x := range xs {
		fit.sxx += (x - fit.xbar) * (x - fit.xbar)
	}

	// Backfit: alternate the trend regression on deseasonalized values with
	// re-estimating the seasonal indices from the detrended residuals.
	seasonal := len(points) >= m.minSeasonalPoints
	adjusted := make([]float64, len(points))
	residuals := make([]float64, len(points))
	for iter := 0; iter < backfitIterations; iter++ {
		for i, p := range points {
			adjusted[i] = ys[i] - fit.Seasonal[monthIndex(p.Time)]
		}
		fit.Intercept, fit.Slope = stat.LinearRegression(xs, adjusted, nil, false)
		if !seasonal {
			break
		}
		for i := range points {
			residuals[i] = ys[i] - (fit.Intercept + fit.Slope*xs[i])
		}
		fit.Seasonal = seasonalIndices(points, residuals)
	}

	for i, p := range points {
		residuals[i] = ys[i] - (fit.Intercept + fit.Slope*xs[i]) - fit.Seasonal[monthIndex(p.Time)]
	}

	if len(residuals) >= 3 {
		fit.Sigma = stat.StdDev(residuals, nil)
	}
	return fit, nil
}

// seasonalIndices averages residuals per calendar month and centers them.
func seasonalIndices(points []models.TimeSeriesPoint, residuals []float64) [SeasonalPeriod]float64 {
	var sums [SeasonalPeriod]float64
	var counts [SeasonalPeriod]int
	for i, p := range points {
		idx := monthIndex(p.Time)
		sums[idx] += residuals[i]
		counts[idx]++
	}

	var pattern [SeasonalPeriod]float64
	mean, filled := 0.0, 0
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] = sums[i] / float64(counts[i])
			mean += pattern[i]
			filled++
		}
	}
	if filled == 0 {
		return pattern
	}
	mean /= float64(filled)
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] -= mean
		}
	}
	return pattern
}

func monthIndex(t time.Time) int {
	return int(t.UTC().Month()) - 1
}

// predict evaluates the fit for the month containing at, stamping the result with stamp.
func (m *Model) predict(fit *Fit, at, stamp time.Time) models.Prediction {
	x := float64(models.MonthsBetween(fit.Start, at))
	estimate := fit.Intercept + fit.Slope*x + fit.Seasonal[monthIndex(at)]

	spread := 0.0
	if fit.Sigma > 0 && fit.sxx > 0 {
		spread = m.z * fit.Sigma * math.Sqrt(1+1/float64(fit.n)+(x-fit.xbar)*(x-fit.xbar)/fit.sxx)
	}
	lower := estimate - spread
	upper := estimate + spread

	return models.Prediction{
		Time:     stamp,
		Estimate: estimate,
		Lower:    &lower,
		Upper:    &upper,
	}
}
