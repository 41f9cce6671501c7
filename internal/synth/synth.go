// Package synth fabricates multi-year monthly history tables from area
// metadata. Output is random unless a seeded source is supplied.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"nestnav/forecaster/internal/models"
)

var (
	// PriceStart is the first month of the synthetic price history.
	PriceStart = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	// SupplyStart is the first month of the synthetic plots and rentals history.
	SupplyStart = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// MinPriceMonths guarantees four years of price history.
const MinPriceMonths = 48

// Writer persists a generated history table.
type Writer interface {
	WriteSeries(metric models.Metric, rows []models.SeriesRow) error
}

// Summary reports what a run produced.
type Summary struct {
	Areas int                   `json:"areas"`
	Rows  map[models.Metric]int `json:"rows"`
}

// Synthesizer generates and writes the three history tables.
type Synthesizer struct {
	writer Writer
	rng    *rand.Rand
	logger *logrus.Logger
	now    func() time.Time
}

// NewSynthesizer builds a synthesizer. A nil rng is replaced by one seeded
// from the clock, so separate runs produce different histories.
func NewSynthesizer(writer Writer, rng *rand.Rand, logger *logrus.Logger) *Synthesizer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>17|1))
	}
	return &Synthesizer{writer: writer, rng: rng, logger: logger, now: time.Now}
}

// NewSeededRand returns a reproducible random source.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Run generates every table for the given areas and writes them in the
// order price, plots, rentals.
func (s *Synthesizer) Run(areas []*models.AreaMetadata) (*Summary, error) {
	today := s.now()
	summary := &Summary{Rows: make(map[models.Metric]int, len(models.Metrics))}
	for _, a := range areas {
		if models.AreaKey(a.Location) != "" {
			summary.Areas++
		}
	}

	tables := []struct {
		metric   models.Metric
		generate func([]*models.AreaMetadata, *rand.Rand, time.Time) []models.SeriesRow
	}{
		{models.MetricPrice, GeneratePrice},
		{models.MetricPlots, GeneratePlots},
		{models.MetricRentals, GenerateRentals},
	}

	for _, table := range tables {
		rows := table.generate(areas, s.rng, today)
		if err := s.writer.WriteSeries(table.metric, rows); err != nil {
			return summary, fmt.Errorf("failed to write %s history: %w", table.metric, err)
		}
		summary.Rows[table.metric] = len(rows)
		s.logger.WithFields(logrus.Fields{
			"metric": table.metric,
			"areas":  summary.Areas,
			"rows":   len(rows),
		}).Info("Generated synthetic history")
	}
	return summary, nil
}

// PriceMonths is the number of price months from PriceStart through today's month.
func PriceMonths(today time.Time) int {
	months := models.MonthsBetween(PriceStart, today) + 1
	if months < MinPriceMonths {
		return MinPriceMonths
	}
	return months
}

// SupplyMonths is the number of plots and rentals months from SupplyStart
// through today's month.
func SupplyMonths(today time.Time) int {
	months := models.MonthsBetween(SupplyStart, today) + 1
	if months < 0 {
		return 0
	}
	return months
}

// GeneratePrice draws a base price from the cost score (lower cost score,
// higher price) and grows it about 4% a year with ±3% monthly noise.
func GeneratePrice(areas []*models.AreaMetadata, rng *rand.Rand, today time.Time) []models.SeriesRow {
	months := PriceMonths(today)
	var rows []models.SeriesRow
	for _, area := range areas {
		name, ok := areaName(area)
		if !ok {
			continue
		}
		cost := area.Score(models.ScoreCost, 6)
		basePrice := 1_000_000*(12-cost) + float64(rng.IntN(200_000))
		for m := 0; m < months; m++ {
			growth := 1 + 0.04*(float64(m)/12)
			seasonal := 1 + 0.06*(rng.Float64()-0.5)
			rows = append(rows, models.SeriesRow{
				Area:   name,
				Period: models.AddMonths(PriceStart, m),
				Value:  math.Round(basePrice * growth * seasonal),
			})
		}
	}
	return rows
}

// GeneratePlots lets the plot count drift down about 2% a year with ±7.5%
// monthly noise, smoothing the running level toward each draw.
func GeneratePlots(areas []*models.AreaMetadata, rng *rand.Rand, today time.Time) []models.SeriesRow {
	months := SupplyMonths(today)
	var rows []models.SeriesRow
	for _, area := range areas {
		name, ok := areaName(area)
		if !ok {
			continue
		}
		current := math.Max(10, area.ScoreOrDefault(models.ScoreAvailablePlots, 50))
		for m := 0; m < months; m++ {
			seasonal := 1 + 0.15*(rng.Float64()-0.5)
			drift := -0.02 * (float64(m) / 12)
			val := math.Max(0, math.Round(current*seasonal*(1+drift)))
			rows = append(rows, models.SeriesRow{
				Area:   name,
				Period: models.AddMonths(SupplyStart, m),
				Value:  val,
			})
			current = math.Max(5, math.Round(0.9*current+0.1*val))
		}
	}
	return rows
}

// RentalsBase is the synthetic rental level for an area, absent or zero scores
// counting as 5.
func RentalsBase(area *models.AreaMetadata) float64 {
	cost := area.ScoreOrDefault(models.ScoreCost, 5)
	services := area.ScoreOrDefault(models.ScoreServices, 5)
	connectivity := area.ScoreOrDefault(models.ScoreConnectivity, 5)
	return math.Round(80 + (10-cost)*25 + services*10 + connectivity*8)
}

// GenerateRentals grows the score-derived base about 3% a year with ±5%
// monthly noise.
func GenerateRentals(areas []*models.AreaMetadata, rng *rand.Rand, today time.Time) []models.SeriesRow {
	months := SupplyMonths(today)
	var rows []models.SeriesRow
	for _, area := range areas {
		name, ok := areaName(area)
		if !ok {
			continue
		}
		base := RentalsBase(area)
		for m := 0; m < months; m++ {
			seasonal := 1 + 0.1*(rng.Float64()-0.5)
			growth := 1 + 0.03*(float64(m)/12)
			rows = append(rows, models.SeriesRow{
				Area:   name,
				Period: models.AddMonths(SupplyStart, m),
				Value:  math.Max(0, math.Round(base*seasonal*growth)),
			})
		}
	}
	return rows
}

func areaName(area *models.AreaMetadata) (string, bool) {
	if area == nil || models.AreaKey(area.Location) == "" {
		return "", false
	}
	return area.Location, true
}
