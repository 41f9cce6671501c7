// Package forecast decides, per request, between a fitted trend forecast and
// the metadata heuristic, and shapes the result into monthly periods.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"nestnav/forecaster/internal/heuristic"
	"nestnav/forecaster/internal/models"
)

// Store provides read-only snapshots of the history and metadata tables.
type Store interface {
	LoadSeries(metric models.Metric) (*models.SeriesTable, error)
	LoadMetadata() (*models.MetadataTable, error)
}

// Model fits a series and extrapolates it horizon months past its last point.
type Model interface {
	FitAndPredict(series []models.TimeSeriesPoint, horizon int) ([]models.Prediction, error)
}

// Service runs forecasts. It keeps no state between requests.
type Service struct {
	store  Store
	model  Model
	logger *logrus.Logger
	now    func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used to find the current month.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(store Store, model Model, logger *logrus.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	s := &Service{
		store:  store,
		model:  model,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Forecast projects metric for the requested area.
func (s *Service) Forecast(metric models.Metric, req models.ForecastRequest) (*models.ForecastResult, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	generate := heuristic.For(metric)
	if generate == nil {
		return nil, fmt.Errorf("unknown metric %q: %w", metric, models.ErrValidation)
	}

	log := s.logger.WithFields(logrus.Fields{
		"metric": metric,
		"area":   req.Area,
		"months": req.Months,
	})
	currentMonth := models.MonthStart(s.now())

	table, err := s.store.LoadSeries(metric)
	if errors.Is(err, models.ErrNotFound) {
		log.WithError(err).Warn("History table missing, using heuristic")
		table = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load %s history: %w", metric, err)
	}

	series, _ := table.Lookup(req.Area)
	if series.Len() > 0 {
		points, err := s.modelForecast(series, req.Months, currentMonth)
		if err == nil {
			log.WithField("points", len(points)).Info("Forecast generated from history")
			return &models.ForecastResult{
				Metric: metric,
				Area:   series.Area,
				Source: models.SourceModel,
				Points: points,
			}, nil
		}
		if !errors.Is(err, models.ErrInsufficientData) {
			return nil, fmt.Errorf("failed to forecast %s for %s: %w", metric, req.Area, err)
		}
		log.WithError(err).Info("History too short, using heuristic")
	}

	metaTable, err := s.store.LoadMetadata()
	if err != nil && !(errors.Is(err, models.ErrNotFound) && series != nil) {
		return nil, fmt.Errorf("failed to load area metadata: %w", err)
	}
	meta, ok := metaTable.Lookup(req.Area)
	if !ok && series == nil {
		return nil, fmt.Errorf("no data found for area: %s: %w", req.Area, models.ErrAreaNotFound)
	}

	area := req.Area
	switch {
	case ok:
		area = meta.Location
	case series != nil:
		area = series.Area
	}

	points := formatPoints(generate(meta, currentMonth, req.Months))
	log.WithField("points", len(points)).Info("Forecast generated from metadata heuristic")
	return &models.ForecastResult{
		Metric: metric,
		Area:   area,
		Source: models.SourceHeuristic,
		Points: points,
	}, nil
}

// modelForecast fits the series and keeps at most months predictions strictly
// after the cutoff, which is the later of the last observation and the start
// of the current month.
func (s *Service) modelForecast(series *models.AreaSeries, months int, currentMonth time.Time) ([]models.ForecastPoint, error) {
	last := series.Last().Time
	cutoff := last
	if currentMonth.After(cutoff) {
		cutoff = currentMonth
	}

	// Extend the horizon over months the history has not reached yet.
	lag := models.MonthsBetween(last, currentMonth) - 1
	if lag < 0 {
		lag = 0
	}

	preds, err := s.model.FitAndPredict(series.Points, months+lag)
	if err != nil {
		return nil, err
	}

	future := make([]models.Prediction, 0, months)
	for _, p := range preds {
		if len(future) == months {
			break
		}
		if p.Time.After(cutoff) {
			future = append(future, p)
		}
	}
	return formatPoints(future), nil
}

// formatPoints renders predictions as non-negative monthly points, dropping
// any prediction whose month repeats or precedes the previous one.
func formatPoints(preds []models.Prediction) []models.ForecastPoint {
	out := make([]models.ForecastPoint, 0, len(preds))
	lastPeriod := ""
	for _, p := range preds {
		period := models.FormatPeriod(p.Time)
		if lastPeriod != "" && period <= lastPeriod {
			continue
		}
		lastPeriod = period

		point := models.ForecastPoint{
			Period:   period,
			Estimate: math.Max(0, p.Estimate),
		}
		if p.Lower != nil {
			lower := math.Max(0, *p.Lower)
			point.LowerBound = &lower
		}
		if p.Upper != nil {
			upper := math.Max(0, *p.Upper)
			point.UpperBound = &upper
		}
		out = append(out, point)
	}
	return out
}
