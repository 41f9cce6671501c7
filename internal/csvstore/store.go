// Package csvstore reads and writes the flat history and metadata tables.
package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"nestnav/forecaster/internal/models"
)

// Paths locates the four tables on disk.
type Paths struct {
	Price    string
	Plots    string
	Rentals  string
	Metadata string
}

// SeriesPath returns the file backing a metric's history table.
func (p Paths) SeriesPath(metric models.Metric) string {
	switch metric {
	case models.MetricPrice:
		return p.Price
	case models.MetricPlots:
		return p.Plots
	case models.MetricRentals:
		return p.Rentals
	default:
		return ""
	}
}

// Store is a read-only view over CSV tables. Every call re-reads the file so
// each caller gets its own snapshot.
type Store struct {
	paths  Paths
	logger *logrus.Logger
}

func New(paths Paths, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Store{paths: paths, logger: logger}
}

var (
	areaColumns     = []string{"Area", "Location"}
	locationColumns = []string{"Location", "Area"}
)

// LoadSeries reads the history table of one metric.
func (s *Store) LoadSeries(metric models.Metric) (*models.SeriesTable, error) {
	path := s.paths.SeriesPath(metric)
	if path == "" {
		return nil, fmt.Errorf("no %s history table configured: %w", metric, models.ErrNotFound)
	}

	f, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadSeries(f, metric)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s.logger.WithFields(logrus.Fields{
		"metric": metric,
		"path":   path,
		"rows":   len(rows),
	}).Debug("Loaded history table")

	return models.NewSeriesTable(metric, rows), nil
}

// LoadMetadata reads the area metadata table.
func (s *Store) LoadMetadata() (*models.MetadataTable, error) {
	f, err := openTable(s.paths.Metadata)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadMetadata(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.paths.Metadata, err)
	}
	return models.NewMetadataTable(rows), nil
}

func openTable(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("no table path configured: %w", models.ErrNotFound)
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// ReadSeries parses a history table with an Area, Date and value column.
func ReadSeries(r io.Reader, metric models.Metric) ([]models.SeriesRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table: %w", models.ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	index := headerIndex(header)

	areaIdx := findColumn(index, areaColumns...)
	dateIdx := findColumn(index, "Date")
	valueIdx := findColumn(index, metric.ValueColumn())
	if areaIdx < 0 || dateIdx < 0 || valueIdx < 0 {
		return nil, fmt.Errorf("table must have columns: Area, Date, %s: %w", metric.ValueColumn(), models.ErrSchema)
	}

	var rows []models.SeriesRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		period, err := models.ParseDate(record[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(record[valueIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s %q: %w", line, metric.ValueColumn(), record[valueIdx], models.ErrParse)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("line %d: non-finite %s %q: %w", line, metric.ValueColumn(), record[valueIdx], models.ErrParse)
		}
		if value < 0 {
			return nil, fmt.Errorf("line %d: negative %s %v: %w", line, metric.ValueColumn(), value, models.ErrParse)
		}

		rows = append(rows, models.SeriesRow{
			Area:   record[areaIdx],
			Period: period,
			Value:  value,
		})
	}
	return rows, nil
}

// ReadMetadata parses the metadata table. Every finite numeric cell becomes a
// score; empty, non-numeric and non-finite cells are left out.
func ReadMetadata(r io.Reader) ([]models.AreaMetadata, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table: %w", models.ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	index := headerIndex(header)
	locIdx := findColumn(index, locationColumns...)
	if locIdx < 0 {
		return nil, fmt.Errorf("metadata must have a Location column: %w", models.ErrSchema)
	}

	var rows []models.AreaMetadata
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		meta := models.AreaMetadata{
			Location: strings.TrimSpace(record[locIdx]),
			Scores:   make(map[string]float64),
		}
		for i, cell := range record {
			if i == locIdx || i >= len(header) {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if v, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
				meta.Scores[cleanHeader(header[i])] = v
			}
		}
		rows = append(rows, meta)
	}
	return rows, nil
}

func cleanHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[cleanHeader(h)] = i
	}
	return index
}

func findColumn(index map[string]int, names ...string) int {
	for _, name := range names {
		if i, ok := index[name]; ok {
			return i
		}
	}
	return -1
}
