package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"nestnav/forecaster/internal/models"
)

// WriteSeries replaces a metric's history table with rows. The file is written
// to a temporary sibling and renamed into place.
func (s *Store) WriteSeries(metric models.Metric, rows []models.SeriesRow) error {
	path := s.paths.SeriesPath(metric)
	if path == "" {
		return fmt.Errorf("no %s history table configured: %w", metric, models.ErrNotFound)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"Area", "Date", metric.ValueColumn()}); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Area,
			models.FormatPeriod(row.Period),
			strconv.FormatFloat(row.Value, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	s.logger.WithFields(logrus.Fields{
		"metric": metric,
		"path":   path,
		"rows":   len(rows),
	}).Info("Wrote history table")
	return nil
}
