// Package storage selects the tabular store backend from configuration.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"nestnav/forecaster/config"
	"nestnav/forecaster/internal/csvstore"
	"nestnav/forecaster/internal/database"
	"nestnav/forecaster/internal/models"
)

// Backend reads and replaces history tables.
type Backend interface {
	LoadSeries(metric models.Metric) (*models.SeriesTable, error)
	LoadMetadata() (*models.MetadataTable, error)
	WriteSeries(metric models.Metric, rows []models.SeriesRow) error
	Close() error
}

// MetadataWriter is implemented by backends that persist area metadata
// themselves instead of reading it from the source CSV.
type MetadataWriter interface {
	WriteMetadata(rows []*models.AreaMetadata) error
}

// CSVPaths maps the configured file names onto the data directory.
func CSVPaths(cfg config.DataConfig) csvstore.Paths {
	return csvstore.Paths{
		Price:    cfg.Path(cfg.PriceFile),
		Plots:    cfg.Path(cfg.PlotsFile),
		Rentals:  cfg.Path(cfg.RentalsFile),
		Metadata: cfg.Path(cfg.MetadataFile),
	}
}

// Open returns the configured backend.
func Open(cfg config.DataConfig, logger *logrus.Logger) (Backend, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	switch cfg.Backend {
	case config.BackendCSV, "":
		return csvBackend{csvstore.New(CSVPaths(cfg), logger)}, nil
	case config.BackendSQLite:
		path := cfg.Path(cfg.SQLitePath)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		logger.WithField("path", path).Info("Using sqlite backend")
		db, err := database.NewDatabase(path, database.Options{
			BatchSize:  cfg.WriteBatchSize,
			MaxRetries: cfg.WriteMaxRetries,
			RetryDelay: cfg.WriteRetryDelay,
		}, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

type csvBackend struct {
	*csvstore.Store
}

func (csvBackend) Close() error { return nil }
