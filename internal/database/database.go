package database

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"nestnav/forecaster/internal/models"
)

// SeriesRecord is one (metric, area, month) observation.
type SeriesRecord struct {
	ID      uint    `gorm:"primaryKey"`
	Metric  string  `gorm:"not null;index:idx_series_lookup,priority:1"`
	AreaKey string  `gorm:"not null;index:idx_series_lookup,priority:2"`
	Area    string  `gorm:"not null"`
	Period  string  `gorm:"not null;size:7"`
	Value   float64 `gorm:"not null"`
}

// AreaRecord holds the metadata scores of one area.
type AreaRecord struct {
	ID       uint               `gorm:"primaryKey"`
	AreaKey  string             `gorm:"uniqueIndex;not null"`
	Location string             `gorm:"not null"`
	Scores   map[string]float64 `gorm:"serializer:json"`
}

// Options tunes batched writes.
type Options struct {
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
}

type Database struct {
	db     *gorm.DB
	logger *logrus.Logger
	opts   Options
}

func NewDatabase(dbPath string, opts Options, logger *logrus.Logger) (*Database, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Database{db: db, logger: logger, opts: opts}
	if err := d.RunMigrations(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

// LoadSeries returns the history table of one metric. A metric without any
// rows is reported as a missing table.
func (d *Database) LoadSeries(metric models.Metric) (*models.SeriesTable, error) {
	var records []SeriesRecord
	err := d.db.Where("metric = ?", metric.String()).
		Order("area_key, period").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query %s history: %w", metric, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no %s history stored: %w", metric, models.ErrNotFound)
	}

	rows := make([]models.SeriesRow, 0, len(records))
	for _, r := range records {
		period, err := models.ParseDate(r.Period)
		if err != nil {
			return nil, fmt.Errorf("series record %d: %w", r.ID, err)
		}
		rows = append(rows, models.SeriesRow{Area: r.Area, Period: period, Value: r.Value})
	}
	return models.NewSeriesTable(metric, rows), nil
}

// LoadMetadata returns every stored area.
func (d *Database) LoadMetadata() (*models.MetadataTable, error) {
	var records []AreaRecord
	if err := d.db.Order("location").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query area metadata: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no area metadata stored: %w", models.ErrNotFound)
	}

	rows := make([]models.AreaMetadata, 0, len(records))
	for _, r := range records {
		rows = append(rows, models.AreaMetadata{Location: r.Location, Scores: r.Scores})
	}
	return models.NewMetadataTable(rows), nil
}

// WriteSeries replaces every row of a metric in a single transaction.
func (d *Database) WriteSeries(metric models.Metric, rows []models.SeriesRow) error {
	records := make([]SeriesRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, SeriesRecord{
			Metric:  metric.String(),
			AreaKey: models.AreaKey(row.Area),
			Area:    row.Area,
			Period:  models.FormatPeriod(row.Period),
			Value:   row.Value,
		})
	}

	return d.withRetry(fmt.Sprintf("%s history", metric), func(tx *gorm.DB) error {
		if err := tx.Where("metric = ?", metric.String()).Delete(&SeriesRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear %s history: %w", metric, err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, d.opts.BatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert %s history: %w", metric, err)
		}
		return nil
	})
}

// WriteMetadata replaces the area metadata table.
func (d *Database) WriteMetadata(rows []*models.AreaMetadata) error {
	records := make([]AreaRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, AreaRecord{
			AreaKey:  models.AreaKey(row.Location),
			Location: row.Location,
			Scores:   row.Scores,
		})
	}

	return d.withRetry("area metadata", func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&AreaRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear area metadata: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, d.opts.BatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert area metadata: %w", err)
		}
		return nil
	})
}

// withRetry runs fn in a transaction, retrying failed attempts.
func (d *Database) withRetry(what string, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= d.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			d.logger.Infof("Retrying write of %s, attempt %d of %d", what, attempt, d.opts.MaxRetries)
			time.Sleep(d.opts.RetryDelay)
		}

		err = d.db.Transaction(fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrInvalidData) {
			break
		}
		d.logger.WithError(err).Errorf("Write of %s failed", what)
	}
	return fmt.Errorf("failed to write %s after %d attempts: %w", what, d.opts.MaxRetries+1, err)
}
