package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestnav/forecaster/internal/models"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"), Options{BatchSize: 2}, logrus.New())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestSeriesRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	rows := []models.SeriesRow{
		{Area: "Adyar", Period: month(2024, 2), Value: 410},
		{Area: "Adyar", Period: month(2024, 1), Value: 400},
		{Area: "Guindy", Period: month(2024, 1), Value: 300},
	}
	require.NoError(t, db.WriteSeries(models.MetricRentals, rows))

	table, err := db.LoadSeries(models.MetricRentals)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	series, ok := table.Lookup("adyar")
	require.True(t, ok)
	require.Len(t, series.Points, 2)
	assert.Equal(t, month(2024, 1), series.Points[0].Time)
	assert.Equal(t, 410.0, series.Points[1].Value)

	// Other metrics are untouched and still absent.
	_, err = db.LoadSeries(models.MetricPlots)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWriteSeriesReplaces(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.WriteSeries(models.MetricPlots, []models.SeriesRow{
		{Area: "Adyar", Period: month(2024, 1), Value: 1},
		{Area: "Adyar", Period: month(2024, 2), Value: 2},
		{Area: "Adyar", Period: month(2024, 3), Value: 3},
	}))
	require.NoError(t, db.WriteSeries(models.MetricPlots, []models.SeriesRow{
		{Area: "Tambaram", Period: month(2024, 1), Value: 9},
	}))

	table, err := db.LoadSeries(models.MetricPlots)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	_, ok := table.Lookup("Adyar")
	assert.False(t, ok)

	var count int64
	require.NoError(t, db.GetDB().Model(&SeriesRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMetadataRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.LoadMetadata()
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, db.WriteMetadata([]*models.AreaMetadata{
		{Location: "Adyar", Scores: map[string]float64{models.ScoreCost: 8, models.ScoreAvailablePlots: 40}},
		{Location: "Tambaram", Scores: map[string]float64{models.ScoreCost: 3}},
	}))

	table, err := db.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	adyar, ok := table.Lookup("ADYAR")
	require.True(t, ok)
	assert.Equal(t, 40.0, adyar.Score(models.ScoreAvailablePlots, 0))

	require.NoError(t, db.WriteMetadata([]*models.AreaMetadata{{Location: "Guindy"}}))
	table, err = db.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}
