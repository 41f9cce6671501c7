package csvstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nestnav/forecaster/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	paths := Paths{
		Price:    filepath.Join(dir, "price_history.csv"),
		Plots:    filepath.Join(dir, "plots_history.csv"),
		Rentals:  filepath.Join(dir, "rentals_history.csv"),
		Metadata: filepath.Join(dir, "updated_dataset.csv"),
	}
	return New(paths, logrus.New()), dir
}

func TestLoadSeries(t *testing.T) {
	store, dir := newTestStore(t)
	writeFile(t, dir, "price_history.csv", "Area,Date,AveragePrice\n"+
		"Adyar,2024-02,7100000\n"+
		"adyar,2024-01,7000000\n"+
		"Velachery,2024-01-15,5000000\n")

	table, err := store.LoadSeries(models.MetricPrice)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	series, ok := table.Lookup("ADYAR")
	require.True(t, ok)
	require.Len(t, series.Points, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), series.Points[0].Time)
	assert.Equal(t, 7100000.0, series.Points[1].Value)

	velachery, ok := table.Lookup("velachery")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), velachery.Points[0].Time)
}

func TestLoadSeriesErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "missing value column", content: "Area,Date,Price\nAdyar,2024-01,1\n", wantErr: models.ErrSchema},
		{name: "missing date column", content: "Area,Month,AvailablePlots\nAdyar,2024-01,1\n", wantErr: models.ErrSchema},
		{name: "empty file", content: "", wantErr: models.ErrSchema},
		{name: "invalid date", content: "Area,Date,AvailablePlots\nAdyar,2024-01,1\nAdyar,not-a-date,2\n", wantErr: models.ErrParse},
		{name: "invalid value", content: "Area,Date,AvailablePlots\nAdyar,2024-01,many\n", wantErr: models.ErrParse},
		{name: "negative value", content: "Area,Date,AvailablePlots\nAdyar,2024-01,-3\n", wantErr: models.ErrParse},
		{name: "nan value", content: "Area,Date,AvailablePlots\nAdyar,2024-01,NaN\n", wantErr: models.ErrParse},
		{name: "inf value", content: "Area,Date,AvailablePlots\nAdyar,2024-01,Inf\n", wantErr: models.ErrParse},
		{name: "signed inf value", content: "Area,Date,AvailablePlots\nAdyar,2024-01,+Inf\n", wantErr: models.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, dir := newTestStore(t)
			writeFile(t, dir, "plots_history.csv", tt.content)

			_, err := store.LoadSeries(models.MetricPlots)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadSeriesReportsLine(t *testing.T) {
	store, dir := newTestStore(t)
	writeFile(t, dir, "rentals_history.csv", "Area,Date,RentalsAvailable\nAdyar,2024-01,10\nAdyar,2024-99,11\n")

	_, err := store.LoadSeries(models.MetricRentals)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoadMissingTables(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.LoadSeries(models.MetricRentals)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = store.LoadMetadata()
	assert.ErrorIs(t, err, models.ErrNotFound)

	empty := New(Paths{}, nil)
	_, err = empty.LoadSeries(models.MetricPrice)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLoadMetadata(t *testing.T) {
	store, dir := newTestStore(t)
	writeFile(t, dir, "updated_dataset.csv", "\ufeffLocation,CostScore,ServicesScore,FloodRisk,AvailablePlots\n"+
		"Adyar,8,7,Low,120\n"+
		" Tambaram ,3,,High,\n")

	table, err := store.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	adyar, ok := table.Lookup("adyar")
	require.True(t, ok)
	assert.Equal(t, 8.0, adyar.Score(models.ScoreCost, 5))
	assert.Equal(t, 120.0, adyar.Score(models.ScoreAvailablePlots, 0))
	_, hasFlood := adyar.Scores["FloodRisk"]
	assert.False(t, hasFlood)

	tambaram, ok := table.Lookup("TAMBARAM")
	require.True(t, ok)
	assert.Equal(t, "Tambaram", tambaram.Location)
	assert.Equal(t, 5.0, tambaram.Score(models.ScoreServices, 5))
}

func TestLoadMetadataDropsNonFiniteScores(t *testing.T) {
	rows, err := ReadMetadata(strings.NewReader("Location,CostScore,ServicesScore,ConnectivityScore\nAdyar,NaN,Inf,6\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]float64{models.ScoreConnectivity: 6}, rows[0].Scores)
}

func TestLoadMetadataSchema(t *testing.T) {
	_, err := ReadMetadata(strings.NewReader("Name,CostScore\nAdyar,3\n"))
	assert.ErrorIs(t, err, models.ErrSchema)
}

func TestWriteSeriesRoundTrip(t *testing.T) {
	store, dir := newTestStore(t)
	rows := []models.SeriesRow{
		{Area: "Adyar", Period: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Value: 51},
		{Area: "Adyar", Period: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), Value: 49},
		{Area: "Besant Nagar", Period: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Value: 12},
	}

	require.NoError(t, store.WriteSeries(models.MetricPlots, rows))

	data, err := os.ReadFile(filepath.Join(dir, "plots_history.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Area,Date,AvailablePlots\nAdyar,2023-01,51\n"))

	table, err := store.LoadSeries(models.MetricPlots)
	require.NoError(t, err)
	series, ok := table.Lookup("besant nagar")
	require.True(t, ok)
	assert.Equal(t, 12.0, series.Points[0].Value)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}
