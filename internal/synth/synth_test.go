package synth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"nestnav/forecaster/internal/models"
)

var today = time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)

func testAreas() []*models.AreaMetadata {
	return []*models.AreaMetadata{
		{Location: "Whitefield", Scores: map[string]float64{
			models.ScoreCost: 7, models.ScoreServices: 8, models.ScoreConnectivity: 6, models.ScoreAvailablePlots: 120,
		}},
		{Location: "Adyar", Scores: map[string]float64{}},
		{Location: "  ", Scores: map[string]float64{models.ScoreCost: 3}},
	}
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteSeries(metric models.Metric, rows []models.SeriesRow) error {
	args := m.Called(metric, rows)
	return args.Error(0)
}

func TestMonthCounts(t *testing.T) {
	assert.Equal(t, 82, PriceMonths(today))
	assert.Equal(t, 46, SupplyMonths(today))

	early := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, MinPriceMonths, PriceMonths(early))
	assert.Equal(t, 0, SupplyMonths(early))
}

func TestGeneratePrice(t *testing.T) {
	rows := GeneratePrice(testAreas(), NewSeededRand(1), today)
	require.Len(t, rows, 2*82)

	assert.Equal(t, "Whitefield", rows[0].Area)
	assert.Equal(t, PriceStart, rows[0].Period)
	assert.Equal(t, "2026-10", models.FormatPeriod(rows[81].Period))
	assert.Equal(t, "Adyar", rows[82].Area)

	for i, row := range rows[:82] {
		growth := 1 + 0.04*(float64(i)/12)
		// cost 7: base in [5.0M, 5.2M), seasonal in [0.97, 1.03)
		assert.GreaterOrEqual(t, row.Value, 5_000_000*growth*0.97-1)
		assert.Less(t, row.Value, 5_200_000*growth*1.03+1)
		assert.Equal(t, float64(int64(row.Value)), row.Value)
	}
	// default cost 6
	assert.GreaterOrEqual(t, rows[82].Value, 6_000_000*0.97-1)
}

func TestGeneratePlots(t *testing.T) {
	rows := GeneratePlots(testAreas(), NewSeededRand(2), today)
	require.Len(t, rows, 2*46)

	assert.Equal(t, SupplyStart, rows[0].Period)
	assert.Equal(t, "2026-10", models.FormatPeriod(rows[45].Period))
	for _, row := range rows {
		assert.GreaterOrEqual(t, row.Value, 0.0)
	}
	first := rows[0].Value
	assert.InDelta(t, 120, first, 120*0.075+1)
	assert.InDelta(t, 50, rows[46].Value, 50*0.075+1)
}

func TestGeneratePlotsZeroCountsAsAbsent(t *testing.T) {
	areas := []*models.AreaMetadata{{Location: "Empty", Scores: map[string]float64{models.ScoreAvailablePlots: 0}}}
	rows := GeneratePlots(areas, NewSeededRand(3), today)
	require.NotEmpty(t, rows)
	assert.InDelta(t, 50, rows[0].Value, 50*0.075+1)
}

func TestGenerateRentals(t *testing.T) {
	assert.Equal(t, 295.0, RentalsBase(&models.AreaMetadata{}))
	assert.Equal(t, 283.0, RentalsBase(testAreas()[0]))
	// 80 + (10-5)*25 + 5*10 + 5*8, zero scores count as absent
	assert.Equal(t, 295.0, RentalsBase(&models.AreaMetadata{Scores: map[string]float64{
		models.ScoreCost: 0, models.ScoreServices: 0, models.ScoreConnectivity: 0,
	}}))

	rows := GenerateRentals(testAreas(), NewSeededRand(4), today)
	require.Len(t, rows, 2*46)
	for i, row := range rows[:46] {
		growth := 1 + 0.03*(float64(i)/12)
		assert.GreaterOrEqual(t, row.Value, 283*growth*0.95-1)
		assert.LessOrEqual(t, row.Value, 283*growth*1.05+1)
	}
}

func TestSeededRunsAreReproducible(t *testing.T) {
	a := GenerateRentals(testAreas(), NewSeededRand(42), today)
	b := GenerateRentals(testAreas(), NewSeededRand(42), today)
	c := GenerateRentals(testAreas(), NewSeededRand(43), today)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRun(t *testing.T) {
	writer := new(mockWriter)
	writer.On("WriteSeries", models.MetricPrice, mock.Anything).Return(nil)
	writer.On("WriteSeries", models.MetricPlots, mock.Anything).Return(nil)
	writer.On("WriteSeries", models.MetricRentals, mock.Anything).Return(nil)

	s := NewSynthesizer(writer, NewSeededRand(7), nil)
	s.now = func() time.Time { return today }

	summary, err := s.Run(testAreas())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Areas)
	assert.Equal(t, 164, summary.Rows[models.MetricPrice])
	assert.Equal(t, 92, summary.Rows[models.MetricPlots])
	assert.Equal(t, 92, summary.Rows[models.MetricRentals])
	writer.AssertNumberOfCalls(t, "WriteSeries", 3)
}

func TestRunStopsOnWriteError(t *testing.T) {
	writer := new(mockWriter)
	writer.On("WriteSeries", models.MetricPrice, mock.Anything).Return(nil)
	writer.On("WriteSeries", models.MetricPlots, mock.Anything).Return(errors.New("disk full"))

	s := NewSynthesizer(writer, NewSeededRand(7), nil)
	s.now = func() time.Time { return today }

	summary, err := s.Run(testAreas())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plots")
	assert.Equal(t, 164, summary.Rows[models.MetricPrice])
	writer.AssertNotCalled(t, "WriteSeries", models.MetricRentals, mock.Anything)
}
