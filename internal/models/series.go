package models

import (
	"sort"
	"strings"
	"time"
)

// TimeSeriesPoint is one monthly observation.
type TimeSeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// SeriesRow is a single (area, month, value) row as stored in a history table.
type SeriesRow struct {
	Area   string
	Period time.Time
	Value  float64
}

// AreaSeries is the ordered history of one metric for one area.
type AreaSeries struct {
	Area   string
	Points []TimeSeriesPoint
}

// Last returns the most recent observation. The series must not be empty.
func (s *AreaSeries) Last() TimeSeriesPoint {
	return s.Points[len(s.Points)-1]
}

// Len returns the number of points in the series.
func (s *AreaSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// SeriesTable holds every area's series for one metric.
type SeriesTable struct {
	Metric Metric
	series map[string]*AreaSeries
}

// AreaKey normalizes an area name for case-insensitive lookup.
func AreaKey(area string) string {
	return strings.ToLower(strings.TrimSpace(area))
}

// NewSeriesTable groups rows by area and normalizes every series.
func NewSeriesTable(metric Metric, rows []SeriesRow) *SeriesTable {
	grouped := make(map[string][]TimeSeriesPoint)
	names := make(map[string]string)
	for _, row := range rows {
		key := AreaKey(row.Area)
		if key == "" {
			continue
		}
		if _, ok := names[key]; !ok {
			names[key] = strings.TrimSpace(row.Area)
		}
		grouped[key] = append(grouped[key], TimeSeriesPoint{Time: MonthStart(row.Period), Value: row.Value})
	}

	table := &SeriesTable{Metric: metric, series: make(map[string]*AreaSeries, len(grouped))}
	for key, points := range grouped {
		table.series[key] = &AreaSeries{Area: names[key], Points: NormalizePoints(points)}
	}
	return table
}

// Lookup finds an area's series, ignoring case and surrounding whitespace.
func (t *SeriesTable) Lookup(area string) (*AreaSeries, bool) {
	if t == nil {
		return nil, false
	}
	s, ok := t.series[AreaKey(area)]
	return s, ok
}

// Len returns the number of areas in the table.
func (t *SeriesTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.series)
}

// NormalizePoints sorts points by time and merges points sharing a timestamp
// into one point carrying their mean value.
func NormalizePoints(points []TimeSeriesPoint) []TimeSeriesPoint {
	sorted := make([]TimeSeriesPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	out := make([]TimeSeriesPoint, 0, len(sorted))
	for i := 0; i < len(sorted); {
		j := i
		sum := 0.0
		for j < len(sorted) && sorted[j].Time.Equal(sorted[i].Time) {
			sum += sorted[j].Value
			j++
		}
		out = append(out, TimeSeriesPoint{Time: sorted[i].Time, Value: sum / float64(j-i)})
		i = j
	}
	return out
}
