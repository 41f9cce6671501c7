package models

import (
	"fmt"
	"strings"
)

// Metric identifies one of the forecastable time series.
type Metric string

const (
	MetricPrice   Metric = "price"
	MetricPlots   Metric = "plots"
	MetricRentals Metric = "rentals"
)

// Metrics lists every supported metric in a stable order.
var Metrics = []Metric{MetricPrice, MetricPlots, MetricRentals}

// ValueColumn returns the header of the value column in the metric's history table.
func (m Metric) ValueColumn() string {
	switch m {
	case MetricPrice:
		return "AveragePrice"
	case MetricPlots:
		return "AvailablePlots"
	case MetricRentals:
		return "RentalsAvailable"
	default:
		return ""
	}
}

func (m Metric) String() string {
	return string(m)
}

// ParseMetric converts a user supplied name into a Metric.
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MetricPrice, MetricPlots, MetricRentals:
		return m, nil
	}
	return "", fmt.Errorf("unknown metric %q: %w", s, ErrValidation)
}
