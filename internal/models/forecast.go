package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultMonths = 12
	MinMonths     = 1
	MaxMonths     = 60
)

// Forecast sources.
const (
	SourceModel     = "model"
	SourceHeuristic = "heuristic"
)

// ForecastRequest is a validated forecast query.
type ForecastRequest struct {
	Area   string `json:"area"`
	Months int    `json:"months"`
}

// NewForecastRequest trims the area, applies the default horizon when months is
// nil and clamps it to [MinMonths, MaxMonths].
func NewForecastRequest(area string, months *int) (ForecastRequest, error) {
	req := ForecastRequest{Area: area, Months: DefaultMonths}
	if months != nil {
		req.Months = *months
	}
	return req.Normalize()
}

// Normalize validates the area and clamps the month count.
func (r ForecastRequest) Normalize() (ForecastRequest, error) {
	r.Area = strings.TrimSpace(r.Area)
	if r.Area == "" {
		return r, fmt.Errorf("missing 'area' field in request: %w", ErrValidation)
	}
	r.Months = ClampMonths(r.Months)
	return r, nil
}

// ClampMonths limits a horizon to [MinMonths, MaxMonths].
func ClampMonths(months int) int {
	if months < MinMonths {
		return MinMonths
	}
	if months > MaxMonths {
		return MaxMonths
	}
	return months
}

// Prediction is one fitted or extrapolated model value.
type Prediction struct {
	Time     time.Time
	Estimate float64
	Lower    *float64
	Upper    *float64
}

// ForecastPoint is one month of a forecast response.
type ForecastPoint struct {
	Period     string   `json:"period"`
	Estimate   float64  `json:"estimate"`
	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`
}

// ForecastResult is the outcome of one forecast request.
type ForecastResult struct {
	Metric Metric          `json:"metric"`
	Area   string          `json:"area"`
	Source string          `json:"source"`
	Points []ForecastPoint `json:"forecast"`
}
