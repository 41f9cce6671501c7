// Package trend fits monthly series with a linear trend plus an additive
// month-of-year seasonal component and extrapolates them with prediction
// intervals.
//
// The model is intentionally small: ordinary least squares on the month
// offset, seasonal indices taken as the mean detrended residual of each
// calendar month (once two full years are available), and an interval from
// the residual spread widened the way an OLS prediction interval widens.
package trend
