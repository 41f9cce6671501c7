package api

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"nestnav/forecaster/config"
	"nestnav/forecaster/internal/metrics"
	"nestnav/forecaster/internal/models"
)

// Forecaster produces forecasts for one metric and area.
type Forecaster interface {
	Forecast(metric models.Metric, req models.ForecastRequest) (*models.ForecastResult, error)
}

// AreaSource lists the known areas.
type AreaSource interface {
	LoadMetadata() (*models.MetadataTable, error)
}

type Handler struct {
	forecaster Forecaster
	areas      AreaSource
	zones      config.Zones
	metrics    *metrics.Metrics
	logger     *logrus.Logger
}

// ForecastRequest is the body accepted by the forecast endpoints.
type ForecastRequest struct {
	Area   string `json:"area"`
	Months *int   `json:"months"`
}

// AreaInfo is one entry of the area listing.
type AreaInfo struct {
	Name string `json:"name"`
	Zone string `json:"zone,omitempty"`
}

func NewHandler(forecaster Forecaster, areas AreaSource, zones config.Zones, m *metrics.Metrics, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if zones == nil {
		zones = config.Zones{}
	}
	return &Handler{
		forecaster: forecaster,
		areas:      areas,
		zones:      zones,
		metrics:    m,
		logger:     logger,
	}
}

// Forecast returns the handler serving forecasts of one metric.
func (h *Handler) Forecast(metric models.Metric) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		log := h.logger.WithFields(logrus.Fields{
			"metric":     metric,
			"request_id": c.GetString(requestIDKey),
		})

		var body ForecastRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			log.WithError(err).Warn("Failed to parse forecast request")
			h.metrics.Observe(metric.String(), "", http.StatusBadRequest, time.Since(start))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		log = log.WithField("area", body.Area)

		req, err := models.NewForecastRequest(body.Area, body.Months)
		var result *models.ForecastResult
		if err == nil {
			result, err = h.forecaster.Forecast(metric, req)
		}
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				log.WithError(err).Error("Forecast failed")
			} else {
				log.WithError(err).Warn("Forecast rejected")
			}
			h.metrics.Observe(metric.String(), "", status, time.Since(start))
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		h.metrics.Observe(metric.String(), result.Source, http.StatusOK, time.Since(start))
		points := result.Points
		if points == nil {
			points = []models.ForecastPoint{}
		}
		c.Header(ForecastSourceHeader, result.Source)
		c.JSON(http.StatusOK, points)
	}
}

// ForecastByName serves /api/forecast/:metric. Unknown metrics are 404.
func (h *Handler) ForecastByName(c *gin.Context) {
	metric, err := models.ParseMetric(c.Param("metric"))
	if err != nil {
		h.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Warn("Unknown forecast metric")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.Forecast(metric)(c)
}

// ListAreas returns every area in the metadata table with its zone.
func (h *Handler) ListAreas(c *gin.Context) {
	table, err := h.areas.LoadMetadata()
	if err != nil {
		h.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("Failed to load area metadata")
		c.JSON(statusFor(err), gin.H{"error": "failed to load areas"})
		return
	}

	all := table.All()
	areas := make([]AreaInfo, 0, len(all))
	for _, meta := range all {
		areas = append(areas, AreaInfo{
			Name: meta.Location,
			Zone: h.zones.ZoneOf(meta.Location),
		})
	}
	c.JSON(http.StatusOK, areas)
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrAreaNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
