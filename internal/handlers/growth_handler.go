package handlers

import (
	"net/http"
	"time"

	"one-os/internal/database"
	"one-os/internal/logger"
	"one-os/internal/models"
	"one-os/internal/realtime"
	"one-os/internal/scoring"

	"github.com/gin-gonic/gin"
)

type GrowthHandler struct {
	db     *database.DBManager
	bus    realtime.Bus
	scorer scoring.Scorer
	log    *logger.Logger
	now    func() time.Time
}

func NewGrowthHandler(db *database.DBManager, bus realtime.Bus, scorer scoring.Scorer, log *logger.Logger) *GrowthHandler {
	return &GrowthHandler{
		db:     db,
		bus:    bus,
		scorer: scorer,
		log:    log.With("handler", "GrowthHandler"),
		now:    time.Now,
	}
}

type GrowthMetricsRequest struct {
	WeekStartDate        string  `json:"week_start_date"`
	Revenue              float64 `json:"revenue"`
	ActiveUsers          int64   `json:"active_users" binding:"min=0"`
	ConversionRate       float64 `json:"conversion_rate" binding:"min=0"`
	ChurnRate            float64 `json:"churn_rate" binding:"min=0"`
	CustomerSatisfaction float64 `json:"customer_satisfaction" binding:"min=0,max=100"`
}

func (r GrowthMetricsRequest) input() scoring.GrowthInput {
	return scoring.GrowthInput{
		Revenue:              r.Revenue,
		ActiveUsers:          float64(r.ActiveUsers),
		ConversionRate:       r.ConversionRate,
		ChurnRate:            r.ChurnRate,
		CustomerSatisfaction: r.CustomerSatisfaction,
	}
}

// ScoreRequest is an ad-hoc set of metrics for the stateless scoring endpoint.
type ScoreRequest struct {
	Revenue              float64 `json:"revenue"`
	ActiveUsers          float64 `json:"active_users" binding:"min=0"`
	ConversionRate       float64 `json:"conversion_rate" binding:"min=0"`
	ChurnRate            float64 `json:"churn_rate" binding:"min=0"`
	CustomerSatisfaction float64 `json:"customer_satisfaction" binding:"min=0,max=100"`
}

func (r ScoreRequest) input() scoring.GrowthInput {
	return scoring.GrowthInput{
		Revenue:              r.Revenue,
		ActiveUsers:          r.ActiveUsers,
		ConversionRate:       r.ConversionRate,
		ChurnRate:            r.ChurnRate,
		CustomerSatisfaction: r.CustomerSatisfaction,
	}
}

// GrowthMetricsRecord is a stored week with its score recomputed from the
// raw metrics.
type GrowthMetricsRecord struct {
	models.WeeklyGrowthMetrics
	Health scoring.HealthScore `json:"health"`
}

func newGrowthRecord(s scoring.Scorer, row models.WeeklyGrowthMetrics) GrowthMetricsRecord {
	health := s.Evaluate(scoring.GrowthInput{
		Revenue:              row.Revenue,
		ActiveUsers:          float64(row.ActiveUsers),
		ConversionRate:       row.ConversionRate,
		ChurnRate:            row.ChurnRate,
		CustomerSatisfaction: row.CustomerSatisfaction,
	})
	row.HealthScore = health.Score
	row.HealthStatus = string(health.Status)
	return GrowthMetricsRecord{WeeklyGrowthMetrics: row, Health: health}
}

// CreateGrowthMetrics records one week of metrics for a client
// @Summary Record weekly growth metrics
// @Description The week is moved back to its Monday. A second entry for the same week is rejected.
// @Tags growth
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param request body GrowthMetricsRequest true "Metrics"
// @Security BearerAuth
// @Success 201 {object} GrowthMetricsRecord
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/clients/{id}/growth-metrics [post]
func (h *GrowthHandler) CreateGrowthMetrics(c *gin.Context) {
	var req GrowthMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	week, err := parseDate(req.WeekStartDate, h.now())
	if err != nil {
		respondError(c, http.StatusBadRequest, "week_start_date must be YYYY-MM-DD")
		return
	}

	db := h.db.WriteDB.WithContext(c.Request.Context())
	var client models.Client
	if err := db.Select("id").First(&client, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, h.log, err, "client")
		return
	}

	health := h.scorer.Evaluate(req.input())
	row := models.WeeklyGrowthMetrics{
		ClientID:             client.ID,
		WeekStartDate:        scoring.WeekStart(week),
		Revenue:              req.Revenue,
		ActiveUsers:          req.ActiveUsers,
		ConversionRate:       req.ConversionRate,
		ChurnRate:            req.ChurnRate,
		CustomerSatisfaction: req.CustomerSatisfaction,
		HealthScore:          health.Score,
		HealthStatus:         string(health.Status),
	}
	if err := db.Create(&row).Error; err != nil {
		respondDBError(c, h.log, err, "growth metrics for this week")
		return
	}

	publish(c.Request.Context(), h.bus, h.log, realtime.EntityGrowthMetrics, realtime.ActionInsert, row.ID, client.ID)
	c.JSON(http.StatusCreated, GrowthMetricsRecord{WeeklyGrowthMetrics: row, Health: health})
}

// ListGrowthMetrics returns a client's weeks, newest first
// @Summary List weekly growth metrics
// @Tags growth
// @Produce json
// @Param id path string true "Client ID"
// @Param limit query int false "number of weeks"
// @Security BearerAuth
// @Success 200 {array} GrowthMetricsRecord
// @Router /api/clients/{id}/growth-metrics [get]
func (h *GrowthHandler) ListGrowthMetrics(c *gin.Context) {
	var rows []models.WeeklyGrowthMetrics
	err := h.db.GetReadDB().WithContext(c.Request.Context()).
		Where("client_id = ?", c.Param("id")).
		Order("week_start_date DESC").
		Limit(queryInt(c, "limit", 12, 104)).
		Find(&rows).Error
	if err != nil {
		respondDBError(c, h.log, err, "growth metrics")
		return
	}

	out := make([]GrowthMetricsRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, newGrowthRecord(h.scorer, row))
	}
	c.JSON(http.StatusOK, out)
}

// ScoreHealth scores an ad-hoc set of metrics without storing it
// @Summary Compute a health score
// @Tags growth
// @Accept json
// @Produce json
// @Param request body ScoreRequest true "Metrics"
// @Security BearerAuth
// @Success 200 {object} scoring.HealthScore
// @Failure 400 {object} ErrorResponse
// @Router /api/scoring/health [post]
func (h *GrowthHandler) ScoreHealth(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, h.scorer.Evaluate(req.input()))
}
