package handlers

import (
	"net/http"
	"strings"
	"time"

	"one-os/internal/cache"
	"one-os/internal/database"
	"one-os/internal/logger"
	"one-os/internal/models"
	"one-os/internal/realtime"
	"one-os/internal/scoring"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Dashboard tabs for the client list. TabAtRisk filters on the health score
// threshold, not on the at_risk status.
const (
	TabAll        = "all"
	TabActive     = "active"
	TabAtRisk     = "at_risk"
	TabOnboarding = "onboarding"
	TabPaused     = "paused"
	TabArchived   = "archived"
)

type ClientHandler struct {
	db       *database.DBManager
	cache    *cache.CacheManager
	bus      realtime.Bus
	scorer   scoring.Scorer
	cacheTTL time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewClientHandler(db *database.DBManager, cm *cache.CacheManager, bus realtime.Bus, scorer scoring.Scorer, cacheTTL time.Duration, log *logger.Logger) *ClientHandler {
	return &ClientHandler{
		db:       db,
		cache:    cm,
		bus:      bus,
		scorer:   scorer,
		cacheTTL: cacheTTL,
		log:      log.With("handler", "ClientHandler"),
		now:      time.Now,
	}
}

type ClientRequest struct {
	Name         string   `json:"name" binding:"required"`
	ContactEmail string   `json:"contact_email" binding:"omitempty,email"`
	Status       string   `json:"status"`
	MonthlyQuota int      `json:"monthly_quota" binding:"min=0"`
	HealthScore  int      `json:"health_score" binding:"min=0,max=100"`
	MRR          float64  `json:"mrr" binding:"min=0"`
	Flags        []string `json:"flags"`
}

type ClientUpdateRequest struct {
	Name         *string   `json:"name"`
	ContactEmail *string   `json:"contact_email" binding:"omitempty,email"`
	Status       *string   `json:"status"`
	MonthlyQuota *int      `json:"monthly_quota" binding:"omitempty,min=0"`
	HealthScore  *int      `json:"health_score" binding:"omitempty,min=0,max=100"`
	MRR          *float64  `json:"mrr" binding:"omitempty,min=0"`
	Flags        *[]string `json:"flags"`
}

type ClientListResponse struct {
	Tab     string          `json:"tab"`
	Total   int64           `json:"total"`
	Clients []models.Client `json:"clients"`
}

type ClientDetailResponse struct {
	Client       models.Client        `json:"client"`
	LatestGrowth *GrowthMetricsRecord `json:"latest_growth,omitempty"`
}

type UtilizationResponse struct {
	Month       string                      `json:"month"`
	Utilization []scoring.ClientUtilization `json:"utilization"`
}

// ListClients returns one dashboard tab of clients
// @Summary List clients
// @Tags clients
// @Produce json
// @Param tab query string false "all|active|at_risk|onboarding|paused|archived"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Security BearerAuth
// @Success 200 {object} ClientListResponse
// @Router /api/clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	tab := c.DefaultQuery("tab", TabAll)
	query, ok := tabQuery(h.db.GetReadDB().WithContext(c.Request.Context()).Model(&models.Client{}), tab)
	if !ok {
		respondError(c, http.StatusBadRequest, "Unknown tab")
		return
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		respondDBError(c, h.log, err, "clients")
		return
	}

	clients := make([]models.Client, 0)
	err := query.Order("name ASC").
		Limit(queryInt(c, "limit", 50, 500)).
		Offset(queryInt(c, "offset", 0, 1<<20)).
		Find(&clients).Error
	if err != nil {
		respondDBError(c, h.log, err, "clients")
		return
	}

	c.JSON(http.StatusOK, ClientListResponse{Tab: tab, Total: total, Clients: clients})
}

func tabQuery(q *gorm.DB, tab string) (*gorm.DB, bool) {
	switch tab {
	case TabAll:
		return q.Where("archived_at IS NULL"), true
	case TabActive, TabOnboarding, TabPaused:
		return q.Where("archived_at IS NULL AND status = ?", tab), true
	case TabAtRisk:
		return q.Where("archived_at IS NULL AND health_score < ?", scoring.RiskHealthThreshold), true
	case TabArchived:
		return q.Where("archived_at IS NOT NULL OR status = ?", scoring.ClientArchived), true
	default:
		return nil, false
	}
}

// CreateClient onboards a client
// @Summary Create client
// @Tags clients
// @Accept json
// @Produce json
// @Param request body ClientRequest true "Client"
// @Security BearerAuth
// @Success 201 {object} models.Client
// @Failure 400 {object} ErrorResponse
// @Router /api/clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	status := scoring.ClientStatus(req.Status)
	if status == "" {
		status = scoring.ClientOnboarding
	}
	if !status.Valid() || status == scoring.ClientArchived {
		respondError(c, http.StatusBadRequest, "Invalid status")
		return
	}

	client := models.Client{
		Name:         strings.TrimSpace(req.Name),
		ContactEmail: req.ContactEmail,
		Status:       string(status),
		MonthlyQuota: req.MonthlyQuota,
		HealthScore:  req.HealthScore,
		MRR:          req.MRR,
		Flags:        datatypes.NewJSONSlice(normalizeFlags(req.Flags)),
	}
	if err := h.db.WriteDB.WithContext(c.Request.Context()).Create(&client).Error; err != nil {
		respondDBError(c, h.log, err, "client")
		return
	}

	publish(c.Request.Context(), h.bus, h.log, realtime.EntityClient, realtime.ActionInsert, client.ID, client.ID)
	c.JSON(http.StatusCreated, client)
}

// GetClient returns a client with its latest weekly growth score
// @Summary Get client
// @Tags clients
// @Produce json
// @Param id path string true "Client ID"
// @Security BearerAuth
// @Success 200 {object} ClientDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/clients/{id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	id := c.Param("id")
	cacheKey := cache.KeyClient + id

	var cached ClientDetailResponse
	if found, err := h.cache.Get(c.Request.Context(), cacheKey, &cached); found && err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	db := h.db.GetReadDB().WithContext(c.Request.Context())
	var resp ClientDetailResponse
	if err := db.First(&resp.Client, "id = ?", id).Error; err != nil {
		respondDBError(c, h.log, err, "client")
		return
	}

	var latest []models.WeeklyGrowthMetrics
	if err := db.Where("client_id = ?", id).Order("week_start_date DESC").Limit(1).Find(&latest).Error; err != nil {
		respondDBError(c, h.log, err, "growth metrics")
		return
	}
	if len(latest) == 1 {
		record := newGrowthRecord(h.scorer, latest[0])
		resp.LatestGrowth = &record
	}

	if err := h.cache.Set(c.Request.Context(), cacheKey, resp, h.cacheTTL); err != nil {
		h.log.Warn("failed to cache client", "client_id", id, "error", err)
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateClient applies a partial update
// @Summary Update client
// @Tags clients
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param request body ClientUpdateRequest true "Fields to change"
// @Security BearerAuth
// @Success 200 {object} models.Client
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	var req ClientUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	db := h.db.WriteDB.WithContext(c.Request.Context())
	var client models.Client
	if err := db.First(&client, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, h.log, err, "client")
		return
	}
	if client.ArchivedAt != nil {
		respondError(c, http.StatusConflict, "Client is archived")
		return
	}

	if req.Name != nil {
		client.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactEmail != nil {
		client.ContactEmail = *req.ContactEmail
	}
	if req.Status != nil {
		status := scoring.ClientStatus(*req.Status)
		if !status.Valid() || status == scoring.ClientArchived {
			respondError(c, http.StatusBadRequest, "Invalid status")
			return
		}
		client.Status = string(status)
	}
	if req.MonthlyQuota != nil {
		client.MonthlyQuota = *req.MonthlyQuota
	}
	if req.HealthScore != nil {
		client.HealthScore = *req.HealthScore
	}
	if req.MRR != nil {
		client.MRR = *req.MRR
	}
	if req.Flags != nil {
		client.Flags = datatypes.NewJSONSlice(normalizeFlags(*req.Flags))
	}
	if client.Name == "" {
		respondError(c, http.StatusBadRequest, "Name is required")
		return
	}

	if err := db.Save(&client).Error; err != nil {
		respondDBError(c, h.log, err, "client")
		return
	}

	publish(c.Request.Context(), h.bus, h.log, realtime.EntityClient, realtime.ActionUpdate, client.ID, client.ID)
	c.JSON(http.StatusOK, client)
}

// ArchiveClient soft-deletes a client
// @Summary Archive client
// @Tags clients
// @Produce json
// @Param id path string true "Client ID"
// @Security BearerAuth
// @Success 200 {object} models.Client
// @Failure 404 {object} ErrorResponse
// @Router /api/clients/{id}/archive [post]
func (h *ClientHandler) ArchiveClient(c *gin.Context) {
	db := h.db.WriteDB.WithContext(c.Request.Context())
	var client models.Client
	if err := db.First(&client, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, h.log, err, "client")
		return
	}
	if client.ArchivedAt == nil {
		now := h.now().UTC()
		client.ArchivedAt = &now
		client.Status = string(scoring.ClientArchived)
		if err := db.Save(&client).Error; err != nil {
			respondDBError(c, h.log, err, "client")
			return
		}
		publish(c.Request.Context(), h.bus, h.log, realtime.EntityClient, realtime.ActionDelete, client.ID, client.ID)
	}
	c.JSON(http.StatusOK, client)
}

// ClientCounts returns dashboard badge counts over every client
// @Summary Client aggregate counts
// @Description Counts per status, the at-risk tab count (health score below 60) and this month's utilization. Archived clients are only counted in the archived badge and the total.
// @Tags clients
// @Produce json
// @Security BearerAuth
// @Success 200 {object} scoring.ClientAggregates
// @Router /api/clients/counts [get]
func (h *ClientHandler) ClientCounts(c *gin.Context) {
	snapshots, err := h.snapshots(c, scoring.MonthStart(h.now()))
	if err != nil {
		respondDBError(c, h.log, err, "clients")
		return
	}
	// Archived clients only feed the archived badge.
	live := make([]scoring.ClientSnapshot, 0, len(snapshots))
	archived := 0
	for _, s := range snapshots {
		if s.Status == scoring.ClientArchived {
			archived++
			continue
		}
		live = append(live, s)
	}
	agg := scoring.AggregateClients(live, len(snapshots))
	agg.CountsByStatus[scoring.ClientArchived] += archived
	c.JSON(http.StatusOK, agg)
}

// ClientUtilization returns published videos against quota for a month
// @Summary Client utilization
// @Tags clients
// @Produce json
// @Param month query string false "YYYY-MM, defaults to the current month"
// @Security BearerAuth
// @Success 200 {object} UtilizationResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/clients/utilization [get]
func (h *ClientHandler) ClientUtilization(c *gin.Context) {
	month := scoring.MonthStart(h.now())
	if raw := c.Query("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = parsed
	}

	snapshots, err := h.snapshots(c, month)
	if err != nil {
		respondDBError(c, h.log, err, "clients")
		return
	}

	resp := UtilizationResponse{Month: month.Format("2006-01"), Utilization: make([]scoring.ClientUtilization, 0, len(snapshots))}
	for _, s := range snapshots {
		if s.Status == scoring.ClientArchived {
			continue
		}
		resp.Utilization = append(resp.Utilization, scoring.ClientUtilization{
			ClientID: s.ID,
			Percent:  scoring.UtilizationPercent(s.PublishedCount, s.MonthlyQuota),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// snapshots loads every client with its published video count for the month
// starting at month.
func (h *ClientHandler) snapshots(c *gin.Context, month time.Time) ([]scoring.ClientSnapshot, error) {
	db := h.db.GetReadDB().WithContext(c.Request.Context())

	var clients []models.Client
	if err := db.Select("id", "status", "health_score", "monthly_quota").Order("name ASC").Find(&clients).Error; err != nil {
		return nil, err
	}

	var published []struct {
		ClientID string
		Count    int
	}
	err := db.Model(&models.Video{}).
		Select("client_id, COUNT(*) AS count").
		Where("stage = ? AND published_at >= ? AND published_at < ?", models.VideoStagePublished, month, month.AddDate(0, 1, 0)).
		Group("client_id").
		Scan(&published).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(published))
	for _, p := range published {
		counts[p.ClientID] = p.Count
	}

	out := make([]scoring.ClientSnapshot, 0, len(clients))
	for _, cl := range clients {
		out = append(out, scoring.ClientSnapshot{
			ID:             cl.ID,
			Status:         scoring.ClientStatus(cl.Status),
			HealthScore:    cl.HealthScore,
			MonthlyQuota:   cl.MonthlyQuota,
			PublishedCount: counts[cl.ID],
		})
	}
	return out, nil
}

func normalizeFlags(flags []string) []string {
	seen := make(map[string]bool, len(flags))
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
