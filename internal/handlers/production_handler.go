package handlers

import (
	"net/http"
	"strings"
	"time"

	"one-os/internal/database"
	"one-os/internal/logger"
	"one-os/internal/models"
	"one-os/internal/realtime"
	"one-os/internal/scoring"

	"github.com/gin-gonic/gin"
)

// ProductionHandler serves the video pipeline and ad campaigns.
type ProductionHandler struct {
	db  *database.DBManager
	bus realtime.Bus
	log *logger.Logger
	now func() time.Time
}

func NewProductionHandler(db *database.DBManager, bus realtime.Bus, log *logger.Logger) *ProductionHandler {
	return &ProductionHandler{
		db:  db,
		bus: bus,
		log: log.With("handler", "ProductionHandler"),
		now: time.Now,
	}
}

type VideoRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Stage    string `json:"stage"`
	DueDate  string `json:"due_date"`
}

type VideoStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

type CampaignRequest struct {
	ClientID    string  `json:"client_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Platform    string  `json:"platform"`
	Status      string  `json:"status"`
	Spend       float64 `json:"spend" binding:"min=0"`
	Revenue     float64 `json:"revenue" binding:"min=0"`
	Impressions int64   `json:"impressions" binding:"min=0"`
	Clicks      int64   `json:"clicks" binding:"min=0"`
	Conversions int64   `json:"conversions" binding:"min=0"`
}

type CampaignDetailResponse struct {
	Campaign    models.Campaign             `json:"campaign"`
	Performance scoring.CampaignPerformance `json:"performance"`
}

// ListVideos
// @Summary List videos
// @Tags production
// @Produce json
// @Param client_id query string false "Client ID"
// @Param stage query string false "Pipeline stage"
// @Security BearerAuth
// @Success 200 {array} models.Video
// @Router /api/videos [get]
func (h *ProductionHandler) ListVideos(c *gin.Context) {
	query := h.db.GetReadDB().WithContext(c.Request.Context())
	if clientID := c.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if stage := c.Query("stage"); stage != "" {
		if !models.ValidVideoStage(stage) {
			respondError(c, http.StatusBadRequest, "Invalid stage")
			return
		}
		query = query.Where("stage = ?", stage)
	}

	videos := make([]models.Video, 0)
	if err := query.Order("created_at DESC").Limit(queryInt(c, "limit", 100, 500)).Find(&videos).Error; err != nil {
		respondDBError(c, h.log, err, "videos")
		return
	}
	c.JSON(http.StatusOK, videos)
}

// CreateVideo
// @Summary Add a video to the pipeline
// @Tags production
// @Accept json
// @Produce json
// @Param request body VideoRequest true "Video"
// @Security BearerAuth
// @Success 201 {object} models.Video
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/videos [post]
func (h *ProductionHandler) CreateVideo(c *gin.Context) {
	var req VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	stage := req.Stage
	if stage == "" {
		stage = models.VideoStageIdea
	}
	if !models.ValidVideoStage(stage) {
		respondError(c, http.StatusBadRequest, "Invalid stage")
		return
	}

	video := models.Video{ClientID: req.ClientID, Title: strings.TrimSpace(req.Title), Stage: stage}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate, time.Time{})
		if err != nil {
			respondError(c, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
			return
		}
		video.DueDate = &due
	}
	if stage == models.VideoStagePublished {
		now := h.now().UTC()
		video.PublishedAt = &now
	}

	db := h.db.WriteDB.WithContext(c.Request.Context())
	if err := db.Select("id").First(&models.Client{}, "id = ?", req.ClientID).Error; err != nil {
		respondDBError(c, h.log, err, "client")
		return
	}
	if err := db.Create(&video).Error; err != nil {
		respondDBError(c, h.log, err, "video")
		return
	}

	publish(c.Request.Context(), h.bus, h.log, realtime.EntityVideo, realtime.ActionInsert, video.ID, video.ClientID)
	c.JSON(http.StatusCreated, video)
}

// UpdateVideoStage moves a video through the pipeline
// @Summary Move a video to another stage
// @Description Entering published stamps published_at. Leaving it clears the stamp.
// @Tags production
// @Accept json
// @Produce json
// @Param id path string true "Video ID"
// @Param request body VideoStageRequest true "Stage"
// @Security BearerAuth
// @Success 200 {object} models.Video
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/videos/{id}/stage [put]
func (h *ProductionHandler) UpdateVideoStage(c *gin.Context) {
	var req VideoStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !models.ValidVideoStage(req.Stage) {
		respondError(c, http.StatusBadRequest, "Invalid stage")
		return
	}

	db := h.db.WriteDB.WithContext(c.Request.Context())
	var video models.Video
	if err := db.First(&video, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, h.log, err, "video")
		return
	}

	switch {
	case req.Stage == models.VideoStagePublished && video.PublishedAt == nil:
		now := h.now().UTC()
		video.PublishedAt = &now
	case req.Stage != models.VideoStagePublished:
		video.PublishedAt = nil
	}
	video.Stage = req.Stage

	if err := db.Save(&video).Error; err != nil {
		respondDBError(c, h.log, err, "video")
		return
	}

	publish(c.Request.Context(), h.bus, h.log, realtime.EntityVideo, realtime.ActionUpdate, video.ID, video.ClientID)
	c.JSON(http.StatusOK, video)
}

// ListCampaigns
// @Summary List campaigns
// @Tags production
// @Produce json
// @Param client_id query string false "Client ID"
// @Param status query string false "active|paused|ended"
// @Security BearerAuth
// @Success 200 {array} models.Campaign
// @Router /api/campaigns [get]
func (h *ProductionHandler) ListCampaigns(c *gin.Context) {
	query := h.db.GetReadDB().WithContext(c.Request.Context())
	if clientID := c.Query("client_id"); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	campaigns := make([]models.Campaign, 0)
	if err := query.Order("created_at DESC").Limit(queryInt(c, "limit", 100, 500)).Find(&campaigns).Error; err != nil {
		respondDBError(c, h.log, err, "campaigns")
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

// CreateCampaign
// @Summary Create campaign
// @Tags production
// @Accept json
// @Produce json
// @Param request body CampaignRequest true "Campaign"
// @Security BearerAuth
// @Success 201 {object} CampaignDetailResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/campaigns [post]
func (h *ProductionHandler) CreateCampaign(c *gin.Context) {
	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	status := req.Status
	if status == "" {
		status = models.CampaignActive
	}
	if !models.ValidCampaignStatus(status) {
		respondError(c, http.StatusBadRequest, "Invalid status")
		return
	}

	db := h.db.WriteDB.WithContext(c.Request.Context())
	if err := db.Select("id").First(&models.Client{}, "id = ?", req.ClientID).Error; err != nil {
		respondDBError(c, h.log, err, "client")
		return
	}

	campaign := models.Campaign{
		ClientID:    req.ClientID,
		Name:        strings.TrimSpace(req.Name),
		Platform:    req.Platform,
		Status:      status,
		Spend:       req.Spend,
		Revenue:     req.Revenue,
		Impressions: req.Impressions,
		Clicks:      req.Clicks,
		Conversions: req.Conversions,
	}
	if err := db.Create(&campaign).Error; err != nil {
		respondDBError(c, h.log, err, "campaign")
		return
	}

	publish(c.Request.Context(), h.bus, h.log, realtime.EntityCampaign, realtime.ActionInsert, campaign.ID, campaign.ClientID)
	c.JSON(http.StatusCreated, campaignDetail(campaign))
}

// GetCampaign returns a campaign with its derived ratios
// @Summary Get campaign
// @Tags production
// @Produce json
// @Param id path string true "Campaign ID"
// @Security BearerAuth
// @Success 200 {object} CampaignDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/campaigns/{id} [get]
func (h *ProductionHandler) GetCampaign(c *gin.Context) {
	var campaign models.Campaign
	if err := h.db.GetReadDB().WithContext(c.Request.Context()).First(&campaign, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, h.log, err, "campaign")
		return
	}
	c.JSON(http.StatusOK, campaignDetail(campaign))
}

func campaignDetail(cp models.Campaign) CampaignDetailResponse {
	return CampaignDetailResponse{
		Campaign: cp,
		Performance: scoring.EvaluateCampaign(scoring.CampaignMetrics{
			Spend:       cp.Spend,
			Revenue:     cp.Revenue,
			Impressions: cp.Impressions,
			Clicks:      cp.Clicks,
			Conversions: cp.Conversions,
		}),
	}
}
