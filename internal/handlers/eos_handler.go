package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"one-os/internal/cache"
	"one-os/internal/database"
	"one-os/internal/logger"
	"one-os/internal/models"
	"one-os/internal/realtime"
	"one-os/internal/scoring"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"
)

var quarterPattern = regexp.MustCompile(`^\d{4}-Q[1-4]$`)

// EOSHandler serves the scorecard, rocks and issues list.
type EOSHandler struct {
	db       *database.DBManager
	cache    *cache.CacheManager
	bus      realtime.Bus
	cacheTTL time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewEOSHandler(db *database.DBManager, cm *cache.CacheManager, bus realtime.Bus, cacheTTL time.Duration, log *logger.Logger) *EOSHandler {
	return &EOSHandler{
		db:       db,
		cache:    cm,
		bus:      bus,
		cacheTTL: cacheTTL,
		log:      log.With("handler", "EOSHandler"),
		now:      time.Now,
	}
}

type KPIRequest struct {
	Name      string   `json:"name" binding:"required"`
	Unit      string   `json:"unit"`
	Target    *float64 `json:"target"`
	Direction string   `json:"direction"`
	Position  int      `json:"position"`
	Owner     string   `json:"owner"`
}

type KPIValueRequest struct {
	WeekStartDate string  `json:"week_start_date"`
	Value         float64 `json:"value"`
}

type RockRequest struct {
	Title   string `json:"title" binding:"required"`
	Owner   string `json:"owner"`
	Quarter string `json:"quarter" binding:"required"`
	Status  string `json:"status"`
	DueDate string `json:"due_date"`
}

type RockStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type IssueRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Priority    int    `json:"priority" binding:"omitempty,min=1,max=3"`
}

// ScorecardWeek is one cell of a scorecard row. Value is nil for weeks with
// no entry.
type ScorecardWeek struct {
	WeekStartDate string   `json:"week_start_date"`
	Value         *float64 `json:"value"`
}

type ScorecardRow struct {
	KPI     models.KPI      `json:"kpi"`
	Weeks   []ScorecardWeek `json:"weeks"`
	Current *float64        `json:"current"`
	OnTrack *bool           `json:"on_track"`
	Trend   scoring.Trend   `json:"trend"`
}

type ScorecardResponse struct {
	WeekStartDate string         `json:"week_start_date"`
	Weeks         int            `json:"weeks"`
	Rows          []ScorecardRow `json:"rows"`
}

// ListKPIs
// @Summary List KPIs
// @Tags eos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.KPI
// @Router /api/kpis [get]
func (h *EOSHandler) ListKPIs(c *gin.Context) {
	kpis := make([]models.KPI, 0)
	if err := h.db.GetReadDB().WithContext(c.Request.Context()).Order("position ASC, name ASC").Find(&kpis).Error; err != nil {
		respondDBError(c, h.log, err, "kpis")
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// CreateKPI
// @Summary Create KPI
// @Tags eos
// @Accept json
// @Produce json
// @Param request body KPIRequest true "KPI"
// @Security BearerAuth
// @Success 201 {object} models.KPI
// @Failure 400 {object} ErrorResponse
// @Router /api/kpis [post]
func (h *EOSHandler) CreateKPI(c *gin.Context) {
	var req KPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	kpi := models.KPI{
		Name:      strings.TrimSpace(req.Name),
		Unit:      req.Unit,
		Target:    req.Target,
		Direction: string(scoring.ParseDirection(req.Direction)),
		Position:  req.Position,
		Owner:     req.Owner,
	}
	if err := h.db.WriteDB.WithContext(c.Request.Context()).Create(&kpi).Error; err != nil {
		respondDBError(c, h.log, err, "kpi")
		return
	}

	publish(c.Request.Context(), h.bus, h.log, realtime.EntityKPI, realtime.ActionInsert, kpi.ID, "")
	c.JSON(http.StatusCreated, kpi)
}

// UpsertKPIValue sets a KPI's value for one week
// @Summary Set a weekly KPI value
// @Description Replaces any existing value for the same KPI and week.
// @Tags eos
// @Accept json
// @Produce json
// @Param id path string true "KPI ID"
// @Param request body KPIValueRequest true "Value"
// @Security BearerAuth
// @Success 200 {object} models.KPIWeeklyValue
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/kpis/{id}/values [put]
func (h *EOSHandler) UpsertKPIValue(c *gin.Context) {
	var req KPIValueRequest
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
	var kpi models.KPI
	if err := db.Select("id").First(&kpi, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, h.log, err, "kpi")
		return
	}

	value := models.KPIWeeklyValue{KPIID: kpi.ID, WeekStartDate: scoring.WeekStart(week), Value: req.Value}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kpi_id"}, {Name: "week_start_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&value).Error
	if err != nil {
		respondDBError(c, h.log, err, "kpi value")
		return
	}

	// The insert id is discarded on conflict, so read back the stored row.
	var stored models.KPIWeeklyValue
	if err := db.Where("kpi_id = ? AND week_start_date = ?", kpi.ID, value.WeekStartDate).First(&stored).Error; err != nil {
		respondDBError(c, h.log, err, "kpi value")
		return
	}

	publish(c.Request.Context(), h.bus, h.log, realtime.EntityKPIValue, realtime.ActionUpdate, stored.ID, "")
	c.JSON(http.StatusOK, stored)
}

// Scorecard returns the trailing weeks of every KPI
// @Summary Weekly scorecard
// @Description on_track compares the current week's value with the target. trend compares the last two recorded weeks.
// @Tags eos
// @Produce json
// @Param weeks query int false "number of weeks, default 13"
// @Security BearerAuth
// @Success 200 {object} ScorecardResponse
// @Router /api/scorecard [get]
func (h *EOSHandler) Scorecard(c *gin.Context) {
	weeks := queryInt(c, "weeks", 13, 52)
	current := scoring.WeekStart(h.now())
	cacheKey := fmt.Sprintf("%s%s:%d", cache.KeyScorecard, current.Format(dateLayout), weeks)

	var cached ScorecardResponse
	if found, err := h.cache.Get(c.Request.Context(), cacheKey, &cached); found && err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	resp, err := h.buildScorecard(c, current, weeks)
	if err != nil {
		respondDBError(c, h.log, err, "scorecard")
		return
	}
	if err := h.cache.Set(c.Request.Context(), cacheKey, resp, h.cacheTTL); err != nil {
		h.log.Warn("failed to cache scorecard", "error", err)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *EOSHandler) buildScorecard(c *gin.Context, current time.Time, weeks int) (ScorecardResponse, error) {
	db := h.db.GetReadDB().WithContext(c.Request.Context())
	first := current.AddDate(0, 0, -7*(weeks-1))

	var kpis []models.KPI
	if err := db.Order("position ASC, name ASC").Find(&kpis).Error; err != nil {
		return ScorecardResponse{}, err
	}
	var values []models.KPIWeeklyValue
	if err := db.Where("week_start_date >= ? AND week_start_date <= ?", first, current).Find(&values).Error; err != nil {
		return ScorecardResponse{}, err
	}

	byKPI := make(map[string]map[string]float64, len(kpis))
	for _, v := range values {
		if byKPI[v.KPIID] == nil {
			byKPI[v.KPIID] = make(map[string]float64)
		}
		byKPI[v.KPIID][v.WeekStartDate.UTC().Format(dateLayout)] = v.Value
	}

	resp := ScorecardResponse{
		WeekStartDate: current.Format(dateLayout),
		Weeks:         weeks,
		Rows:          make([]ScorecardRow, 0, len(kpis)),
	}
	for _, kpi := range kpis {
		dir := scoring.ParseDirection(kpi.Direction)
		row := ScorecardRow{KPI: kpi, Weeks: make([]ScorecardWeek, 0, weeks)}
		history := make([]float64, 0, weeks)

		for i := 0; i < weeks; i++ {
			key := first.AddDate(0, 0, 7*i).Format(dateLayout)
			cell := ScorecardWeek{WeekStartDate: key}
			if v, ok := byKPI[kpi.ID][key]; ok {
				cell.Value = &v
				history = append(history, v)
			}
			row.Weeks = append(row.Weeks, cell)
		}

		row.Current = row.Weeks[len(row.Weeks)-1].Value
		row.OnTrack = scoring.EvaluateKPI(row.Current, kpi.Target, dir)
		row.Trend = scoring.TrendColor(history, dir)
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}

// ListRocks
// @Summary List rocks
// @Tags eos
// @Produce json
// @Param quarter query string false "YYYY-QN"
// @Security BearerAuth
// @Success 200 {array} models.Rock
// @Router /api/rocks [get]
func (h *EOSHandler) ListRocks(c *gin.Context) {
	query := h.db.GetReadDB().WithContext(c.Request.Context())
	if quarter := c.Query("quarter"); quarter != "" {
		query = query.Where("quarter = ?", quarter)
	}
	rocks := make([]models.Rock, 0)
	if err := query.Order("quarter DESC, title ASC").Find(&rocks).Error; err != nil {
		respondDBError(c, h.log, err, "rocks")
		return
	}
	c.JSON(http.StatusOK, rocks)
}

// CreateRock
// @Summary Create rock
// @Tags eos
// @Accept json
// @Produce json
// @Param request body RockRequest true "Rock"
// @Security BearerAuth
// @Success 201 {object} models.Rock
// @Failure 400 {object} ErrorResponse
// @Router /api/rocks [post]
func (h *EOSHandler) CreateRock(c *gin.Context) {
	var req RockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !quarterPattern.MatchString(req.Quarter) {
		respondError(c, http.StatusBadRequest, "quarter must look like 2025-Q3")
		return
	}
	status := req.Status
	if status == "" {
		status = models.RockOnTrack
	}
	if !models.ValidRockStatus(status) {
		respondError(c, http.StatusBadRequest, "Invalid status")
		return
	}

	rock := models.Rock{Title: strings.TrimSpace(req.Title), Owner: req.Owner, Quarter: req.Quarter, Status: status}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate, time.Time{})
		if err != nil {
			respondError(c, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
			return
		}
		rock.DueDate = &due
	}
	if err := h.db.WriteDB.WithContext(c.Request.Context()).Create(&rock).Error; err != nil {
		respondDBError(c, h.log, err, "rock")
		return
	}

	publish(c.Request.Context(), h.bus, h.log, realtime.EntityRock, realtime.ActionInsert, rock.ID, "")
	c.JSON(http.StatusCreated, rock)
}

// UpdateRockStatus
// @Summary Update rock status
// @Tags eos
// @Accept json
// @Produce json
// @Param id path string true "Rock ID"
// @Param request body RockStatusRequest true "Status"
// @Security BearerAuth
// @Success 200 {object} models.Rock
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/rocks/{id}/status [put]
func (h *EOSHandler) UpdateRockStatus(c *gin.Context) {
	var req RockStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !models.ValidRockStatus(req.Status) {
		respondError(c, http.StatusBadRequest, "Invalid status")
		return
	}

	db := h.db.WriteDB.WithContext(c.Request.Context())
	var rock models.Rock
	if err := db.First(&rock, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, h.log, err, "rock")
		return
	}
	rock.Status = req.Status
	if err := db.Save(&rock).Error; err != nil {
		respondDBError(c, h.log, err, "rock")
		return
	}

	publish(c.Request.Context(), h.bus, h.log, realtime.EntityRock, realtime.ActionUpdate, rock.ID, "")
	c.JSON(http.StatusOK, rock)
}

// ListIssues
// @Summary List issues
// @Tags eos
// @Produce json
// @Param status query string false "open|solved, default open"
// @Security BearerAuth
// @Success 200 {array} models.Issue
// @Router /api/issues [get]
func (h *EOSHandler) ListIssues(c *gin.Context) {
	status := c.DefaultQuery("status", models.IssueOpen)
	issues := make([]models.Issue, 0)
	err := h.db.GetReadDB().WithContext(c.Request.Context()).
		Where("status = ?", status).
		Order("priority ASC, created_at ASC").
		Find(&issues).Error
	if err != nil {
		respondDBError(c, h.log, err, "issues")
		return
	}
	c.JSON(http.StatusOK, issues)
}

// CreateIssue
// @Summary Create issue
// @Tags eos
// @Accept json
// @Produce json
// @Param request body IssueRequest true "Issue"
// @Security BearerAuth
// @Success 201 {object} models.Issue
// @Failure 400 {object} ErrorResponse
// @Router /api/issues [post]
func (h *EOSHandler) CreateIssue(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	priority := req.Priority
	if priority == 0 {
		priority = 2
	}

	issue := models.Issue{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Priority:    priority,
		Status:      models.IssueOpen,
	}
	if err := h.db.WriteDB.WithContext(c.Request.Context()).Create(&issue).Error; err != nil {
		respondDBError(c, h.log, err, "issue")
		return
	}

	publish(c.Request.Context(), h.bus, h.log, realtime.EntityIssue, realtime.ActionInsert, issue.ID, "")
	c.JSON(http.StatusCreated, issue)
}

// SolveIssue marks an issue solved. Solving twice keeps the first timestamp.
// @Summary Solve issue
// @Tags eos
// @Produce json
// @Param id path string true "Issue ID"
// @Security BearerAuth
// @Success 200 {object} models.Issue
// @Failure 404 {object} ErrorResponse
// @Router /api/issues/{id}/solve [post]
func (h *EOSHandler) SolveIssue(c *gin.Context) {
	db := h.db.WriteDB.WithContext(c.Request.Context())
	var issue models.Issue
	if err := db.First(&issue, "id = ?", c.Param("id")).Error; err != nil {
		respondDBError(c, h.log, err, "issue")
		return
	}
	if issue.Status != models.IssueSolved {
		now := h.now().UTC()
		issue.Status = models.IssueSolved
		issue.SolvedAt = &now
		if err := db.Save(&issue).Error; err != nil {
			respondDBError(c, h.log, err, "issue")
			return
		}
		publish(c.Request.Context(), h.bus, h.log, realtime.EntityIssue, realtime.ActionUpdate, issue.ID, "")
	}
	c.JSON(http.StatusOK, issue)
}
