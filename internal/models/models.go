package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base carries the string UUID primary key shared by every table.
type Base struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// Users
type User struct {
	Base
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Name         string `gorm:"type:varchar(255)" json:"name"`
	Role         string `gorm:"type:varchar(20);not null;default:member" json:"role"`
}

func (User) TableName() string {
	return "users"
}

// Clients. HealthScore is maintained by hand and is independent of the
// weekly growth metrics score.
type Client struct {
	Base
	Name         string                      `gorm:"type:varchar(255);not null" json:"name"`
	ContactEmail string                      `gorm:"type:varchar(255)" json:"contact_email"`
	Status       string                      `gorm:"type:varchar(20);index;not null" json:"status"`
	MonthlyQuota int                         `gorm:"not null;default:0" json:"monthly_quota"`
	HealthScore  int                         `gorm:"not null;default:0" json:"health_score"`
	MRR          float64                     `gorm:"not null;default:0" json:"mrr"`
	Flags        datatypes.JSONSlice[string] `json:"flags"`
	ArchivedAt   *time.Time                  `gorm:"index" json:"archived_at,omitempty"`
}

func (Client) TableName() string {
	return "clients"
}

// Weekly Growth Metrics, one row per client per Monday.
type WeeklyGrowthMetrics struct {
	Base
	ClientID             string    `gorm:"type:varchar(36);uniqueIndex:idx_client_week;not null" json:"client_id"`
	WeekStartDate        time.Time `gorm:"type:date;uniqueIndex:idx_client_week;not null" json:"week_start_date"`
	Revenue              float64   `gorm:"not null;default:0" json:"revenue"`
	ActiveUsers          int64     `gorm:"not null;default:0" json:"active_users"`
	ConversionRate       float64   `gorm:"not null;default:0" json:"conversion_rate"`
	ChurnRate            float64   `gorm:"not null;default:0" json:"churn_rate"`
	CustomerSatisfaction float64   `gorm:"not null;default:0" json:"customer_satisfaction"`
	HealthScore          int       `gorm:"not null;default:0" json:"health_score"`
	HealthStatus         string    `gorm:"type:varchar(20)" json:"health_status"`
}

func (WeeklyGrowthMetrics) TableName() string {
	return "weekly_growth_metrics"
}

// Video production pipeline
type Video struct {
	Base
	ClientID    string     `gorm:"type:varchar(36);index:idx_video_client_stage;not null" json:"client_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Stage       string     `gorm:"type:varchar(20);index:idx_video_client_stage;not null" json:"stage"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
}

func (Video) TableName() string {
	return "videos"
}

// Ad campaigns
type Campaign struct {
	Base
	ClientID    string  `gorm:"type:varchar(36);index;not null" json:"client_id"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Platform    string  `gorm:"type:varchar(50)" json:"platform"`
	Status      string  `gorm:"type:varchar(20);not null" json:"status"`
	Spend       float64 `gorm:"not null;default:0" json:"spend"`
	Revenue     float64 `gorm:"not null;default:0" json:"revenue"`
	Impressions int64   `gorm:"not null;default:0" json:"impressions"`
	Clicks      int64   `gorm:"not null;default:0" json:"clicks"`
	Conversions int64   `gorm:"not null;default:0" json:"conversions"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// EOS scorecard KPIs
type KPI struct {
	Base
	Name      string   `gorm:"type:varchar(255);not null" json:"name"`
	Unit      string   `gorm:"type:varchar(20)" json:"unit"`
	Target    *float64 `json:"target"`
	Direction string   `gorm:"type:varchar(4);not null;default:up" json:"direction"`
	Position  int      `gorm:"not null;default:0" json:"position"`
	Owner     string   `gorm:"type:varchar(255)" json:"owner"`
}

func (KPI) TableName() string {
	return "kpis"
}

type KPIWeeklyValue struct {
	Base
	KPIID         string    `gorm:"column:kpi_id;type:varchar(36);uniqueIndex:idx_kpi_week;not null" json:"kpi_id"`
	WeekStartDate time.Time `gorm:"type:date;uniqueIndex:idx_kpi_week;not null" json:"week_start_date"`
	Value         float64   `gorm:"not null" json:"value"`
}

func (KPIWeeklyValue) TableName() string {
	return "kpi_weekly_values"
}

// EOS rocks (quarterly goals)
type Rock struct {
	Base
	Title   string     `gorm:"type:varchar(255);not null" json:"title"`
	Owner   string     `gorm:"type:varchar(255)" json:"owner"`
	Quarter string     `gorm:"type:varchar(7);index;not null" json:"quarter"`
	Status  string     `gorm:"type:varchar(20);not null" json:"status"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

func (Rock) TableName() string {
	return "rocks"
}

// EOS issues list
type Issue struct {
	Base
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Priority    int        `gorm:"not null;default:2" json:"priority"`
	Status      string     `gorm:"type:varchar(10);index;not null" json:"status"`
	SolvedAt    *time.Time `json:"solved_at,omitempty"`
}

func (Issue) TableName() string {
	return "issues"
}

// Revoked session tokens
type TokenBlacklist struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	TokenID   string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

func (TokenBlacklist) TableName() string {
	return "token_blacklist"
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Client{},
		&WeeklyGrowthMetrics{},
		&Video{},
		&Campaign{},
		&KPI{},
		&KPIWeeklyValue{},
		&Rock{},
		&Issue{},
		&TokenBlacklist{},
	}
}

// Enumerations stored as strings.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	VideoStageIdea      = "idea"
	VideoStageScripting = "scripting"
	VideoStageFilming   = "filming"
	VideoStageEditing   = "editing"
	VideoStageReview    = "review"
	VideoStageScheduled = "scheduled"
	VideoStagePublished = "published"

	CampaignActive = "active"
	CampaignPaused = "paused"
	CampaignEnded  = "ended"

	RockOnTrack  = "on_track"
	RockOffTrack = "off_track"
	RockDone     = "done"

	IssueOpen   = "open"
	IssueSolved = "solved"
)

var VideoStages = []string{
	VideoStageIdea, VideoStageScripting, VideoStageFilming, VideoStageEditing,
	VideoStageReview, VideoStageScheduled, VideoStagePublished,
}

func ValidVideoStage(s string) bool { return contains(VideoStages, s) }

func ValidCampaignStatus(s string) bool {
	return contains([]string{CampaignActive, CampaignPaused, CampaignEnded}, s)
}

func ValidRockStatus(s string) bool {
	return contains([]string{RockOnTrack, RockOffTrack, RockDone}, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
