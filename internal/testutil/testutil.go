package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"one-os/internal/database"
	"one-os/internal/logger"
	"one-os/internal/models"

	"gorm.io/gorm"
)

const JWTSecret = "test-secret-0123456789abcdef0123456789"

var dbSeq atomic.Int64

// DB returns a migrated in-memory sqlite database private to tb.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := database.Open("sqlite", dsn, logger.Nop())
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func SeedClient(tb testing.TB, db *gorm.DB, name, status string, health, quota int) *models.Client {
	tb.Helper()
	c := &models.Client{Name: name, Status: status, HealthScore: health, MonthlyQuota: quota}
	if err := db.WithContext(context.Background()).Create(c).Error; err != nil {
		tb.Fatalf("seed client: %v", err)
	}
	return c
}

func SeedPublishedVideo(tb testing.TB, db *gorm.DB, clientID string, publishedAt time.Time) *models.Video {
	tb.Helper()
	v := &models.Video{ClientID: clientID, Title: "video", Stage: models.VideoStagePublished, PublishedAt: &publishedAt}
	if err := db.WithContext(context.Background()).Create(v).Error; err != nil {
		tb.Fatalf("seed video: %v", err)
	}
	return v
}

func SeedKPI(tb testing.TB, db *gorm.DB, name string, target *float64, direction string, position int) *models.KPI {
	tb.Helper()
	k := &models.KPI{Name: name, Target: target, Direction: direction, Position: position}
	if err := db.WithContext(context.Background()).Create(k).Error; err != nil {
		tb.Fatalf("seed kpi: %v", err)
	}
	return k
}
