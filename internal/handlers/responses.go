package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"one-os/internal/logger"
	"one-os/internal/realtime"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{Error: msg})
}

// respondDBError maps gorm errors onto HTTP statuses: missing rows are 404,
// unique violations 409, anything else is logged and reported as 500.
func respondDBError(c *gin.Context, log *logger.Logger, err error, what string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondError(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		respondError(c, http.StatusConflict, what+" already exists")
	default:
		log.Error("database error", "what", what, "error", err, "path", c.FullPath())
		respondError(c, http.StatusInternalServerError, "Failed to process "+what)
	}
}

func publish(ctx context.Context, bus realtime.Bus, log *logger.Logger, entity realtime.EntityType, action realtime.Action, id, clientID string) {
	err := bus.Publish(ctx, realtime.ChangeEvent{
		Entity:   entity,
		Action:   action,
		ID:       id,
		ClientID: clientID,
		At:       time.Now().UTC(),
	})
	if err != nil {
		log.Warn("failed to publish change event", "entity", entity, "id", id, "error", err)
	}
}

// parseDate reads a YYYY-MM-DD value; empty means fallback.
func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	return time.Parse(dateLayout, s)
}

// queryInt reads a positive integer query parameter clamped to max.
func queryInt(c *gin.Context, key string, def, max int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
