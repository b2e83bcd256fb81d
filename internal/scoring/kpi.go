package scoring

import "strings"

// Direction says which way a KPI should move.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection accepts "up" and "down" case-insensitively. Anything else is up.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(DirectionDown)) {
		return DirectionDown
	}
	return DirectionUp
}

// EvaluateKPI reports whether current meets target. It returns nil when either
// value is missing.
func EvaluateKPI(current, target *float64, dir Direction) *bool {
	if current == nil || target == nil {
		return nil
	}
	var onTrack bool
	if dir == DirectionDown {
		onTrack = *current <= *target
	} else {
		onTrack = *current >= *target
	}
	return &onTrack
}

// Trend is the chart color for a KPI series.
type Trend string

const (
	TrendPositive Trend = "positive"
	TrendNegative Trend = "negative"
	TrendNeutral  Trend = "neutral"
)

// TrendColor compares the last two values of history (oldest first). A rise is
// positive for up KPIs and negative for down KPIs. It is for rendering only and
// has no bearing on EvaluateKPI.
func TrendColor(history []float64, dir Direction) Trend {
	if len(history) < 2 {
		return TrendNeutral
	}
	prev, last := history[len(history)-2], history[len(history)-1]
	switch {
	case last == prev:
		return TrendNeutral
	case (last > prev) == (dir != DirectionDown):
		return TrendPositive
	default:
		return TrendNegative
	}
}
