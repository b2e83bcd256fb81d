package scoring

import "math"

// Weight constants for the client growth health score.
// They must sum to 1.0.
const (
	weightRevenue      = 0.30
	weightUsers        = 0.20
	weightConversion   = 0.20
	weightChurn        = 0.15
	weightSatisfaction = 0.15
)

// Saturation references for the normalized revenue and user terms.
const (
	RevenueReference     = 10000.0
	ActiveUsersReference = 1000.0
)

// Status thresholds. Each tier includes its lower bound.
const (
	ThresholdExcellent = 80
	ThresholdGood      = 65
	ThresholdWarning   = 50
)

// HealthStatus is the four-tier label derived from a health score.
type HealthStatus string

const (
	StatusExcellent HealthStatus = "excellent"
	StatusGood      HealthStatus = "good"
	StatusWarning   HealthStatus = "warning"
	StatusCritical  HealthStatus = "critical"
)

// GrowthInput holds one week of raw business metrics for a client.
// ConversionRate and ChurnRate are in percent units, CustomerSatisfaction is 0-100.
type GrowthInput struct {
	Revenue              float64 `json:"revenue"`
	ActiveUsers          float64 `json:"active_users"`
	ConversionRate       float64 `json:"conversion_rate"`
	ChurnRate            float64 `json:"churn_rate"`
	CustomerSatisfaction float64 `json:"customer_satisfaction"`
}

// NormalizedMetrics are the five inputs mapped onto a common 0-100 scale.
type NormalizedMetrics struct {
	Revenue      float64 `json:"revenue_norm"`
	Users        float64 `json:"users_norm"`
	Conversion   float64 `json:"conversion_norm"`
	Churn        float64 `json:"churn_norm"`
	Satisfaction float64 `json:"satisfaction_norm"`
}

// HealthScore is the result of scoring a GrowthInput.
type HealthScore struct {
	Score     int               `json:"score"`
	Status    HealthStatus      `json:"status"`
	Breakdown NormalizedMetrics `json:"breakdown"`
}

// Scorer computes health scores.
//
// ClampConversion bounds the conversion, churn and satisfaction terms to
// [0, 100], which keeps the score in [0, 100]. The raw formula passes
// conversion_rate and customer_satisfaction through as-is and lets a negative
// churn_rate lift churn_norm past 100. Leave ClampConversion false to
// reproduce the raw formula exactly.
type Scorer struct {
	ClampConversion bool
}

// Raw scores are held inside the int32 range.
const (
	maxRawScore = math.MaxInt32
	minRawScore = math.MinInt32
)

// DefaultScorer clamps the normalized terms.
var DefaultScorer = Scorer{ClampConversion: true}

// Normalize maps raw metrics onto 0-100 scales:
//
//	revenue_norm      = min(100, revenue / 10000 * 100)
//	users_norm        = min(100, active_users / 1000 * 100)
//	conversion_norm   = conversion_rate
//	churn_norm        = max(0, 100 - churn_rate * 10)
//	satisfaction_norm = customer_satisfaction
//
// NaN and infinite inputs count as 0. Negative revenue and users floor at 0.
func (s Scorer) Normalize(in GrowthInput) NormalizedMetrics {
	revenue := finite(in.Revenue)
	users := finite(in.ActiveUsers)
	conversion := finite(in.ConversionRate)
	churn := finite(in.ChurnRate)

	n := NormalizedMetrics{
		Revenue:      clamp(revenue/RevenueReference*100, 0, 100),
		Users:        clamp(users/ActiveUsersReference*100, 0, 100),
		Conversion:   conversion,
		Churn:        math.Max(0, 100-churn*10),
		Satisfaction: finite(in.CustomerSatisfaction),
	}
	if s.ClampConversion {
		n.Conversion = clamp(n.Conversion, 0, 100)
		n.Churn = clamp(n.Churn, 0, 100)
		n.Satisfaction = clamp(n.Satisfaction, 0, 100)
	}
	return n
}

// Weighted returns the unrounded weighted sum of the normalized terms.
func (n NormalizedMetrics) Weighted() float64 {
	return n.Revenue*weightRevenue +
		n.Users*weightUsers +
		n.Conversion*weightConversion +
		n.Churn*weightChurn +
		n.Satisfaction*weightSatisfaction
}

// Score returns the rounded health score for in.
func (s Scorer) Score(in GrowthInput) int {
	return s.round(s.Normalize(in).Weighted())
}

// Evaluate scores in and attaches the status label and per-term breakdown.
func (s Scorer) Evaluate(in GrowthInput) HealthScore {
	n := s.Normalize(in)
	score := s.round(n.Weighted())
	return HealthScore{
		Score:     score,
		Status:    StatusForScore(score),
		Breakdown: n,
	}
}

// StatusForScore maps a score to its tier.
func StatusForScore(score int) HealthStatus {
	switch {
	case score >= ThresholdExcellent:
		return StatusExcellent
	case score >= ThresholdGood:
		return StatusGood
	case score >= ThresholdWarning:
		return StatusWarning
	default:
		return StatusCritical
	}
}

func (s Scorer) round(weighted float64) int {
	if s.ClampConversion {
		return int(math.Round(clamp(finite(weighted), 0, 100)))
	}
	// Huge inputs can push a term or the sum to Inf.
	switch {
	case math.IsNaN(weighted):
		return 0
	case weighted >= maxRawScore:
		return maxRawScore
	case weighted <= minRawScore:
		return minRawScore
	}
	return int(math.Round(weighted))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
