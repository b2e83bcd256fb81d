package scoring

// ClientStatus is the lifecycle state stored on a client record.
type ClientStatus string

const (
	ClientActive     ClientStatus = "active"
	ClientPaused     ClientStatus = "paused"
	ClientAtRisk     ClientStatus = "at_risk"
	ClientOnboarding ClientStatus = "onboarding"
	ClientArchived   ClientStatus = "archived"
)

// ClientStatuses lists every status in display order.
var ClientStatuses = []ClientStatus{ClientActive, ClientPaused, ClientAtRisk, ClientOnboarding, ClientArchived}

// Valid reports whether s is a known status.
func (s ClientStatus) Valid() bool {
	for _, known := range ClientStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// RiskHealthThreshold is the health score under which a client shows up in the
// "at risk" dashboard tab. It is unrelated to the at_risk status value.
const RiskHealthThreshold = 60

// ClientSnapshot is the subset of a client record the counters need.
type ClientSnapshot struct {
	ID             string       `json:"id"`
	Status         ClientStatus `json:"status"`
	HealthScore    int          `json:"health_score"`
	MonthlyQuota   int          `json:"monthly_quota"`
	PublishedCount int          `json:"published_count"`
}

// ClientUtilization is one client's delivered work against quota.
type ClientUtilization struct {
	ClientID string  `json:"client_id"`
	Percent  float64 `json:"utilization_percent"`
}

// ClientAggregates are the dashboard badge counts for a list of clients.
type ClientAggregates struct {
	Total          int                  `json:"total"`
	CountsByStatus map[ClientStatus]int `json:"counts_by_status"`
	AtRiskTabCount int                  `json:"at_risk_tab_count"`
	Utilization    []ClientUtilization  `json:"utilization"`
}

// HealthBelowRiskThreshold is the at-risk tab predicate. Callers filtering on
// status == at_risk want HasStatus instead.
func HealthBelowRiskThreshold(healthScore int) bool {
	return healthScore < RiskHealthThreshold
}

// HasStatus reports an exact status match.
func HasStatus(c ClientSnapshot, status ClientStatus) bool {
	return c.Status == status
}

// UtilizationPercent is published / quota as a percentage. A quota of zero or
// less yields 0.
func UtilizationPercent(published, quota int) float64 {
	if quota <= 0 {
		return 0
	}
	return float64(published) / float64(quota) * 100
}

// AggregateClients computes per-status counts, the at-risk tab count and
// per-client utilization. total is reported as given; it may exceed
// len(clients) when the caller only loaded a page.
func AggregateClients(clients []ClientSnapshot, total int) ClientAggregates {
	out := ClientAggregates{
		Total:          total,
		CountsByStatus: make(map[ClientStatus]int, len(ClientStatuses)),
		Utilization:    make([]ClientUtilization, 0, len(clients)),
	}
	for _, s := range ClientStatuses {
		out.CountsByStatus[s] = 0
	}

	for _, c := range clients {
		if c.Status.Valid() {
			out.CountsByStatus[c.Status]++
		}
		if HealthBelowRiskThreshold(c.HealthScore) {
			out.AtRiskTabCount++
		}
		out.Utilization = append(out.Utilization, ClientUtilization{
			ClientID: c.ID,
			Percent:  UtilizationPercent(c.PublishedCount, c.MonthlyQuota),
		})
	}
	return out
}
