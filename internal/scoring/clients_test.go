package scoring

import (
	"testing"
	"time"
)

func TestAggregateClientsAtRiskTabIgnoresStatus(t *testing.T) {
	clients := []ClientSnapshot{
		{ID: "a", Status: ClientActive, HealthScore: 10},
		{ID: "b", Status: ClientAtRisk, HealthScore: 59},
		{ID: "c", Status: ClientAtRisk, HealthScore: 60},
		{ID: "d", Status: ClientAtRisk, HealthScore: 80},
		{ID: "e", Status: ClientOnboarding, HealthScore: 95},
	}
	agg := AggregateClients(clients, 5)

	if agg.AtRiskTabCount != 2 {
		t.Fatalf("AtRiskTabCount: want=2 got=%d", agg.AtRiskTabCount)
	}
	if agg.CountsByStatus[ClientAtRisk] != 3 {
		t.Fatalf("CountsByStatus[at_risk]: want=3 got=%d", agg.CountsByStatus[ClientAtRisk])
	}
	if agg.CountsByStatus[ClientActive] != 1 || agg.CountsByStatus[ClientOnboarding] != 1 {
		t.Fatalf("CountsByStatus: unexpected %+v", agg.CountsByStatus)
	}
	if agg.CountsByStatus[ClientPaused] != 0 || agg.CountsByStatus[ClientArchived] != 0 {
		t.Fatalf("CountsByStatus: zero statuses missing %+v", agg.CountsByStatus)
	}
	if agg.Total != 5 {
		t.Fatalf("Total: want=5 got=%d", agg.Total)
	}
}

func TestAggregateClientsUnknownStatusNotCounted(t *testing.T) {
	agg := AggregateClients([]ClientSnapshot{{ID: "x", Status: "churned", HealthScore: 90}}, 1)
	for status, n := range agg.CountsByStatus {
		if n != 0 {
			t.Fatalf("CountsByStatus[%s]: want=0 got=%d", status, n)
		}
	}
}

func TestUtilizationPercent(t *testing.T) {
	cases := []struct {
		published, quota int
		want             float64
	}{
		{4, 8, 50},
		{12, 8, 150},
		{3, 0, 0},
		{3, -1, 0},
		{0, 10, 0},
	}
	for _, tc := range cases {
		if got := UtilizationPercent(tc.published, tc.quota); got != tc.want {
			t.Fatalf("UtilizationPercent(%d, %d): want=%v got=%v", tc.published, tc.quota, tc.want, got)
		}
	}
}

func TestAggregateClientsUtilizationOrder(t *testing.T) {
	agg := AggregateClients([]ClientSnapshot{
		{ID: "a", MonthlyQuota: 4, PublishedCount: 1, HealthScore: 70},
		{ID: "b", MonthlyQuota: 0, PublishedCount: 3, HealthScore: 70},
	}, 2)
	if len(agg.Utilization) != 2 {
		t.Fatalf("Utilization: want 2 entries got %d", len(agg.Utilization))
	}
	if agg.Utilization[0].ClientID != "a" || agg.Utilization[0].Percent != 25 {
		t.Fatalf("Utilization[0]: unexpected %+v", agg.Utilization[0])
	}
	if agg.Utilization[1].Percent != 0 {
		t.Fatalf("Utilization[1]: want=0 got=%v", agg.Utilization[1].Percent)
	}
}

func TestEvaluateCampaign(t *testing.T) {
	got := EvaluateCampaign(CampaignMetrics{Spend: 500, Revenue: 2000, Impressions: 10000, Clicks: 250, Conversions: 20})
	want := CampaignPerformance{ROAS: 4, CTR: 2.5, CPC: 2, CPA: 25}
	if got != want {
		t.Fatalf("EvaluateCampaign: want=%+v got=%+v", want, got)
	}

	zero := EvaluateCampaign(CampaignMetrics{Revenue: 100})
	if zero != (CampaignPerformance{}) {
		t.Fatalf("EvaluateCampaign zero spend: want zero value got=%+v", zero)
	}
}

func TestWeekStart(t *testing.T) {
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for _, day := range []time.Time{
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC),
		time.Date(2025, 6, 8, 23, 59, 0, 0, time.UTC),
	} {
		if got := WeekStart(day); !got.Equal(monday) {
			t.Fatalf("WeekStart(%s): want=%s got=%s", day, monday, got)
		}
	}
	if got := WeekStart(time.Date(2025, 6, 9, 1, 0, 0, 0, time.UTC)); !got.Equal(monday.AddDate(0, 0, 7)) {
		t.Fatalf("WeekStart next monday: got=%s", got)
	}
}
