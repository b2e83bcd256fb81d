package scoring

import "time"

// CampaignMetrics are the raw counters entered for an ad campaign.
type CampaignMetrics struct {
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
}

// CampaignPerformance holds ratios derived from CampaignMetrics. Every ratio
// with a zero denominator is 0.
type CampaignPerformance struct {
	ROAS float64 `json:"roas"`
	CTR  float64 `json:"ctr_percent"`
	CPC  float64 `json:"cpc"`
	CPA  float64 `json:"cpa"`
}

func EvaluateCampaign(m CampaignMetrics) CampaignPerformance {
	return CampaignPerformance{
		ROAS: ratio(m.Revenue, m.Spend),
		CTR:  ratio(float64(m.Clicks)*100, float64(m.Impressions)),
		CPC:  ratio(m.Spend, float64(m.Clicks)),
		CPA:  ratio(m.Spend, float64(m.Conversions)),
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return finite(num / den)
}

// WeekStart returns the Monday 00:00 UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of t's month, 00:00 UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
