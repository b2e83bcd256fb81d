package scoring

import "testing"

func ptr(v float64) *float64 { return &v }

func TestEvaluateKPI(t *testing.T) {
	cases := []struct {
		name            string
		current, target *float64
		dir             Direction
		want            *bool
	}{
		{"up equal", ptr(50), ptr(50), DirectionUp, boolPtr(true)},
		{"up below", ptr(49), ptr(50), DirectionUp, boolPtr(false)},
		{"down above", ptr(50), ptr(49), DirectionDown, boolPtr(false)},
		{"down equal", ptr(49), ptr(49), DirectionDown, boolPtr(true)},
		{"no target", ptr(50), nil, DirectionUp, nil},
		{"no current", nil, ptr(50), DirectionDown, nil},
	}
	for _, tc := range cases {
		got := EvaluateKPI(tc.current, tc.target, tc.dir)
		if (got == nil) != (tc.want == nil) {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
		if got != nil && *got != *tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, *tc.want, *got)
		}
	}
}

func boolPtr(b bool) *bool { return &b }

func TestParseDirection(t *testing.T) {
	if ParseDirection("DOWN") != DirectionDown {
		t.Fatalf("ParseDirection(DOWN): want down")
	}
	if ParseDirection("sideways") != DirectionUp {
		t.Fatalf("ParseDirection(sideways): want up")
	}
}

func TestTrendColor(t *testing.T) {
	cases := []struct {
		history []float64
		dir     Direction
		want    Trend
	}{
		{[]float64{1, 2}, DirectionUp, TrendPositive},
		{[]float64{2, 1}, DirectionUp, TrendNegative},
		{[]float64{1, 2}, DirectionDown, TrendNegative},
		{[]float64{9, 2, 1}, DirectionDown, TrendPositive},
		{[]float64{3, 3}, DirectionUp, TrendNeutral},
		{[]float64{3}, DirectionUp, TrendNeutral},
		{nil, DirectionDown, TrendNeutral},
	}
	for _, tc := range cases {
		if got := TrendColor(tc.history, tc.dir); got != tc.want {
			t.Fatalf("TrendColor(%v, %s): want=%q got=%q", tc.history, tc.dir, tc.want, got)
		}
	}
}
