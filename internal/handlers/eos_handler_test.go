package handlers

import (
	"net/http"
	"testing"
	"time"

	"one-os/internal/models"
	"one-os/internal/scoring"
)

func TestScorecard(t *testing.T) {
	env := newTestEnv(t)

	target := 10.0
	w := env.do(t, http.MethodPost, "/api/kpis", KPIRequest{Name: "Leads", Target: &target, Direction: "UP", Position: 1})
	expectStatus(t, w, http.StatusCreated)
	var leads models.KPI
	decode(t, w, &leads)
	if leads.Direction != string(scoring.DirectionUp) {
		t.Fatalf("direction: want=up got=%s", leads.Direction)
	}

	w = env.do(t, http.MethodPost, "/api/kpis", KPIRequest{Name: "Unscored", Direction: "down", Position: 2})
	expectStatus(t, w, http.StatusCreated)

	current := scoring.WeekStart(time.Now())
	previous := current.AddDate(0, 0, -7)
	valuesPath := "/api/kpis/" + leads.ID + "/values"

	for _, v := range []KPIValueRequest{
		{WeekStartDate: previous.Format(dateLayout), Value: 12},
		{WeekStartDate: current.Format(dateLayout), Value: 8},
		{WeekStartDate: current.AddDate(0, 0, 3).Format(dateLayout), Value: 11},
	} {
		w = env.do(t, http.MethodPut, valuesPath, v)
		expectStatus(t, w, http.StatusOK)
	}

	var stored int64
	env.db.Model(&models.KPIWeeklyValue{}).Where("kpi_id = ?", leads.ID).Count(&stored)
	if stored != 2 {
		t.Fatalf("stored values: want=2 got=%d", stored)
	}

	w = env.do(t, http.MethodGet, "/api/scorecard?weeks=4", nil)
	expectStatus(t, w, http.StatusOK)
	var card ScorecardResponse
	decode(t, w, &card)
	if card.Weeks != 4 || len(card.Rows) != 2 {
		t.Fatalf("scorecard: got weeks=%d rows=%d", card.Weeks, len(card.Rows))
	}

	row := card.Rows[0]
	if len(row.Weeks) != 4 || row.Weeks[3].WeekStartDate != current.Format(dateLayout) {
		t.Fatalf("weeks: got=%+v", row.Weeks)
	}
	if row.Current == nil || *row.Current != 11 {
		t.Fatalf("current: got=%v", row.Current)
	}
	if row.OnTrack == nil || !*row.OnTrack {
		t.Fatalf("on_track: want=true got=%v", row.OnTrack)
	}
	if row.Trend != scoring.TrendNegative {
		t.Fatalf("trend: want=negative got=%s", row.Trend)
	}

	unscored := card.Rows[1]
	if unscored.OnTrack != nil || unscored.Trend != scoring.TrendNeutral {
		t.Fatalf("unscored: got on_track=%v trend=%s", unscored.OnTrack, unscored.Trend)
	}

	// A new value invalidates the cached scorecard.
	w = env.do(t, http.MethodPut, valuesPath, KPIValueRequest{WeekStartDate: current.Format(dateLayout), Value: 5})
	expectStatus(t, w, http.StatusOK)
	w = env.do(t, http.MethodGet, "/api/scorecard?weeks=4", nil)
	decode(t, w, &card)
	if *card.Rows[0].Current != 5 || *card.Rows[0].OnTrack {
		t.Fatalf("after update: current=%v on_track=%v", *card.Rows[0].Current, *card.Rows[0].OnTrack)
	}

	w = env.do(t, http.MethodPut, "/api/kpis/missing/values", KPIValueRequest{Value: 1})
	expectStatus(t, w, http.StatusNotFound)
}

func TestRocks(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/rocks", RockRequest{Title: "Hire editor", Quarter: "Q3 2025"})
	expectStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodPost, "/api/rocks", RockRequest{Title: "Hire editor", Owner: "Sam", Quarter: "2025-Q3", DueDate: "2025-09-30"})
	expectStatus(t, w, http.StatusCreated)
	var rock models.Rock
	decode(t, w, &rock)
	if rock.Status != models.RockOnTrack {
		t.Fatalf("status: want=on_track got=%s", rock.Status)
	}

	w = env.do(t, http.MethodPut, "/api/rocks/"+rock.ID+"/status", RockStatusRequest{Status: "late"})
	expectStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodPut, "/api/rocks/"+rock.ID+"/status", RockStatusRequest{Status: models.RockDone})
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/rocks?quarter=2025-Q3", nil)
	var rocks []models.Rock
	decode(t, w, &rocks)
	if len(rocks) != 1 || rocks[0].Status != models.RockDone {
		t.Fatalf("rocks: got=%+v", rocks)
	}
}

func TestIssues(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/issues", IssueRequest{Title: "Late renders", Priority: 1})
	expectStatus(t, w, http.StatusCreated)
	var issue models.Issue
	decode(t, w, &issue)

	w = env.do(t, http.MethodPost, "/api/issues", IssueRequest{Title: "Too urgent", Priority: 7})
	expectStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodPost, "/api/issues/"+issue.ID+"/solve", nil)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &issue)
	if issue.Status != models.IssueSolved || issue.SolvedAt == nil {
		t.Fatalf("solved: got=%+v", issue)
	}
	first := *issue.SolvedAt

	w = env.do(t, http.MethodPost, "/api/issues/"+issue.ID+"/solve", nil)
	decode(t, w, &issue)
	if !issue.SolvedAt.Equal(first) {
		t.Fatalf("solved_at changed on second solve")
	}

	w = env.do(t, http.MethodGet, "/api/issues", nil)
	var open []models.Issue
	decode(t, w, &open)
	if len(open) != 0 {
		t.Fatalf("open issues: want=0 got=%d", len(open))
	}
}
