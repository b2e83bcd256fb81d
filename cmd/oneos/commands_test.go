package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"one-os/internal/scoring"
)

func TestScoreCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"score",
		"--revenue", "15000", "--active-users", "1250",
		"--conversion-rate", "3.5", "--churn-rate", "2.1", "--satisfaction", "85",
	})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var hs scoring.HealthScore
	if err := json.Unmarshal(out.Bytes(), &hs); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if hs.Score != 75 || hs.Status != scoring.StatusGood {
		t.Fatalf("score: want=75/good got=%d/%s", hs.Score, hs.Status)
	}
}

func TestPrintScorePlain(t *testing.T) {
	var out bytes.Buffer
	if err := printScore(&out, scoring.HealthScore{Score: 49, Status: scoring.StatusCritical}, true); err != nil {
		t.Fatalf("printScore: %v", err)
	}
	if got := out.String(); got != "49 critical\n" {
		t.Fatalf("plain: got=%q", got)
	}
}

func TestRunLoadTest(t *testing.T) {
	var scored int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "t0k"})
	})
	mux.HandleFunc("/api/scoring/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer t0k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if atomic.AddInt64(&scored, 1)%5 == 0 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res, err := runLoadTest(context.Background(), loadTestOptions{
		BaseURL:  srv.URL + "/",
		Email:    "owner@agency.test",
		Password: "password1",
		Requests: 20,
		Workers:  4,
	})
	if err != nil {
		t.Fatalf("runLoadTest: %v", err)
	}
	if res.Success != 16 || res.Failed != 4 {
		t.Fatalf("result: want=16/4 got=%d/%d", res.Success, res.Failed)
	}

	var out bytes.Buffer
	printLoadTest(&out, res)
	if !strings.Contains(out.String(), "Success Rate: 80.00%") {
		t.Fatalf("report: got=%s", out.String())
	}
}

func TestRunLoadTestNeedsCredentials(t *testing.T) {
	if _, err := runLoadTest(context.Background(), loadTestOptions{BaseURL: "http://127.0.0.1:1", Requests: 1, Workers: 1}); err == nil {
		t.Fatalf("want error without token or credentials")
	}
}
