package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"one-os/internal/scoring"

	"github.com/spf13/cobra"
)

type loadTestOptions struct {
	BaseURL  string
	Token    string
	Email    string
	Password string
	Requests int
	Workers  int
	Pause    time.Duration
}

type loadTestResult struct {
	Requests int
	Success  int64
	Failed   int64
	Duration time.Duration
}

func (r loadTestResult) RequestsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Requests) / r.Duration.Seconds()
}

var loadtestOpts loadTestOptions

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Hammer the scoring endpoint of a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runLoadTest(cmd.Context(), loadtestOpts)
		if err != nil {
			return err
		}
		printLoadTest(cmd.OutOrStdout(), res)
		return nil
	},
}

func init() {
	f := loadtestCmd.Flags()
	f.StringVar(&loadtestOpts.BaseURL, "url", "http://localhost:8080", "server base URL")
	f.StringVar(&loadtestOpts.Token, "token", "", "bearer token (skips login)")
	f.StringVar(&loadtestOpts.Email, "email", "", "login email when no token is given")
	f.StringVar(&loadtestOpts.Password, "password", "", "login password when no token is given")
	f.IntVar(&loadtestOpts.Requests, "requests", 1000, "total requests")
	f.IntVar(&loadtestOpts.Workers, "workers", 50, "concurrent workers")
	f.DurationVar(&loadtestOpts.Pause, "pause", 10*time.Millisecond, "pause between requests per worker")
}

func runLoadTest(ctx context.Context, opts loadTestOptions) (loadTestResult, error) {
	if opts.Requests <= 0 || opts.Workers <= 0 {
		return loadTestResult{}, fmt.Errorf("requests and workers must be positive")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	client := &http.Client{Timeout: 10 * time.Second}

	token := opts.Token
	if token == "" {
		var err error
		if token, err = login(ctx, client, baseURL, opts.Email, opts.Password); err != nil {
			return loadTestResult{}, err
		}
	}

	var success, failed int64
	var wg sync.WaitGroup
	jobs := make(chan scoring.GrowthInput, opts.Requests)

	start := time.Now()
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for in := range jobs {
				if scoreOnce(ctx, client, baseURL, token, in) {
					atomic.AddInt64(&success, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
				if opts.Pause > 0 {
					time.Sleep(opts.Pause)
				}
			}
		}()
	}

	for j := 0; j < opts.Requests; j++ {
		jobs <- scoring.GrowthInput{
			Revenue:              float64(j%20) * 1000,
			ActiveUsers:          float64(j % 1500),
			ConversionRate:       float64(j%10) / 2,
			ChurnRate:            float64(j % 8),
			CustomerSatisfaction: float64(j % 101),
		}
	}
	close(jobs)
	wg.Wait()

	return loadTestResult{
		Requests: opts.Requests,
		Success:  success,
		Failed:   failed,
		Duration: time.Since(start),
	}, nil
}

func login(ctx context.Context, client *http.Client, baseURL, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", fmt.Errorf("either --token or --email and --password are required")
	}
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login: status %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return out.Token, nil
}

func scoreOnce(ctx context.Context, client *http.Client, baseURL, token string, in scoring.GrowthInput) bool {
	body, _ := json.Marshal(in)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/scoring/health", bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func printLoadTest(out io.Writer, r loadTestResult) {
	fmt.Fprintln(out, "Load Test Results:")
	fmt.Fprintln(out, "==================")
	fmt.Fprintf(out, "Total Requests: %d\n", r.Requests)
	fmt.Fprintf(out, "Successful: %d\n", r.Success)
	fmt.Fprintf(out, "Failed: %d\n", r.Failed)
	fmt.Fprintf(out, "Duration: %v\n", r.Duration)
	fmt.Fprintf(out, "Requests/sec: %.2f\n", r.RequestsPerSecond())
	fmt.Fprintf(out, "Success Rate: %.2f%%\n", float64(r.Success)/float64(r.Requests)*100)
}
