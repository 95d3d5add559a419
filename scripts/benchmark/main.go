// Benchmark harness: hits a running harvest server with a small URL matrix
// and reports per-URL latency, winning method, and score.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"
)

var (
	apiURL = flag.String("api-url", "http://localhost:8080", "Harvest API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per URL for averaging")
	output = flag.String("output", "", "Optional path to write results as JSON")
)

// Test URLs covering the extraction strategies.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"SPA", "https://github.com/go-rod/rod"},
	{"Repo file", "https://github.com/golang/go/blob/master/README.md"},
	{"Repo tree", "https://github.com/golang/go/tree/master/src/net"},
	{"PDF", "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf"},
}

type fetchRequest struct {
	URL       string `json:"url"`
	TimeoutMs int    `json:"timeout_ms,omitempty"`
}

type fetchResponse struct {
	Success bool    `json:"success"`
	Content string  `json:"content"`
	Method  string  `json:"method"`
	Score   float64 `json:"score"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type row struct {
	Label   string  `json:"label"`
	Method  string  `json:"method"`
	Score   float64 `json:"score"`
	AvgMs   int64   `json:"avg_ms"`
	Failure string  `json:"error,omitempty"`
}

func main() {
	flag.Parse()

	client := &http.Client{Timeout: 2 * time.Minute}
	rows := make([]row, 0, len(testURLs))

	for _, tu := range testURLs {
		fmt.Fprintf(os.Stderr, "benchmarking %s (%s)...\n", tu.Label, tu.URL)

		var total time.Duration
		var last fetchResponse
		var failure string

		for i := 0; i < *runs; i++ {
			start := time.Now()
			resp, err := fetchOnce(client, tu.URL)
			total += time.Since(start)
			if err != nil {
				failure = err.Error()
				break
			}
			last = resp
		}

		r := row{Label: tu.Label, Failure: failure}
		if failure == "" {
			r.Method = last.Method
			r.Score = last.Score
			r.AvgMs = (total / time.Duration(*runs)).Milliseconds()
		}
		rows = append(rows, r)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tMETHOD\tSCORE\tAVG_MS\tERROR")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\t%s\n", r.Label, r.Method, r.Score, r.AvgMs, r.Failure)
	}
	w.Flush()

	if *output != "" {
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal results: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*output, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *output, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "results written to %s\n", *output)
	}
}

func fetchOnce(client *http.Client, url string) (fetchResponse, error) {
	var out fetchResponse

	body, err := json.Marshal(fetchRequest{URL: url})
	if err != nil {
		return out, err
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/fetch", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("X-API-Key", *apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, err
	}
	if !out.Success {
		if out.Error != nil {
			return out, fmt.Errorf("%s: %s", out.Error.Code, out.Error.Message)
		}
		return out, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return out, nil
}
