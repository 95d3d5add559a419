package extract

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/normalize"
)

// Orchestrator sequences the extraction strategies for one fetch call:
// URL normalization, the synchronous HTTP fast path, then a parallel race
// of the heavier extractors under the overall timeout, and finally
// max-score selection over everything that completed.
//
// Each call is self-contained: no cache, no connection pool, no shared
// browser. Concurrent Fetch calls share nothing but the extractor values,
// which hold no per-call state.
type Orchestrator struct {
	cfg config.ExtractConfig

	httpEx     Extractor
	browserEx  Extractor
	documentEx Extractor
	ocrEx      Extractor
}

// NewOrchestrator wires the real extractors.
func NewOrchestrator(cfg *config.Config) *Orchestrator {
	cl := cleaner.New()
	return &Orchestrator{
		cfg:        cfg.Extract,
		httpEx:     NewHTTPExtractor(cl, cfg.Extract.GitHubToken),
		browserEx:  NewBrowserExtractor(cfg.Browser, cfg.Extract.BrowserSettle, cl),
		documentEx: NewDocumentExtractor(),
		ocrEx:      NewOCRExtractor(cfg.Browser, cfg.Extract.OCRSettle),
	}
}

// FetchContent is the public operation consumed by the serving layer:
// best-scoring normalized markdown for the URL, or the raw underlying
// payload when opts.Raw is set.
func (o *Orchestrator) FetchContent(ctx context.Context, rawURL string, opts models.FetchOptions) (string, error) {
	result, err := o.Fetch(ctx, rawURL, opts)
	if err != nil {
		return "", err
	}
	if opts.Raw {
		return result.RawPayload(), nil
	}
	return result.Content, nil
}

// Fetch runs the full extraction state machine and returns the winning
// result. Exactly one result is returned per call; if no launched
// extractor completes with a result, the call fails.
func (o *Orchestrator) Fetch(ctx context.Context, rawURL string, opts models.FetchOptions) (*models.ExtractionResult, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = o.cfg.DefaultTimeout
	}

	target := normalize.URL(rawURL)

	// Fast path: a good-enough HTTP result skips the expensive race
	// entirely. A failed attempt is recoverable by design; a low-scoring
	// result stays in play as a race candidate.
	fast, fastErr := o.httpEx.Extract(ctx, &Request{
		URL:       target,
		UserAgent: opts.UserAgent,
		Timeout:   o.cfg.HTTPTimeout,
	})
	if fastErr == nil && fast.Score > o.cfg.FastPathThreshold {
		slog.Debug("fast path accepted", "url", target, "score", fast.Score)
		return fast, nil
	}
	if fastErr != nil {
		slog.Debug("fast path failed", "url", target, "error", fastErr)
	}

	return o.race(ctx, target, opts, fast)
}

// race launches the heavier extractors concurrently and picks the best
// completed result. fast is the below-threshold fast-path result, or nil
// when the fast path failed outright.
func (o *Orchestrator) race(ctx context.Context, target string, opts models.FetchOptions, fast *models.ExtractionResult) (*models.ExtractionResult, error) {
	type attempt struct {
		ex     Extractor
		budget time.Duration
	}

	attempts := []attempt{
		{o.browserEx, min(opts.Timeout, o.cfg.BrowserCap)},
	}
	if IsDocumentURL(target) {
		attempts = append(attempts, attempt{o.documentEx, o.cfg.DocumentTimeout})
	}
	// Last resort: OCR joins the race only when the fast path produced
	// nothing at all.
	if fast == nil {
		attempts = append(attempts, attempt{o.ocrEx, min(opts.Timeout, o.cfg.OCRCap)})
	}

	raceCtx, raceCancel := context.WithTimeout(ctx, opts.Timeout)
	defer raceCancel()

	results := make(chan *models.ExtractionResult, len(attempts))
	var wg sync.WaitGroup
	for _, a := range attempts {
		wg.Add(1)
		go func(a attempt) {
			defer wg.Done()
			res, err := a.ex.Extract(raceCtx, &Request{
				URL:       target,
				UserAgent: opts.UserAgent,
				Timeout:   a.budget,
			})
			if err != nil {
				// Per-extractor failures never surface to the caller
				// directly; the multi-method design makes them recoverable.
				slog.Warn("extractor failed", "extractor", a.ex.Name(), "url", target, "error", err)
				results <- nil
				return
			}
			results <- res
		}(a)
	}

	settled := make(chan struct{})
	go func() {
		wg.Wait()
		close(settled)
	}()

	// Hard deadline: timing out is a distinct failure, never a partial
	// answer. In-flight extractors tear their browsers down on their own
	// cancelled contexts; nothing here waits for that.
	select {
	case <-settled:
	case <-raceCtx.Done():
		return nil, models.NewExtractError(models.ErrCodeTimeout,
			"extraction timed out before all methods settled", raceCtx.Err())
	}

	candidates := make([]*models.ExtractionResult, 0, len(attempts)+1)
	if fast != nil {
		candidates = append(candidates, fast)
	}
	for range attempts {
		if res := <-results; res != nil {
			candidates = append(candidates, res)
		}
	}

	// Maximum score wins; ties go to whichever was collected first.
	var best *models.ExtractionResult
	for _, c := range candidates {
		if best == nil || c.Score > best.Score {
			best = c
		}
	}
	if best == nil {
		return nil, models.NewExtractError(models.ErrCodeAllFailed, "all extraction methods failed", nil)
	}
	slog.Info("extraction selected", "url", target, "method", best.Method, "score", best.Score, "candidates", len(candidates))
	return best, nil
}

// validateURL rejects malformed input synchronously, before any extraction
// attempt.
func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return models.NewExtractError(models.ErrCodeInvalidInput, "url is required", nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return models.NewExtractError(models.ErrCodeInvalidInput, "url is not parseable", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return models.NewExtractError(models.ErrCodeInvalidInput, "url scheme must be http or https", nil)
	}
	if u.Host == "" {
		return models.NewExtractError(models.ErrCodeInvalidInput, "url host is required", nil)
	}
	return nil
}
