package extract

import (
	"context"
	"errors"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/score"
)

// BrowserExtractor renders JavaScript-heavy pages in a real headless
// browser, then converts the rendered DOM to Markdown.
//
// Every Extract call launches its own browser instance and kills it before
// returning, on every exit path. Instances are never pooled or shared: a
// leaked Chrome process degrades host capacity, so per-call teardown is the
// most important resource invariant in this package.
type BrowserExtractor struct {
	cfg     config.BrowserConfig
	settle  time.Duration
	cleaner *cleaner.Cleaner
	params  score.Params
}

// NewBrowserExtractor creates the browser extractor. settle is the fixed
// post-navigation delay that lets deferred rendering finish before capture.
func NewBrowserExtractor(cfg config.BrowserConfig, settle time.Duration, cl *cleaner.Cleaner) *BrowserExtractor {
	return &BrowserExtractor{cfg: cfg, settle: settle, cleaner: cl, params: score.DefaultParams}
}

func (e *BrowserExtractor) Name() string { return string(models.MethodBrowser) }

func (e *BrowserExtractor) Extract(ctx context.Context, req *Request) (*models.ExtractionResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	browser, teardown, err := launchBrowser(e.cfg)
	if err != nil {
		return nil, err
	}
	defer teardown()

	// stealth.Page injects the fingerprint-masking JS before any
	// navigation on the page.
	page, err := stealth.Page(browser)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to create page", err)
	}

	p := page.Context(ctx)

	ua := req.UserAgent
	if ua == "" {
		ua = e.cfg.UserAgent
	}
	if ua != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			return nil, categorizeError(err, "failed to override user agent")
		}
	}

	// Headless defaults leak through Accept-Language; pin it to a value a
	// real Chrome would send.
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{"Accept-Language": "en-US,en;q=0.9"}),
	}.Call(p)

	// The rendered DOM is what we capture, so images, fonts, and media
	// only cost render time. Blocking them before navigation speeds the
	// load; the router is stopped with the rest of the teardown.
	router := blockHeavyResources(p)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}

	// Wait for the document body to exist, then give deferred JS a fixed
	// settle window.
	if _, err := p.Element("body"); err != nil {
		return nil, categorizeError(err, "page body never appeared")
	}
	if err := settleWait(ctx, e.settle); err != nil {
		return nil, err
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to capture rendered page")
	}

	markdown, title, err := e.cleaner.Markdown(rawHTML, req.URL)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeInternal, "markdown conversion failed", err)
	}

	return &models.ExtractionResult{
		Content: markdown,
		Method:  models.MethodBrowser,
		Score:   e.params.Score(markdown, models.MethodBrowser),
		Metadata: map[string]any{
			models.MetaRawPayload: rawHTML,
			models.MetaTitle:      title,
		},
	}, nil
}

// launchBrowser starts an isolated headless browser configured to minimize
// automation fingerprinting. The returned teardown must be called on every
// exit path; it closes the CDP connection and kills the browser process.
func launchBrowser(cfg config.BrowserConfig) (*rod.Browser, func(), error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	teardown := func() {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
	}
	return browser, teardown, nil
}

// blockedRenderResources never affect the captured DOM text.
var blockedRenderResources = map[proto.NetworkResourceType]struct{}{
	proto.NetworkResourceTypeImage:      {},
	proto.NetworkResourceTypeFont:       {},
	proto.NetworkResourceTypeMedia:      {},
	proto.NetworkResourceTypeStylesheet: {},
}

// blockHeavyResources installs a request interceptor that fails requests
// for resource types irrelevant to text capture. Must run before Navigate.
func blockHeavyResources(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if _, blocked := blockedRenderResources[h.Request.Type()]; blocked {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	// router.Run blocks until router.Stop.
	go router.Run()
	return router
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// settleWait sleeps for the settle delay unless the context expires first.
func settleWait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return categorizeError(ctx.Err(), "settle wait interrupted")
	case <-time.After(d):
		return nil
	}
}

// categorizeError wraps raw errors into typed ExtractErrors so callers can
// branch on the code instead of message text.
func categorizeError(err error, msg string) *models.ExtractError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewExtractError(models.ErrCodeTimeout, msg, err)
	default:
		return models.NewExtractError(models.ErrCodeNavigation, msg, err)
	}
}
