package extract

import (
	"bytes"
	"context"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod/lib/proto"
	"github.com/otiai10/gosseract/v2"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/score"
)

// OCR viewport and preprocessing bounds. The viewport is larger than a
// default desktop window so a single screenshot covers more of the page;
// images wider than maxOCRWidth are downscaled (never upscaled) before
// recognition.
const (
	ocrViewportWidth  = 1920
	ocrViewportHeight = 1080
	maxOCRWidth       = 1920
	ocrContrastBoost  = 20
)

// OCRExtractor renders the page, captures a full-page screenshot, and runs
// optical character recognition over the preprocessed image. It is the
// lowest-trust strategy: the scorer penalizes its method tag, and the
// orchestrator only launches it as a last resort.
//
// Resource discipline matches BrowserExtractor: one browser per call,
// killed on every exit path.
type OCRExtractor struct {
	cfg    config.BrowserConfig
	settle time.Duration
	params score.Params
}

// NewOCRExtractor creates the OCR extractor. Its settle delay is longer
// than the browser extractor's because screenshot fidelity is more
// sensitive to incomplete rendering.
func NewOCRExtractor(cfg config.BrowserConfig, settle time.Duration) *OCRExtractor {
	return &OCRExtractor{cfg: cfg, settle: settle, params: score.DefaultParams}
}

func (e *OCRExtractor) Name() string { return string(models.MethodOCR) }

func (e *OCRExtractor) Extract(ctx context.Context, req *Request) (*models.ExtractionResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	screenshot, err := e.capture(ctx, req)
	if err != nil {
		return nil, err
	}

	processed, err := preprocessScreenshot(screenshot)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeOCR, "screenshot preprocessing failed", err)
	}

	text, err := recognizeText(processed)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeOCR, "text recognition failed", err)
	}

	return &models.ExtractionResult{
		Content: text,
		Method:  models.MethodOCR,
		Score:   e.params.Score(text, models.MethodOCR),
		Metadata: map[string]any{
			models.MetaRawPayload: screenshot,
		},
	}, nil
}

// capture owns the browser lifecycle for one screenshot.
func (e *OCRExtractor) capture(ctx context.Context, req *Request) ([]byte, error) {
	browser, teardown, err := launchBrowser(e.cfg)
	if err != nil {
		return nil, err
	}
	defer teardown()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to create page", err)
	}

	p := page.Context(ctx)

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             ocrViewportWidth,
		Height:            ocrViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, categorizeError(err, "failed to set viewport")
	}

	ua := req.UserAgent
	if ua == "" {
		ua = e.cfg.UserAgent
	}
	if ua != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			return nil, categorizeError(err, "failed to override user agent")
		}
	}

	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	if _, err := p.Element("body"); err != nil {
		return nil, categorizeError(err, "page body never appeared")
	}
	if err := settleWait(ctx, e.settle); err != nil {
		return nil, err
	}

	screenshot, err := p.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, categorizeError(err, "full-page screenshot failed")
	}
	return screenshot, nil
}

// preprocessScreenshot prepares the screenshot for recognition: downscale
// to maxOCRWidth (preserving aspect, never upscaling), convert to
// greyscale, and normalize contrast.
func preprocessScreenshot(screenshot []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return nil, err
	}

	if img.Bounds().Dx() > maxOCRWidth {
		img = imaging.Resize(img, maxOCRWidth, 0, imaging.Lanczos)
	}
	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, ocrContrastBoost)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// recognizeText runs Tesseract over the processed image: English model,
// automatic page segmentation for full-page text blocks. The OCR engine
// itself is left at the library default; engine mode is an init-only
// Tesseract parameter and cannot be changed through post-init variables.
func recognizeText(processed []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage("eng"); err != nil {
		return "", err
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(processed); err != nil {
		return "", err
	}
	return client.Text()
}
