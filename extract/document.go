package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"unicode"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"

	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/score"
)

// documentExtensions are the structured formats the document extractor
// understands. Legacy binary formats (.doc, .ppt) get best-effort byte
// decoding only.
var documentExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".ppt":  {},
	".pptx": {},
}

// IsDocumentURL reports whether the URL path suggests a structured document
// format, which gates whether the document extractor joins the race.
func IsDocumentURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	_, ok := documentExtensions[strings.ToLower(path.Ext(u.Path))]
	return ok
}

// DocumentExtractor downloads a binary document and extracts its text.
type DocumentExtractor struct {
	client *http.Client
	params score.Params
}

// NewDocumentExtractor creates the document extractor.
func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{
		client: &http.Client{},
		params: score.DefaultParams,
	}
}

func (e *DocumentExtractor) Name() string { return string(models.MethodDocument) }

func (e *DocumentExtractor) Extract(ctx context.Context, req *Request) (*models.ExtractionResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	data, err := e.download(ctx, req)
	if err != nil {
		return nil, err
	}

	u, _ := url.Parse(req.URL)
	ext := strings.ToLower(path.Ext(u.Path))

	var text string
	switch ext {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, _, err = docconv.ConvertDocx(bytes.NewReader(data))
	case ".pptx":
		text, _, err = docconv.ConvertPptx(bytes.NewReader(data))
	case ".doc", ".ppt":
		// Legacy binary formats: best-effort byte decoding, no structural
		// parsing. Lower fidelity is accepted.
		text = decodeLegacyBytes(data)
	default:
		return nil, models.NewExtractError(models.ErrCodeDocumentParse,
			fmt.Sprintf("unsupported document extension %q", ext), nil)
	}
	if err != nil {
		// A corrupt document fails this extractor hard; the orchestrator's
		// per-extractor guard keeps it from being fatal to the whole call.
		return nil, models.NewExtractError(models.ErrCodeDocumentParse,
			fmt.Sprintf("parse %s document", ext), err)
	}

	return &models.ExtractionResult{
		Content: text,
		Method:  models.MethodDocument,
		Score:   e.params.Score(text, models.MethodDocument),
		Metadata: map[string]any{
			models.MetaByteSize: len(data),
		},
	}, nil
}

func (e *DocumentExtractor) download(ctx context.Context, req *Request) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeInvalidInput, "build request", err)
	}
	ua := req.UserAgent
	if ua == "" {
		ua = chromeUA
	}
	httpReq.Header.Set("User-Agent", ua)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeNavigation, "document download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewExtractError(models.ErrCodeNavigation,
			fmt.Sprintf("http status %d for %s", resp.StatusCode, req.URL), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeNavigation, "read document body", err)
	}
	return data, nil
}

// extractPDF streams the PDF's plain text: the parser walks pages lazily
// and the accumulated reader is flushed into one string. Parse errors fail
// the extraction with the parser's reported error. The parser panics on
// some malformed inputs; those are converted to errors here.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// decodeLegacyBytes salvages readable text from a legacy binary office
// document by keeping printable UTF-8 runs and collapsing everything else
// to whitespace.
func decodeLegacyBytes(data []byte) string {
	cleaned := strings.ToValidUTF8(string(data), " ")
	var b strings.Builder
	b.Grow(len(cleaned))
	lastSpace := false
	for _, r := range cleaned {
		if unicode.IsPrint(r) && !unicode.IsControl(r) {
			b.WriteRune(r)
			lastSpace = r == ' '
			continue
		}
		if r == '\n' || r == '\t' || !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
