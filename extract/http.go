package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"

	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/normalize"
	"github.com/use-agent/harvest/score"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBody caps response reads to prevent unbounded memory use.
const maxBody = 10 << 20

// Fixed scores for structured contents-API payloads: a decoded file is
// higher-confidence than a directory listing, and both beat heuristic
// scoring since the API response shape is unambiguous.
const (
	listingScore = 80
	fileScore    = 90
)

// newChromeH1Spec builds a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only. ApplyPreset mutates the spec in place (GREASE substitution,
// generated key-share public keys written into the extension structs), so a
// spec must be built fresh for every connection and never shared.
func newChromeH1Spec() (*tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return nil, err
	}
	// Replace h2 with http/1.1 in the ALPN extension so the server never
	// negotiates HTTP/2, which Go's http.Transport cannot frame over a
	// utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	return &spec, nil
}

// HTTPExtractor performs a single unrendered GET with a realistic browser
// identity (headers plus Chrome TLS fingerprint). It is the fast path: the
// orchestrator runs it alone before committing to the parallel race.
type HTTPExtractor struct {
	client      *http.Client
	cleaner     *cleaner.Cleaner
	params      score.Params
	githubToken string
}

// NewHTTPExtractor creates the fast-path extractor. githubToken, when
// non-empty, is attached as a bearer header on contents-API requests only.
func NewHTTPExtractor(cl *cleaner.Cleaner, githubToken string) *HTTPExtractor {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			spec, err := newChromeH1Spec()
			if err != nil {
				return nil, fmt.Errorf("http extractor: build tls spec: %w", err)
			}
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http extractor: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &HTTPExtractor{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cleaner:     cl,
		params:      score.DefaultParams,
		githubToken: githubToken,
	}
}

func (e *HTTPExtractor) Name() string { return string(models.MethodHTTP) }

func (e *HTTPExtractor) Extract(ctx context.Context, req *Request) (*models.ExtractionResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	isAPI := normalize.IsContentsAPI(req.URL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeInvalidInput, "build request", err)
	}

	ua := req.UserAgent
	if ua == "" {
		ua = chromeUA
	}
	httpReq.Header.Set("User-Agent", ua)
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")
	if isAPI {
		httpReq.Header.Set("Accept", "application/vnd.github.v3+json")
		if e.githubToken != "" {
			httpReq.Header.Set("Authorization", "Bearer "+e.githubToken)
		}
	} else {
		httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeNavigation, "http request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeNavigation, "read body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewExtractError(models.ErrCodeNavigation,
			fmt.Sprintf("http status %d for %s", resp.StatusCode, req.URL), nil)
	}

	if isAPI {
		return e.extractContentsAPI(body)
	}

	markdown, title, err := e.cleaner.Markdown(string(body), req.URL)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeInternal, "markdown conversion failed", err)
	}

	return &models.ExtractionResult{
		Content: markdown,
		Method:  models.MethodHTTP,
		Score:   e.params.Score(markdown, models.MethodHTTP),
		Metadata: map[string]any{
			models.MetaRawPayload: string(body),
			models.MetaFinalURL:   resp.Request.URL.String(),
			models.MetaTitle:      title,
		},
	}, nil
}

// contentsEntry is one element of a GitHub contents-API directory listing.
type contentsEntry struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	HTMLURL string `json:"html_url"`
}

// contentsFile is a GitHub contents-API single-file payload.
type contentsFile struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// extractContentsAPI branches on the response shape: a JSON array is a
// directory listing rendered as a bullet list, a JSON object is a single
// file whose base64 content is decoded to UTF-8 text.
func (e *HTTPExtractor) extractContentsAPI(body []byte) (*models.ExtractionResult, error) {
	trimmed := strings.TrimSpace(string(body))

	if strings.HasPrefix(trimmed, "[") {
		var entries []contentsEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, models.NewExtractError(models.ErrCodeNavigation, "decode contents listing", err)
		}
		var b strings.Builder
		for _, entry := range entries {
			fmt.Fprintf(&b, "- [%s](%s) (%s)\n", entry.Name, entry.HTMLURL, entry.Type)
		}
		return &models.ExtractionResult{
			Content: b.String(),
			Method:  models.MethodHTTPAPI,
			Score:   listingScore,
			Metadata: map[string]any{
				models.MetaRawPayload: string(body),
			},
		}, nil
	}

	var file contentsFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, models.NewExtractError(models.ErrCodeNavigation, "decode contents file", err)
	}
	if file.Encoding != "base64" {
		return nil, models.NewExtractError(models.ErrCodeNavigation,
			fmt.Sprintf("unexpected contents encoding %q", file.Encoding), nil)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeNavigation, "decode base64 file content", err)
	}

	return &models.ExtractionResult{
		Content: string(decoded),
		Method:  models.MethodHTTPAPI,
		Score:   fileScore,
		Metadata: map[string]any{
			models.MetaRawPayload: string(body),
			models.MetaTitle:      file.Name,
		},
	}, nil
}
