package extract

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tls "github.com/refraction-networking/utls"

	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/models"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Brewing</title></head><body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Cold Brew Basics</h1>
<p>Coarsely ground beans steeped in cold water for twelve to eighteen hours
produce a smooth concentrate with much lower acidity than hot methods.</p>
<p>Dilute the concentrate one to one with water or milk before serving, and
keep the rest refrigerated for up to two weeks without losing flavor.</p>
<p>See <a href="/grinders">our grinder guide</a> for burr settings.</p>
</article>
<footer>footer text</footer>
</body></html>`

func newTestHTTPExtractor() *HTTPExtractor {
	return NewHTTPExtractor(cleaner.New(), "")
}

func TestHTTPExtract_HTMLToMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	res, err := newTestHTTPExtractor().Extract(t.Context(), &Request{URL: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if res.Method != models.MethodHTTP {
		t.Errorf("method = %s, want http", res.Method)
	}
	if !strings.Contains(res.Content, "# Cold Brew Basics") {
		t.Errorf("markdown lacks ATX heading:\n%s", res.Content)
	}
	if strings.Contains(res.Content, "<article>") {
		t.Errorf("markup leaked into markdown:\n%s", res.Content)
	}
	if res.Score <= 0 {
		t.Errorf("score = %v, want > 0 for substantial content", res.Score)
	}
	if raw := res.RawPayload(); !strings.Contains(raw, "<article>") {
		t.Error("metadata must carry the original HTML for raw requests")
	}
}

func TestHTTPExtract_ErrorStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestHTTPExtractor().Extract(t.Context(), &Request{URL: srv.URL})
	var ee *models.ExtractError
	if err == nil || !errors.As(err, &ee) || ee.Code != models.ErrCodeNavigation {
		t.Errorf("err = %v, want code %s", err, models.ErrCodeNavigation)
	}
}

func TestHTTPExtract_RedirectBudget(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Endless redirect chain; the client must give up after 5 hops.
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	_, err := newTestHTTPExtractor().Extract(t.Context(), &Request{URL: srv.URL, Timeout: 5 * time.Second})
	if err == nil {
		t.Fatal("expected redirect budget to fail the fetch")
	}
}

func specExtension[T tls.TLSExtension](t *testing.T, spec *tls.ClientHelloSpec) T {
	t.Helper()
	for _, ext := range spec.Extensions {
		if e, ok := ext.(T); ok {
			return e
		}
	}
	t.Fatalf("spec has no %T extension", *new(T))
	var zero T
	return zero
}

func TestChromeH1Spec_FreshPerConnection(t *testing.T) {
	first, err := newChromeH1Spec()
	if err != nil {
		t.Fatalf("newChromeH1Spec: %v", err)
	}
	second, err := newChromeH1Spec()
	if err != nil {
		t.Fatalf("newChromeH1Spec: %v", err)
	}

	a1 := specExtension[*tls.ALPNExtension](t, first)
	if len(a1.AlpnProtocols) != 1 || a1.AlpnProtocols[0] != "http/1.1" {
		t.Errorf("ALPN = %v, want [http/1.1]", a1.AlpnProtocols)
	}

	// ApplyPreset mutates extension structs in place (GREASE values,
	// generated key-share public keys), so reusing a spec sends connection
	// #1's key share on connection #2 and the handshake breaks. Two calls
	// must therefore hand out fully independent structs.
	a2 := specExtension[*tls.ALPNExtension](t, second)
	if a1 == a2 {
		t.Fatal("consecutive specs share an ALPN extension struct")
	}
	k1 := specExtension[*tls.KeyShareExtension](t, first)
	k2 := specExtension[*tls.KeyShareExtension](t, second)
	if k1 == k2 {
		t.Fatal("consecutive specs share a key-share extension struct")
	}

	a1.AlpnProtocols[0] = "h2"
	k1.KeyShares[0].Data = []byte{0xde, 0xad, 0xbe, 0xef}
	if a2.AlpnProtocols[0] != "http/1.1" {
		t.Error("mutating one spec's ALPN leaked into a fresh spec")
	}
	// utls only generates a key pair when Data holds at most a placeholder
	// byte; anything longer is treated as an already-generated public key.
	if len(k2.KeyShares[0].Data) > 1 {
		t.Error("mutating one spec's key share leaked into a fresh spec")
	}
}

func TestContentsAPI_DirectoryListing(t *testing.T) {
	payload := `[
		{"name": "README.md", "type": "file", "html_url": "https://github.com/o/r/blob/main/README.md"},
		{"name": "docs", "type": "dir", "html_url": "https://github.com/o/r/tree/main/docs"}
	]`

	res, err := newTestHTTPExtractor().extractContentsAPI([]byte(payload))
	if err != nil {
		t.Fatalf("extractContentsAPI: %v", err)
	}
	if res.Method != models.MethodHTTPAPI {
		t.Errorf("method = %s, want http-api", res.Method)
	}
	if res.Score != listingScore {
		t.Errorf("score = %v, want fixed %d", res.Score, listingScore)
	}
	want := "- [README.md](https://github.com/o/r/blob/main/README.md) (file)\n"
	if !strings.Contains(res.Content, want) {
		t.Errorf("listing output missing entry line:\n%s", res.Content)
	}
	if !strings.Contains(res.Content, "(dir)") {
		t.Errorf("listing output missing directory entry:\n%s", res.Content)
	}
}

func TestContentsAPI_FileDecoding(t *testing.T) {
	source := "package main\n\nfunc main() {}\n"
	payload := fmt.Sprintf(`{"name": "main.go", "encoding": "base64", "content": %q}`,
		base64.StdEncoding.EncodeToString([]byte(source)))

	res, err := newTestHTTPExtractor().extractContentsAPI([]byte(payload))
	if err != nil {
		t.Fatalf("extractContentsAPI: %v", err)
	}
	if res.Content != source {
		t.Errorf("decoded content = %q, want original source", res.Content)
	}
	if res.Score != fileScore {
		t.Errorf("score = %v, want fixed %d", res.Score, fileScore)
	}
}

func TestContentsAPI_RejectsUnknownEncoding(t *testing.T) {
	_, err := newTestHTTPExtractor().extractContentsAPI([]byte(`{"name": "x", "encoding": "utf-7", "content": "zz"}`))
	if err == nil {
		t.Fatal("expected unknown encoding to fail")
	}
}
