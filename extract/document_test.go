package extract

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/use-agent/harvest/models"
)

func TestIsDocumentURL(t *testing.T) {
	yes := []string{
		"https://example.com/paper.pdf",
		"https://example.com/report.DOCX",
		"https://example.com/deck.pptx?dl=1",
		"https://example.com/old.doc",
		"https://example.com/slides.ppt",
	}
	no := []string{
		"https://example.com/page.html",
		"https://example.com/pdf", // no extension
		"https://example.com/archive.zip",
		"https://example.com/",
	}
	for _, u := range yes {
		if !IsDocumentURL(u) {
			t.Errorf("IsDocumentURL(%q) = false, want true", u)
		}
	}
	for _, u := range no {
		if IsDocumentURL(u) {
			t.Errorf("IsDocumentURL(%q) = true, want false", u)
		}
	}
}

func TestDecodeLegacyBytes(t *testing.T) {
	data := []byte("Quarterly\x00\x01\x02 results\xff\xfe improved again")
	got := decodeLegacyBytes(data)

	if !strings.Contains(got, "Quarterly") || !strings.Contains(got, "results") {
		t.Errorf("decodeLegacyBytes lost readable text: %q", got)
	}
	for _, r := range got {
		if r != '\n' && r != '\t' && r != ' ' && (r < 0x20 || r == 0x7f) {
			t.Errorf("control rune %q survived decoding", r)
		}
	}
}

func TestDocumentExtract_LegacyDocEndToEnd(t *testing.T) {
	body := "Annual report\x00\x00 revenue grew in every region this year."
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/msword")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	res, err := NewDocumentExtractor().Extract(t.Context(), &Request{URL: srv.URL + "/report.doc"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != models.MethodDocument {
		t.Errorf("method = %s, want document", res.Method)
	}
	if !strings.Contains(res.Content, "revenue grew") {
		t.Errorf("content lost readable text: %q", res.Content)
	}
	if size, _ := res.Metadata[models.MetaByteSize].(int); size != len(body) {
		t.Errorf("byte size metadata = %v, want %d", res.Metadata[models.MetaByteSize], len(body))
	}
}

func TestDocumentExtract_CorruptPDFFailsHard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4 truncated garbage"))
	}))
	defer srv.Close()

	_, err := NewDocumentExtractor().Extract(t.Context(), &Request{URL: srv.URL + "/broken.pdf"})
	if err == nil {
		t.Fatal("expected corrupt PDF to fail the extractor")
	}
}
