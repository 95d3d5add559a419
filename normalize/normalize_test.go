package normalize

import "testing"

func TestURL_BlobRewrite(t *testing.T) {
	in := "https://github.com/golang/go/blob/master/src/net/http/server.go"
	want := "https://raw.githubusercontent.com/golang/go/master/src/net/http/server.go"
	if got := URL(in); got != want {
		t.Errorf("URL(%q) = %q, want %q", in, got, want)
	}
}

func TestURL_TreeRewrite(t *testing.T) {
	in := "https://github.com/golang/go/tree/master/src/net"
	want := "https://api.github.com/repos/golang/go/contents/src/net?ref=master"
	if got := URL(in); got != want {
		t.Errorf("URL(%q) = %q, want %q", in, got, want)
	}
}

func TestURL_PassThrough(t *testing.T) {
	inputs := []string{
		"https://example.com/some/page",
		"https://github.com/golang/go",            // repo root, no blob/tree
		"https://github.com/golang/go/issues/123", // unrelated shape
		"https://gitlab.com/group/project/-/blob/main/README.md",
	}
	for _, in := range inputs {
		if got := URL(in); got != in {
			t.Errorf("URL(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestURL_Idempotent(t *testing.T) {
	inputs := []string{
		"https://github.com/golang/go/blob/master/README.md",
		"https://github.com/golang/go/tree/master/src",
		"https://example.com/page",
	}
	for _, in := range inputs {
		once := URL(in)
		if twice := URL(once); twice != once {
			t.Errorf("URL not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestIsContentsAPI(t *testing.T) {
	if !IsContentsAPI("https://api.github.com/repos/golang/go/contents/src?ref=master") {
		t.Error("contents API URL not recognized")
	}
	if IsContentsAPI("https://example.com/repos/x/contents") {
		t.Error("non-github host must not be recognized")
	}
	if IsContentsAPI("https://api.github.com/repos/golang/go") {
		t.Error("non-contents API path must not be recognized")
	}
}
