// Package normalize rewrites known source-hosting URL shapes into
// direct-content equivalents before any extractor sees them.
package normalize

import (
	"fmt"
	"net/url"
	"strings"
)

// URL rewrites GitHub web URLs into direct-content equivalents:
//
//	github.com/{owner}/{repo}/blob/{branch}/{path} → raw.githubusercontent.com/{owner}/{repo}/{branch}/{path}
//	github.com/{owner}/{repo}/tree/{branch}/{path} → api.github.com/repos/{owner}/{repo}/contents/{path}?ref={branch}
//
// Any URL not matching either shape passes through unchanged, so the
// function is idempotent and has no failure mode.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Hostname() != "github.com" {
		return raw
	}

	// Path shape: /{owner}/{repo}/{blob|tree}/{branch}/{path...}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 {
		return raw
	}
	owner, repo, kind, branch := parts[0], parts[1], parts[2], parts[3]
	rest := strings.Join(parts[4:], "/")

	switch kind {
	case "blob":
		return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", owner, repo, branch, rest)
	case "tree":
		return fmt.Sprintf("https://api.github.com/repos/%s/%s/contents/%s?ref=%s", owner, repo, rest, branch)
	}
	return raw
}

// IsContentsAPI reports whether the URL targets the GitHub repository
// contents API, which returns structured JSON instead of HTML.
func IsContentsAPI(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Hostname() == "api.github.com" && strings.Contains(u.Path, "/contents")
}
