// Package score implements the heuristic content-quality function used to
// rank competing extraction results. It is pure and deterministic: the same
// content and method always produce the same score.
package score

import (
	"regexp"
	"strings"

	"github.com/use-agent/harvest/models"
)

// Params holds the tunable scoring weights. The defaults were tuned
// empirically; callers that need different tradeoffs should copy
// DefaultParams and adjust rather than hardcoding values at use sites.
type Params struct {
	// ShortContentLength is the length (bytes) below which content is
	// treated as a near-empty or failed extraction.
	ShortContentLength int

	// ShortContentPenalty is subtracted when content is shorter than
	// ShortContentLength.
	ShortContentPenalty float64

	// LengthCap caps the length component (roughly 1 point per 100 bytes).
	LengthCap float64

	// ParagraphMinLength is the trimmed length a paragraph must exceed to
	// count toward the structure component.
	ParagraphMinLength int

	// ParagraphPoints is awarded per qualifying paragraph.
	ParagraphPoints float64

	// ParagraphCap caps the structure component.
	ParagraphCap float64

	// ErrorPenalty is subtracted when content matches a failure-indicator
	// pattern.
	ErrorPenalty float64

	// HeadingBonus is added when content contains a markdown or HTML heading.
	HeadingBonus float64

	// LinkBonus is added when content contains a markdown link or anchor tag.
	LinkBonus float64

	// MethodPreference nudges near-ties toward more trustworthy methods.
	MethodPreference map[models.Method]float64
}

// DefaultParams are the production weights.
var DefaultParams = Params{
	ShortContentLength:  100,
	ShortContentPenalty: 20,
	LengthCap:           50,
	ParagraphMinLength:  50,
	ParagraphPoints:     2,
	ParagraphCap:        20,
	ErrorPenalty:        30,
	HeadingBonus:        10,
	LinkBonus:           5,
	MethodPreference: map[models.Method]float64{
		models.MethodBrowser:  5,
		models.MethodHTTP:     3,
		models.MethodDocument: 10,
		models.MethodOCR:      -5,
	},
}

// reErrorSignal matches common failure-indicator phrases. The match is
// intentionally crude and can false-positive on legitimate content that
// happens to mention these words; that is a documented limitation of the
// heuristic, not a bug.
var reErrorSignal = regexp.MustCompile(`(?i)error|not found|access denied|forbidden|timeout|captcha|robot`)

// reParagraphSplit splits content on blank-line boundaries.
var reParagraphSplit = regexp.MustCompile(`\n\s*\n`)

// reHeading matches an ATX markdown heading at line start or an HTML
// heading tag.
var reHeading = regexp.MustCompile(`(?mi)^#{1,6}\s|<h[1-6][\s>]`)

// reLink matches a markdown link or an HTML anchor tag.
var reLink = regexp.MustCompile(`(?i)\[[^\]]*\]\([^)]*\)|<a[\s>]`)

// Score rates content quality for the given extraction method using
// DefaultParams.
func Score(content string, method models.Method) float64 {
	return DefaultParams.Score(content, method)
}

// Score computes the quality estimate. Components are additive and
// order-independent; the final value is floored at 0.
func (p Params) Score(content string, method models.Method) float64 {
	var s float64

	// Length: near-empty content is penalized; otherwise roughly one
	// point per 100 bytes, capped.
	if len(content) < p.ShortContentLength {
		s -= p.ShortContentPenalty
	} else {
		s += min(float64(len(content))/100, p.LengthCap)
	}

	// Structure: count substantial paragraphs.
	var paragraphs int
	for _, para := range reParagraphSplit.Split(content, -1) {
		if len(strings.TrimSpace(para)) > p.ParagraphMinLength {
			paragraphs++
		}
	}
	s += min(float64(paragraphs)*p.ParagraphPoints, p.ParagraphCap)

	// Failure indicators.
	if reErrorSignal.MatchString(content) {
		s -= p.ErrorPenalty
	}

	// Method preference.
	s += p.MethodPreference[method]

	// Markup structure and link bonuses.
	if reHeading.MatchString(content) {
		s += p.HeadingBonus
	}
	if reLink.MatchString(content) {
		s += p.LinkBonus
	}

	if s < 0 {
		return 0
	}
	return s
}
