// Package checker turns raw AI-engine answers into visibility records and
// orchestrates the keyword × engine check matrix.
package checker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/aeotrackhq/aeotrack/internal/domain"
)

// urlPattern matches http/https tokens up to the next whitespace, scanned
// against the original-case answer so URLs keep their casing.
var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// Analyze derives a visibility fragment from one raw answer. It is total over
// well-formed inputs: the only rejected input is an empty brand, which would
// otherwise match every answer as a universal substring.
//
// Matching is exact case-insensitive substring matching. A brand name broken
// across a line break ("Acme\nWidgets") is therefore not detected; that is a
// known limitation of the matching model, not something to paper over here.
func Analyze(answerText, brand string, competitors []string) (*domain.Analysis, error) {
	if strings.TrimSpace(brand) == "" {
		return nil, domain.ErrEmptyBrand
	}

	lowerAnswer := strings.ToLower(answerText)
	lowerBrand := strings.ToLower(brand)

	presence := strings.Contains(lowerAnswer, lowerBrand)
	citations := strings.Count(lowerAnswer, lowerBrand)

	var position *int
	if presence {
		p := tokenPosition(lowerAnswer, strings.Index(lowerAnswer, lowerBrand))
		position = &p
	}

	urls := urlPattern.FindAllString(answerText, -1)

	var mentioned []string
	for _, comp := range competitors {
		if comp == "" {
			continue
		}
		if strings.Contains(lowerAnswer, strings.ToLower(comp)) {
			mentioned = append(mentioned, comp)
		}
	}

	return &domain.Analysis{
		Presence:             presence,
		Position:             position,
		CitationsCount:       citations,
		ObservedURLs:         urls,
		CompetitorsMentioned: mentioned,
		AnswerSnippet:        snippet(answerText, domain.AnswerSnippetLimit),
	}, nil
}

// tokenPosition returns the 1-based index of the whitespace-delimited token
// containing byte offset idx. The offset always falls inside a token since
// brand matches never start on whitespace.
func tokenPosition(s string, idx int) int {
	pos := 0
	inToken := false
	for i, r := range s {
		if unicode.IsSpace(r) {
			inToken = false
		} else if !inToken {
			inToken = true
			pos++
		}
		if i >= idx {
			break
		}
	}
	if pos == 0 {
		pos = 1
	}
	return pos
}

// snippet returns the first limit characters of s, no word-boundary trimming
func snippet(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
