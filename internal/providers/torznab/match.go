package torznab

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchTag returns the part of a release title that is not covered by the
// searched name, e.g. "1080p BluRay x264" for "Example 2020 1080p BluRay x264"
// searched as "Example 2020". Tokens are compared case- and accent-folded.
func MatchTag(title, name string) string {
	queryTokens := make(map[string]struct{})
	for _, token := range tokenize(name) {
		queryTokens[foldToken(token)] = struct{}{}
	}

	extra := make([]string, 0, 8)
	for _, token := range tokenize(title) {
		if _, ok := queryTokens[foldToken(token)]; ok {
			continue
		}
		extra = append(extra, token)
	}
	return strings.Join(extra, " ")
}

// EpisodeTag formats season and episode as "S01E02".
func EpisodeTag(season, episode int) string {
	return fmt.Sprintf("S%02dE%02d", season, episode)
}

func tokenize(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func foldToken(token string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), token)
	if err != nil {
		stripped = token
	}
	return cases.Fold().String(stripped)
}
