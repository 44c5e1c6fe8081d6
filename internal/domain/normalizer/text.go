package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks so that "débito" and "debito"
// compare equal.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases a string, removes accents and collapses internal
// whitespace. Used for header resolution and account-name matching.
func fold(s string) string {
	stripped, _, err := transform.String(foldTransformer, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// tokenPattern matches runs of 6 or more consecutive digits, the minimum
// length a reference number needs to be worth fuzzy-matching on.
var tokenPattern = regexp.MustCompile(`[0-9]{6,}`)

// ExtractTokens scans free text for embedded numeric reference tokens.
// Digit runs of the minimum length count as written, so a repeated
// reference like "123456-123456" yields one token, not a twelve-digit
// one. Only when the text has no such run are whitespace and hyphens
// stripped and the scan retried, which lets a reference typed in pieces
// ("12-34 56") still surface as "123456". The result is deduplicated,
// in order of first appearance.
func ExtractTokens(text string) []string {
	raw := tokenPattern.FindAllString(text, -1)
	if len(raw) == 0 {
		joined := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) || r == '-' {
				return -1
			}
			return r
		}, text)
		raw = tokenPattern.FindAllString(joined, -1)
	}
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(raw))
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}
