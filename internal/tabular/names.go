package tabular

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are stripped from the end of organization names before
// comparison.
var legalSuffixes = []string{
	" INCORPORATED", " INC", " CORPORATION", " CORP", " CO",
	" LLC", " LTD", " LIMITED", " FOUNDATION INC", " TRUST",
}

var (
	nonAlnumRe   = regexp.MustCompile(`[^A-Z0-9 ]+`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// FoldName standardizes an organization name for matching: accents are
// removed, case is folded, "&" becomes "AND", punctuation is dropped, legal
// suffixes are stripped and whitespace is collapsed.
func FoldName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, name); err == nil {
		name = folded
	}

	name = strings.ToUpper(name)
	name = strings.ReplaceAll(name, "&", " AND ")
	name = strings.ReplaceAll(name, "-", " ")
	name = nonAlnumRe.ReplaceAllString(name, "")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSpace(strings.TrimSuffix(name, suffix))
			break
		}
	}
	name = strings.TrimPrefix(name, "THE ")
	return name
}
