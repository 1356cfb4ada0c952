package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	scriptBlock = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	styleBlock  = regexp.MustCompile(`(?is)<style\b.*?</style\s*>`)
	lineBreak   = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTag      = regexp.MustCompile(`<[^>]*>`)

	entities = strings.NewReplacer("&nbsp;", " ", "&amp;", "&")
)

// Text strips markup from s and returns it trimmed, whitespace-collapsed, and NFC-normalized.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = scriptBlock.ReplaceAllString(s, " ")
	s = styleBlock.ReplaceAllString(s, " ")
	s = lineBreak.ReplaceAllString(s, " ")
	s = anyTag.ReplaceAllString(s, " ")
	s = entities.Replace(s)
	return Collapse(s)
}

// Collapse folds whitespace runs (including non-breaking spaces) to single spaces,
// trims, and NFC-normalizes s. It does not touch markup.
func Collapse(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Fold lowercases s for keyword matching after normalizing it.
func Fold(s string) string {
	return strings.ToLower(Collapse(s))
}
