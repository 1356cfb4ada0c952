package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	isoPrefix   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	dottedDate  = regexp.MustCompile(`^(\d{1,2})\.\s*(\d{1,2})\.\s*(\d{4})\.?$`)
	dateInText  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{1,2}\.\s?\d{1,2}\.\s?\d{4}`)
	shortDigits = regexp.MustCompile(`^\d{1,5}$`)
)

// Date returns the calendar date of s as YYYY-MM-DD, or nil when s matches none of
// the accepted encodings.
func Date(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if isoPrefix.MatchString(s) {
		out := s[:10]
		return &out
	}
	if m := dottedDate.FindStringSubmatch(s); m != nil {
		return dayFirst(m[1], m[2], m[3])
	}
	if shortDigits.MatchString(s) {
		return nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	out := t.Format(time.DateOnly)
	return &out
}

// DateInText returns the first ISO or dotted date substring in s, or "".
func DateInText(s string) string {
	m := dateInText.FindString(s)
	return strings.ReplaceAll(m, " ", "")
}

func dayFirst(dayText, monthText, yearText string) *string {
	day, _ := strconv.Atoi(dayText)
	month, _ := strconv.Atoi(monthText)
	year, _ := strconv.Atoi(yearText)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return nil
	}
	out := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	return &out
}
