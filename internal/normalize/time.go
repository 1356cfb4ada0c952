package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	isoClock    = regexp.MustCompile(`T(\d{2}):(\d{2}):\d{2}`)
	twelveHour  = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})(?::\d{2})?\s*([AP]M)$`)
	twentyFour  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?`)
	hourSuffix  = regexp.MustCompile(`(?i)\s*h\.?$`)
	dottedClock = regexp.MustCompile(`^(\d{1,2})\.(\d{2})$`)
	meridiem    = regexp.MustCompile(`(?i)\d\s*[AP]M$`)
)

// Time returns s as a zero-padded 24-hour HH:MM. Unrecognized input is returned trimmed
// but otherwise unchanged.
func Time(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := isoClock.FindStringSubmatch(s); m != nil {
		if out, ok := clock(m[1], m[2]); ok {
			return out
		}
		return s
	}
	if m := twelveHour.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if hour < 1 || hour > 12 {
			return s
		}
		switch strings.ToUpper(m[3]) {
		case "PM":
			if hour < 12 {
				hour += 12
			}
		case "AM":
			if hour == 12 {
				hour = 0
			}
		}
		if out, ok := clock(strconv.Itoa(hour), m[2]); ok {
			return out
		}
		return s
	}
	// An AM/PM time that did not parse above must not lose its suffix.
	if meridiem.MatchString(s) {
		return s
	}
	if m := twentyFour.FindStringSubmatch(s); m != nil {
		if out, ok := clock(m[1], m[2]); ok {
			return out
		}
	}
	return s
}

// ScheduleTime strips the trailing "h" used on Croatian timetables ("08:00 h", "8.00 h")
// before normalizing.
func ScheduleTime(s string) string {
	s = hourSuffix.ReplaceAllString(strings.TrimSpace(s), "")
	if m := dottedClock.FindStringSubmatch(s); m != nil {
		s = m[1] + ":" + m[2]
	}
	return Time(s)
}

func clock(hourText, minuteText string) (string, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 0 || hour > 23 {
		return "", false
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil || minute < 0 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
