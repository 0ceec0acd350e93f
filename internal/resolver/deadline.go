package resolver

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	deadlineMonthDay = regexp.MustCompile(`(?i)\b(by|before|no later than|until)\s+(?:(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*,?\s+)?(?:the\s+)?(` +
		monthPattern + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	deadlineISO = regexp.MustCompile(`(?i)\b(by|before|no later than|until)\s+(\d{4}-\d{2}-\d{2})\b`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseRequestedBy finds the customer's delivery deadline in text. A year
// left out is taken from requestDate, rolling forward if that would put the
// deadline in the past. "before X" means the day before X.
func ParseRequestedBy(text string, requestDate time.Time) (time.Time, bool) {
	type hit struct {
		at int
		t  time.Time
	}
	var found []hit

	if m := deadlineISO.FindStringSubmatchIndex(text); m != nil {
		if t, err := time.Parse("2006-01-02", text[m[4]:m[5]]); err == nil {
			found = append(found, hit{m[0], adjust(text[m[2]:m[3]], t)})
		}
	}

	if m := deadlineMonthDay.FindStringSubmatchIndex(text); m != nil {
		month := monthsByPrefix[strings.ToLower(text[m[4]:m[4]+3])]
		day, _ := strconv.Atoi(text[m[6]:m[7]])
		year := requestDate.Year()
		explicitYear := m[8] >= 0
		if explicitYear {
			year, _ = strconv.Atoi(text[m[8]:m[9]])
		}
		t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if t.Day() == day {
			if !explicitYear && t.Before(requestDate) {
				t = t.AddDate(1, 0, 0)
			}
			found = append(found, hit{m[0], adjust(text[m[2]:m[3]], t)})
		}
	}

	if len(found) == 0 {
		return time.Time{}, false
	}
	first := found[0]
	for _, h := range found[1:] {
		if h.at < first.at {
			first = h
		}
	}
	return first.t, true
}

func adjust(prep string, t time.Time) time.Time {
	if strings.EqualFold(prep, "before") {
		return t.AddDate(0, 0, -1)
	}
	return t
}
