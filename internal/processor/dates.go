package processor

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	parenTimezoneRe      = regexp.MustCompile(`\s*\([^)]*\)$`)
	threeDigitTimezoneRe = regexp.MustCompile(`\s([+-])(\d{3})\s*$`)
)

// dateLayouts covers the Date header formats seen in list archives. The
// RFC 1123 variants come first; the rest are long-tail formats from old
// clients.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

// ParseArticleDate parses an article Date header. Trailing parenthesized
// timezone names and 3-digit offsets like +200 are normalized first.
// A date that no layout accepts fails that message's processing only,
// never the whole batch.
func ParseArticleDate(dateStr string) (time.Time, error) {
	dateStr = parenTimezoneRe.ReplaceAllString(dateStr, "")
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date header")
	}

	// fix 3-digit timezone offsets like +200 -> +0200
	if match := threeDigitTimezoneRe.FindStringSubmatch(dateStr); len(match) == 3 {
		dateStr = threeDigitTimezoneRe.ReplaceAllString(dateStr, " "+match[1]+"0"+match[2])
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", dateStr)
}
