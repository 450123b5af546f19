package overview

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	parenRe              = regexp.MustCompile(`\s*\([^)]*\)$`)
	threeDigitTimezoneRe = regexp.MustCompile(`\s([+-])(\d{3})\s*$`)
)

// dateLayouts is tried in order against a raw NNTP Date: header value.
// Usenet posters and gateways emit a wide variety of near-RFC-5322
// formats. The first layout that parses the whole string wins;
// time.Parse rejects trailing text, so a shorter layout never
// partially matches a longer string.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,

	"2006-01-02T15:04:05.000-07:00",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006/01/02",

	"01/02/2006 15:04:05 -0700",
	"01/02/2006 15:04:05 MST",
	"01/02/2006 15:04:05",
	"02/01/2006 15:04:05 -0700",
	"02/01/2006 15:04:05 MST",
	"02/01/2006 15:04:05",
	"01/02/06 15:04:05 MST",
	"01/02/06 15:04:05",
	"02.01.2006 15:04:05 MST",
	"02.01.2006 15:04:05",

	"Monday, 02-Jan-2006 15:04:05 MST",
	"Monday, 2-Jan-2006 15:04:05 MST",
	"Monday, 02-Jan-06 15:04:05 MST",
	"Mon, _2-Jan-2006 15:04:05 -0700",
	"Mon, _2-Jan-06 15:04:05 MST",
	"Mon, 02-Jan-2006 15:04:05 MST",
	"Mon, 2-Jan-2006 15:04:05 MST",
	"Mon, 02-Jan-06 15:04:05 MST",
	"Mon, 2-Jan-06 15:04:05 MST",

	"Monday, _2 January 2006 15:04:05 -0700 (MST)",
	"Mon, _2 January 2006 15:04:05 -0700 (MST)",
	"Mon, 02 Jan 2006 15:04:05 -0700 (MST)",
	"Monday, _2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, _2 Jan 2006 15:04:05 -0700 (MST)",
	"Monday, _2 Jan 06 15:04:05 -0700 (MST)",
	"Mon, 02 Jan 06 15:04:05 -0700 (MST)",
	"Mon, _2 Jan 06 15:04:05 -0700 (MST)",
	"January _2, 2006 15:04:05 -0700 (MST)",
	"Jan _2, 2006 15:04:05 -0700 (MST)",
	"_2 January 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700 (MST)",
	"_2 Jan 2006 15:04:05 -0700 (MST)",
	"_2 Jan 06 15:04:05 -0700 (MST)",
	"02 Jan 06 15:04:05 -0700 (MST)",
	"Mon, 02 Jan 06 15:04 -0700 (MST)",

	"Mon, 2 Jan 2006 15:04:05 -0700 MST",
	"Mon, 02 Jan 2006 15:04:05 -0700 MST",
	"Mon, 2 Jan 06 15:04:05 -0700 MST",
	"Mon, 02 Jan 06 15:04:05 -0700 MST",
	"2 Jan 2006 15:04:05 -0700 MST",
	"_2 Jan 2006 15:04:05 -0700 MST",

	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05",
	"Mon, 02 Jan 2006 15:04:05",
	"2 Jan 2006 15:04:05",
}

// parseDate converts a raw NNTP Date field into a time.Time, tolerating
// parenthesized timezone names and 3-digit offsets. It returns the zero
// time (never an error) when every layout fails, since a malformed
// date must never abort ingestion of an otherwise valid overview row.
func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	s := parenRe.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)

	if m := threeDigitTimezoneRe.FindStringSubmatch(s); len(m) == 3 {
		s = threeDigitTimezoneRe.ReplaceAllString(s, fmt.Sprintf(" %s0%s", m[1], m[2]))
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
