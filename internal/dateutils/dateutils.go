// Package dateutils provides the date operations shared by the report
// parsers and assemblers.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date format constants used throughout the pipeline.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutUS       = "01/02/2006"
	DateLayoutCompact  = "20060102"
	DateLayoutSlashDay = "1/2/2006"
	DateLayoutLong     = "January 2, 2006"
	DateLayoutMonthDay = "Jan 2, 2006"
)

// CommonFormats is the list of formats to try when parsing a date token
// found in a report header or footer.
var CommonFormats = []string{
	DateLayoutISO,
	DateLayoutUS,
	DateLayoutSlashDay,
	DateLayoutLong,
	DateLayoutMonthDay,
	"01-02-2006",
	"2006/01/02",
	"02-Jan-2006",
}

var spaceRe = regexp.MustCompile(`\s+`)

// ParseDate attempts to parse a date string using multiple common formats.
// Returns the parsed time and the detected format.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)

	for _, format := range CommonFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD).
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// ToCompactDate formats a time.Time value as YYYYMMDD, the form used in
// journal entry ids.
func ToCompactDate(date time.Time) string {
	return date.Format(DateLayoutCompact)
}

// ToUSDate formats a time.Time value as MM/DD/YYYY, the form used in
// statistical journal transaction ids.
func ToUSDate(date time.Time) string {
	return date.Format(DateLayoutUS)
}

// CleanDateString trims and collapses whitespace in a date string.
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	return spaceRe.ReplaceAllString(dateStr, " ")
}

// Yesterday returns the calendar day before now, at midnight UTC. It is the
// fallback business date when a report carries none.
func Yesterday(now time.Time) time.Time {
	y := now.AddDate(0, 0, -1)
	return time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)
}
