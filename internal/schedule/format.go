// Package schedule renders a night's stored naive timestamp for display.
//
// The stored value is a plain "YYYY-MM-DD HH:MM" local timestamp plus a zone
// name describing what those numbers mean; no absolute instant is ever
// built from them. Zone offsets come from a fixed table with a single offset
// per zone, so the DST regime is the one baked in when the table was
// written, not computed per date. That staleness is a known limitation and
// is deliberately kept.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Display is the read-side rendering of a stored timestamp: the date and
// time in the night's own zone, and an approximation in the viewer's zone.
type Display struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Zone      string `json:"zone"`
	LocalDate string `json:"local_date"`
	LocalTime string `json:"local_time"`
}

type zoneInfo struct {
	abbr   string
	offset int // whole hours from UTC
}

// zoneTable maps supported zone names to an abbreviation and one fixed UTC
// offset. Offsets do not vary by calendar date.
var zoneTable = map[string]zoneInfo{
	"America/New_York":    {"EST", -5},
	"America/Chicago":     {"CST", -6},
	"America/Denver":      {"MST", -7},
	"America/Phoenix":     {"MST", -7},
	"America/Los_Angeles": {"PST", -8},
	"America/Anchorage":   {"AKST", -9},
	"Pacific/Honolulu":    {"HST", -10},
	"Europe/London":       {"GMT", 0},
	"Europe/Paris":        {"CET", 1},
	"Europe/Berlin":       {"CET", 1},
	"Asia/Tokyo":          {"JST", 9},
	"Australia/Sydney":    {"AEST", 10},
	"UTC":                 {"UTC", 0},
}

// zoneFor resolves a zone name against the table. Unknown names fall back
// to the name itself as the abbreviation with offset 0.
func zoneFor(name string) zoneInfo {
	if z, ok := zoneTable[name]; ok {
		return z
	}
	return zoneInfo{abbr: name, offset: 0}
}

// Format converts a stored timestamp and zone name into display strings.
// viewerOffsetHours is the viewer's UTC offset in whole hours. The viewer
// rendering shifts only the hour, wrapping modulo 24; the displayed date is
// never moved across the day boundary, so near midnight the local date can
// be off by one day. Format never panics: if the timestamp does not parse,
// it falls back to interpreting the raw text as UTC.
func Format(stored, zoneName string, viewerOffsetHours int) Display {
	y, mo, d, h, mi, ok := parseComponents(stored)
	if !ok {
		return fallback(stored, viewerOffsetHours)
	}

	z := zoneFor(zoneName)

	localH := h + viewerOffsetHours - z.offset
	localH = ((localH % 24) + 24) % 24

	return Display{
		Date:      formatDate(y, mo, d),
		Time:      formatClock(h, mi) + " " + z.abbr,
		Zone:      z.abbr,
		LocalDate: formatDate(y, mo, d),
		LocalTime: formatClock(localH, mi),
	}
}

// parseComponents pulls year/month/day/hour/minute out of
// "YYYY-MM-DD HH:MM[:SS]" (a "T" separator is also accepted) as plain
// numbers, with no timezone interpretation.
func parseComponents(stored string) (y, mo, d, h, mi int, ok bool) {
	s := strings.TrimSpace(strings.Replace(stored, "T", " ", 1))
	parts := strings.SplitN(s, " ", 2)
	if len(parts) != 2 {
		return 0, 0, 0, 0, 0, false
	}
	dp := strings.Split(parts[0], "-")
	tp := strings.Split(parts[1], ":")
	if len(dp) != 3 || len(tp) < 2 {
		return 0, 0, 0, 0, 0, false
	}
	nums := make([]int, 0, 5)
	for _, raw := range []string{dp[0], dp[1], dp[2], tp[0], tp[1]} {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, 0, 0, 0, false
		}
		nums = append(nums, n)
	}
	y, mo, d, h, mi = nums[0], nums[1], nums[2], nums[3], nums[4]
	if mo < 1 || mo > 12 || d < 1 || d > 31 || h < 0 || h > 23 || mi < 0 || mi > 59 {
		return 0, 0, 0, 0, 0, false
	}
	return y, mo, d, h, mi, true
}

// formatDate renders "Fri, Apr 3 2026". time.Date is used only to compute
// the weekday name; the UTC location is arbitrary.
func formatDate(y, mo, d int) string {
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	return t.Format("Mon, Jan 2 2006")
}

// formatClock renders a 12-hour clock reading such as "7:30 PM".
func formatClock(h, mi int) string {
	suffix := "AM"
	hh := h
	switch {
	case h == 0:
		hh = 12
	case h == 12:
		suffix = "PM"
	case h > 12:
		hh = h - 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", hh, mi, suffix)
}

// fallback handles unparseable timestamps: the raw text is read as a UTC
// instant where possible and shifted by the viewer's offset; if even that
// fails the raw string is echoed back so the caller always gets something
// renderable.
func fallback(stored string, viewerOffsetHours int) Display {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	} {
		t, err := time.Parse(layout, strings.TrimSpace(stored))
		if err != nil {
			continue
		}
		local := t.Add(time.Duration(viewerOffsetHours) * time.Hour)
		return Display{
			Date:      t.Format("Mon, Jan 2 2006"),
			Time:      t.Format("3:04 PM") + " UTC",
			Zone:      "UTC",
			LocalDate: local.Format("Mon, Jan 2 2006"),
			LocalTime: local.Format("3:04 PM"),
		}
	}
	return Display{Date: stored, Zone: "UTC"}
}
