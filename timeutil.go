package magsci

import (
	"fmt"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// AbsoluteTime converts a packet's coarse/fine timestamp into a calendar
// time relative to IMAPEpoch.
func AbsoluteTime(coarse uint32, fine uint16) time.Time {
	return IMAPEpoch.Add(time.Duration(absoluteTime(coarse, fine) * float64(time.Second)))
}

// JulianDay converts a packet's coarse/fine timestamp into a Julian day
// number, for interoperability with mission timing tools that key off JD
// rather than calendar time.
func JulianDay(coarse uint32, fine uint16) float64 {
	t := AbsoluteTime(coarse, fine).UTC()
	day := float64(t.Day()) + (float64(t.Hour())*3600+float64(t.Minute())*60+float64(t.Second()))/86400
	return julian.CalendarGregorianToJD(t.Year(), int(t.Month()), day)
}

// HumaniseTimedelta renders d the way an operator scanning a log wants to
// read it: the largest non-zero unit first (days, hours or minutes), then
// every smaller unit down to seconds with millisecond precision, zero or
// not. A negative d is rendered by its magnitude.
func HumaniseTimedelta(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d.Seconds()

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %.3fs", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %.3fs", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %.3fs", minutes, seconds)
	default:
		return fmt.Sprintf("%.3fs", seconds)
	}
}
