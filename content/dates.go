package content

import (
	"strconv"
	"strings"
	"time"
)

// ParseDateInput parses a form date. "YYYY-MM-DD" is read as midnight in
// loc, with out-of-range parts normalised the way time.Date does; anything
// else must be RFC 3339.
func ParseDateInput(value string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	parts := strings.Split(value, "-")
	if len(parts) >= 3 {
		nums := make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				break
			}
			nums = append(nums, n)
		}
		if len(nums) == len(parts) {
			return time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, loc), true
		}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

// DaysUntil counts calendar days from now's date to value's date in now's
// location. Past dates are negative.
func DaysUntil(value string, now time.Time) (int, bool) {
	if value == "" {
		return 0, false
	}
	target, ok := ParseDateInput(value, now.Location())
	if !ok {
		return 0, false
	}
	from := civilDay(now)
	to := civilDay(target)
	return int(to.Sub(from).Hours() / 24), true
}

// civilDay maps t's calendar date onto a UTC midnight so subtraction is
// free of DST shifts.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Counter is the "time together" breakdown shown on the home page.
type Counter struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
	Hours  int `json:"hours"`
}

// Together computes the elapsed years, months, days and hours from start to
// now, borrowing from the larger unit when a smaller one goes negative.
// Every component is clamped at zero.
func Together(start, now time.Time) Counter {
	start = start.In(now.Location())
	years := now.Year() - start.Year()
	months := int(now.Month()) - int(start.Month())
	days := now.Day() - start.Day()
	hours := now.Hour() - start.Hour()

	if hours < 0 {
		hours += 24
		days--
	}
	if days < 0 {
		// Day 0 of this month is the last day of the previous one.
		days += time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, now.Location()).Day()
		months--
	}
	if months < 0 {
		months += 12
		years--
	}
	return Counter{
		Years:  max(0, years),
		Months: max(0, months),
		Days:   max(0, days),
		Hours:  max(0, hours),
	}
}
