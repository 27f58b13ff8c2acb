package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/erx/erx/internal/platform/fhir"
)

// Notification is one reminder of the day and the amount taken at it.
type Notification struct {
	Time  string `json:"time"`
	Ratio string `json:"ratio"`
}

type DurationKind string

const (
	DurationEndless        DurationKind = "endless"
	DurationUntilEndOfPack DurationKind = "until-end-of-pack"
	DurationPersonalized   DurationKind = "personalized"
)

// Duration bounds a schedule. Start and End are only meaningful for
// personalized durations; Start also anchors the other kinds when set.
type Duration struct {
	Kind  DurationKind `json:"kind"`
	Start *time.Time   `json:"start,omitempty"`
	End   *time.Time   `json:"end,omitempty"`
}

type IntervalKind string

const (
	IntervalDaily        IntervalKind = "daily"
	IntervalEveryNDays   IntervalKind = "every-n-days"
	IntervalPersonalized IntervalKind = "personalized"
)

// Interval is the repetition policy of a schedule.
type Interval struct {
	Kind     IntervalKind   `json:"kind"`
	Days     int            `json:"days,omitempty"`
	Weekdays []time.Weekday `json:"weekdays,omitempty"`
}

func Daily() Interval { return Interval{Kind: IntervalDaily} }

func EveryNDays(n int) Interval { return Interval{Kind: IntervalEveryNDays, Days: n} }

func EveryTwoDays() Interval { return EveryNDays(2) }

func OnWeekdays(days ...time.Weekday) Interval {
	return Interval{Kind: IntervalPersonalized, Weekdays: days}
}

// Schedule is a medication schedule. Amount is the pack size; only its
// numerator is used.
type Schedule struct {
	Notifications []Notification `json:"notifications"`
	Duration      Duration       `json:"duration"`
	Interval      Interval       `json:"interval"`
	Amount        *fhir.Ratio    `json:"amount,omitempty"`
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekdays parses a comma separated list such as "mon,wed,fri".
func ParseWeekdays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		d, ok := weekdayNames[part]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, d)
	}
	return days, nil
}
