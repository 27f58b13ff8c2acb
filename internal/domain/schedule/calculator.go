package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/erx/erx/internal/domain/dosage"
	"github.com/erx/erx/internal/platform/fhir"
)

// Default clock times of the dosing slots.
var defaultTimes = map[dosage.DayTime]string{
	dosage.Morning: "08:00",
	dosage.Noon:    "12:00",
	dosage.Evening: "18:00",
	dosage.Night:   "20:00",
}

// cyclePrecision bounds the decimal places of amount/perCycle before the
// ceiling is taken, so that 1/3 + 1/3 + 1/3 counts as one unit.
const cyclePrecision = 8

// LastDate is the latest end of pack reported. FHIR dates stop at year 9999.
var LastDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// CalculateEndOfPack returns the date on which the last dose of the pack is
// taken. The start is the duration's start, or now, truncated to its
// calendar day. Missing amounts, missing notifications or a zero per-cycle
// consumption leave the end at the start date. Packs lasting past LastDate
// end on LastDate.
func CalculateEndOfPack(s Schedule, now time.Time) time.Time {
	end, _ := EndOfPack(s, now)
	return end
}

// EndOfPack is CalculateEndOfPack reporting whether the end fell within
// LastDate (false when it was capped).
func EndOfPack(s Schedule, now time.Time) (time.Time, bool) {
	start := startDate(s, now)
	if len(s.Notifications) == 0 {
		return start, true
	}

	perCycle := decimal.Zero
	for _, n := range s.Notifications {
		if r, ok := dosage.ParseAmount(n.Ratio); ok {
			perCycle = perCycle.Add(r)
		}
	}
	amount, ok := packAmount(s.Amount)
	if !ok || !perCycle.IsPositive() || !amount.IsPositive() {
		return start, true
	}

	cycles := amount.DivRound(perCycle, cyclePrecision).Ceil()
	if cycles.LessThan(decimal.NewFromInt(1)) {
		return start, true
	}
	// Cycles after the first one.
	rest := cycles.Sub(decimal.NewFromInt(1))

	var offset decimal.Decimal
	switch s.Interval.Kind {
	case IntervalEveryNDays:
		n := s.Interval.Days
		if n < 1 {
			n = 1
		}
		offset = rest.Mul(decimal.NewFromInt(int64(n)))
	case IntervalPersonalized:
		selected, k := weekdaySet(s.Interval.Weekdays)
		if k == 0 {
			return start, true
		}
		weeks := rest.Div(decimal.NewFromInt(int64(k))).Floor()
		within := rest.Sub(weeks.Mul(decimal.NewFromInt(int64(k)))).IntPart()
		offset = weeks.Mul(decimal.NewFromInt(7)).
			Add(decimal.NewFromInt(int64(selectedDayOffset(start, selected, int(within)))))
	default:
		offset = rest
	}

	last := time.Date(LastDate.Year(), LastDate.Month(), LastDate.Day(), 0, 0, 0, 0, start.Location())
	if offset.GreaterThan(decimal.NewFromInt(daysBetween(start, last))) {
		return last, false
	}
	return start.AddDate(0, 0, int(offset.IntPart())), true
}

func startDate(s Schedule, now time.Time) time.Time {
	t := now
	if s.Duration.Start != nil {
		t = *s.Duration.Start
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func packAmount(r *fhir.Ratio) (decimal.Decimal, bool) {
	if r == nil || r.Numerator == nil {
		return decimal.Zero, false
	}
	return dosage.ParseAmount(r.Numerator.Value)
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int64 {
	day := func(t time.Time) int64 {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
	}
	return day(b) - day(a)
}

func weekdaySet(weekdays []time.Weekday) (selected [7]bool, n int) {
	for _, d := range weekdays {
		if d >= time.Sunday && d <= time.Saturday && !selected[d] {
			selected[d] = true
			n++
		}
	}
	return selected, n
}

// selectedDayOffset returns how many days after start (inclusive) the
// selected weekday with zero-based index i is reached. i is below the
// number of selected weekdays, so the result is under 7.
func selectedDayOffset(start time.Time, selected [7]bool, i int) int {
	seen := 0
	for off := 0; off < 7; off++ {
		if selected[(int(start.Weekday())+off)%7] {
			if seen == i {
				return off
			}
			seen++
		}
	}
	return 0
}

// FromInstruction builds a daily schedule for a parsed dosage instruction.
// Structured instructions get one notification per slot at its default
// clock time; external doses get none; everything else one morning dose.
func FromInstruction(in dosage.Instruction, amount *fhir.Ratio, start time.Time) Schedule {
	s := Schedule{
		Duration: Duration{Kind: DurationUntilEndOfPack, Start: &start},
		Interval: Daily(),
		Amount:   amount,
	}
	switch in.Kind {
	case dosage.KindExternal:
		s.Notifications = []Notification{}
	case dosage.KindStructured:
		for _, slot := range in.Slots() {
			ratio := slot.Amount
			if d, ok := dosage.ParseAmount(slot.Amount); ok {
				ratio = d.String()
			}
			s.Notifications = append(s.Notifications, Notification{Time: defaultTimes[slot.DayTime], Ratio: ratio})
		}
	default:
		s.Notifications = []Notification{{Time: defaultTimes[dosage.Morning], Ratio: "1"}}
	}
	return s
}
