package dosage

import (
	"fmt"
	"sort"
)

// DayTime is a dosing slot of the day, ordered from morning to night.
type DayTime int

const (
	Morning DayTime = iota
	Noon
	Evening
	Night
)

var dayTimeNames = [...]string{"morning", "noon", "evening", "night"}

func (d DayTime) String() string {
	if d < Morning || d > Night {
		return fmt.Sprintf("daytime(%d)", int(d))
	}
	return dayTimeNames[d]
}

func (d DayTime) MarshalText() ([]byte, error) {
	if d < Morning || d > Night {
		return nil, fmt.Errorf("invalid day time %d", int(d))
	}
	return []byte(dayTimeNames[d]), nil
}

func (d *DayTime) UnmarshalText(text []byte) error {
	for i, name := range dayTimeNames {
		if string(text) == name {
			*d = DayTime(i)
			return nil
		}
	}
	return fmt.Errorf("invalid day time %q", string(text))
}

// Kind discriminates the variants of an Instruction.
type Kind string

const (
	KindEmpty      Kind = "empty"
	KindFreeText   Kind = "free-text"
	KindStructured Kind = "structured"
	KindExternal   Kind = "external"
)

// Instruction is a parsed dosage instruction. Text is set for FreeText and
// Structured; Interpretation only for Structured, where it holds at least
// one non-zero amount.
type Instruction struct {
	Kind           Kind               `json:"kind"`
	Text           string             `json:"text,omitempty"`
	Interpretation map[DayTime]string `json:"interpretation,omitempty"`
}

func Empty() Instruction    { return Instruction{Kind: KindEmpty} }
func External() Instruction { return Instruction{Kind: KindExternal} }

func FreeText(text string) Instruction {
	return Instruction{Kind: KindFreeText, Text: text}
}

func Structured(text string, interpretation map[DayTime]string) Instruction {
	return Instruction{Kind: KindStructured, Text: text, Interpretation: interpretation}
}

// Slot is one day time with its amount.
type Slot struct {
	DayTime DayTime `json:"day_time"`
	Amount  string  `json:"amount"`
}

// Slots returns the interpretation ordered by day time.
func (i Instruction) Slots() []Slot {
	slots := make([]Slot, 0, len(i.Interpretation))
	for dt, amount := range i.Interpretation {
		slots = append(slots, Slot{DayTime: dt, Amount: amount})
	}
	sort.Slice(slots, func(a, b int) bool { return slots[a].DayTime < slots[b].DayTime })
	return slots
}

// Equal reports whether two instructions are the same variant with the same
// content.
func (i Instruction) Equal(o Instruction) bool {
	if i.Kind != o.Kind || i.Text != o.Text || len(i.Interpretation) != len(o.Interpretation) {
		return false
	}
	for dt, amount := range i.Interpretation {
		if other, ok := o.Interpretation[dt]; !ok || other != amount {
			return false
		}
	}
	return true
}
