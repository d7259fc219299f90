package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DeadlineKind discriminates the three forms an executor deadline takes.
type DeadlineKind string

const (
	DeadlineDays          DeadlineKind = "days"
	DeadlineUntilOriginal DeadlineKind = "until_original"
	DeadlineFreeText      DeadlineKind = "free_text"
)

// Deadline is the executor-proposed completion term. Days carries a
// day count, UntilOriginal means "by the client's stated date", and
// FreeText is kept verbatim. It stays symbolic until the offer is
// approved; Resolve pins it to a concrete date at that moment.
type Deadline struct {
	Kind DeadlineKind `json:"kind" enum:"days,until_original,free_text"`
	Days int          `json:"days,omitempty"`
	Text string       `json:"text,omitempty"`
}

// ParseDeadline interprets user input: a bare integer means a day count,
// the sentinel "until_original" (or the button caption "До дедлайна")
// means the client's date, anything else is free text.
func ParseDeadline(s string) (Deadline, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Deadline{}, fmt.Errorf("deadline is empty")
	}
	if s == string(DeadlineUntilOriginal) || s == "До дедлайна" {
		return Deadline{Kind: DeadlineUntilOriginal}, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return Deadline{}, fmt.Errorf("deadline days must be positive, got %d", n)
		}
		return Deadline{Kind: DeadlineDays, Days: n}, nil
	}
	return Deadline{Kind: DeadlineFreeText, Text: s}, nil
}

// Resolve pins the deadline to a display date. A day count becomes
// now+N days in dd.mm.yyyy; until-original echoes the client's stated
// date; free text passes through unchanged.
func (d Deadline) Resolve(now time.Time, clientDeadline string) string {
	switch d.Kind {
	case DeadlineDays:
		return now.AddDate(0, 0, d.Days).Format("02.01.2006")
	case DeadlineUntilOriginal:
		return clientDeadline
	default:
		return d.Text
	}
}

// String renders the deadline for notifications and tables.
func (d Deadline) String() string {
	switch d.Kind {
	case DeadlineDays:
		return fmt.Sprintf("%d %s", d.Days, PluralDays(d.Days))
	case DeadlineUntilOriginal:
		return "до дедлайна заказчика"
	default:
		return d.Text
	}
}

// PluralDays picks the Russian plural form for a day count.
func PluralDays(n int) string {
	if n < 0 {
		n = -n
	}
	switch {
	case n%100 >= 11 && n%100 <= 14:
		return "дней"
	case n%10 == 1:
		return "день"
	case n%10 >= 2 && n%10 <= 4:
		return "дня"
	default:
		return "дней"
	}
}
