package domain

import (
	"testing"
	"time"
)

func TestParseDeadline(t *testing.T) {
	cases := []struct {
		in   string
		want Deadline
		err  bool
	}{
		{in: "3", want: Deadline{Kind: DeadlineDays, Days: 3}},
		{in: " 14 ", want: Deadline{Kind: DeadlineDays, Days: 14}},
		{in: "until_original", want: Deadline{Kind: DeadlineUntilOriginal}},
		{in: "До дедлайна", want: Deadline{Kind: DeadlineUntilOriginal}},
		{in: "к защите в мае", want: Deadline{Kind: DeadlineFreeText, Text: "к защите в мае"}},
		{in: "0", err: true},
		{in: "-2", err: true},
		{in: "", err: true},
	}
	for _, tc := range cases {
		got, err := ParseDeadline(tc.in)
		if tc.err {
			if err == nil {
				t.Errorf("ParseDeadline(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDeadline(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDeadline(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestDeadlineResolve(t *testing.T) {
	now := time.Date(2024, 2, 27, 10, 0, 0, 0, time.UTC)
	if got := (Deadline{Kind: DeadlineDays, Days: 3}).Resolve(now, ""); got != "01.03.2024" {
		t.Errorf("days resolve = %q", got)
	}
	if got := (Deadline{Kind: DeadlineUntilOriginal}).Resolve(now, "15.04.2024"); got != "15.04.2024" {
		t.Errorf("until_original resolve = %q", got)
	}
	if got := (Deadline{Kind: DeadlineFreeText, Text: "после сессии"}).Resolve(now, "x"); got != "после сессии" {
		t.Errorf("free text resolve = %q", got)
	}
}

func TestPluralDays(t *testing.T) {
	cases := map[int]string{
		1:   "день",
		2:   "дня",
		4:   "дня",
		5:   "дней",
		11:  "дней",
		12:  "дней",
		14:  "дней",
		21:  "день",
		22:  "дня",
		25:  "дней",
		111: "дней",
	}
	for n, want := range cases {
		if got := PluralDays(n); got != want {
			t.Errorf("PluralDays(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestDeadlineString(t *testing.T) {
	if got := (Deadline{Kind: DeadlineDays, Days: 2}).String(); got != "2 дня" {
		t.Errorf("String() = %q", got)
	}
	if got := (Deadline{Kind: DeadlineUntilOriginal}).String(); got != "до дедлайна заказчика" {
		t.Errorf("String() = %q", got)
	}
}
