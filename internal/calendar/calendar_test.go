package calendar

import (
	"testing"
	"time"
)

func TestWeeksSplitOnMonday(t *testing.T) {
	start, _ := ParseDate("2025-03-05") // Wednesday
	end, _ := ParseDate("2025-03-18")   // Tuesday
	weeks, err := Weeks(start, end)
	if err != nil {
		t.Fatalf("weeks: %v", err)
	}
	if len(weeks) != 3 {
		t.Fatalf("got %d weeks, want 3", len(weeks))
	}
	if got := weeks[0].Start.Format(time.DateOnly); got != "2025-03-03" {
		t.Fatalf("first week starts %s", got)
	}
	if len(weeks[0].Days) != 5 || len(weeks[1].Days) != 7 || len(weeks[2].Days) != 2 {
		t.Fatalf("days per week: %d %d %d", len(weeks[0].Days), len(weeks[1].Days), len(weeks[2].Days))
	}
	if weeks[0].Days[0].Weekday() != time.Wednesday {
		t.Fatalf("first day is %s", weeks[0].Days[0].Weekday())
	}
	if weeks[2].Number != 3 {
		t.Fatalf("week number %d", weeks[2].Number)
	}
}

func TestWeeksRejectsReversedRange(t *testing.T) {
	start, _ := ParseDate("2025-03-05")
	end, _ := ParseDate("2025-03-01")
	if _, err := Weeks(start, end); err == nil {
		t.Fatal("expected error")
	}
}

func TestSingleSundayRange(t *testing.T) {
	d, _ := ParseDate("2025-03-09")
	weeks, err := Weeks(d, d)
	if err != nil {
		t.Fatalf("weeks: %v", err)
	}
	if len(weeks) != 1 || len(weeks[0].Days) != 1 || weeks[0].Start.Format(time.DateOnly) != "2025-03-03" {
		t.Fatalf("unexpected %+v", weeks)
	}
}

func TestParseDateError(t *testing.T) {
	if _, err := ParseDate("03/05/2025"); err == nil {
		t.Fatal("expected error")
	}
}
