package duration

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve_MonthClampsToEndOfFebruary(t *testing.T) {
	end, ok := Resolve(date(2024, time.January, 31), "1 month")
	if !ok {
		t.Fatalf("expected ok, got malformed")
	}
	if want := date(2024, time.February, 29); !end.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format("2006-01-02"), end.Format("2006-01-02"))
	}
}

func TestResolve_MonthClampsInNonLeapYear(t *testing.T) {
	end, ok := Resolve(date(2023, time.January, 31), "1 month")
	if !ok {
		t.Fatalf("expected ok, got malformed")
	}
	if want := date(2023, time.February, 28); !end.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format("2006-01-02"), end.Format("2006-01-02"))
	}
}

func TestResolve_Weeks(t *testing.T) {
	end, ok := Resolve(date(2024, time.January, 15), "2 weeks")
	if !ok {
		t.Fatalf("expected ok, got malformed")
	}
	if want := date(2024, time.January, 29); !end.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format("2006-01-02"), end.Format("2006-01-02"))
	}
}

func TestResolve_YearCrossesLeapDay(t *testing.T) {
	end, ok := Resolve(date(2024, time.February, 29), "1 year")
	if !ok {
		t.Fatalf("expected ok, got malformed")
	}
	if want := date(2025, time.February, 28); !end.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format("2006-01-02"), end.Format("2006-01-02"))
	}
}

func TestResolve_AcceptsCompactAndMixedCase(t *testing.T) {
	cases := []struct {
		input string
		want  time.Time
	}{
		{"10day", date(2024, time.March, 11)},
		{"10 Days", date(2024, time.March, 11)},
		{"1WEEK", date(2024, time.March, 8)},
		{"6 months", date(2024, time.September, 1)},
	}

	start := date(2024, time.March, 1)
	for _, tc := range cases {
		end, ok := Resolve(start, tc.input)
		if !ok {
			t.Fatalf("%q: expected ok, got malformed", tc.input)
		}
		if !end.Equal(tc.want) {
			t.Fatalf("%q: expected %s, got %s", tc.input, tc.want.Format("2006-01-02"), end.Format("2006-01-02"))
		}
	}
}

func TestResolve_MalformedReturnsNotOK(t *testing.T) {
	for _, input := range []string{"", "soon", "three months", "-2 weeks", "2 fortnights", "month"} {
		if _, ok := Resolve(date(2024, time.January, 1), input); ok {
			t.Fatalf("%q: expected malformed, got ok", input)
		}
	}
}
