package domain

import (
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-08-26T15:04:05Z", "2026-08-24"}, // Wednesday → Monday
		{"2026-08-24T00:00:00Z", "2026-08-24"}, // Monday stays
		{"2026-08-30T23:59:59Z", "2026-08-24"}, // Sunday belongs to the prior Monday
	}
	for _, tc := range cases {
		in, err := time.Parse(time.RFC3339, tc.in)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.in, err)
		}
		if got := WeekStart(in).Format("2006-01-02"); got != tc.want {
			t.Fatalf("WeekStart(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMergeFrequencyAccumulatesAndBounds(t *testing.T) {
	existing := []RankedItem{{Name: "biscuits", Count: 3}, {Name: "dairy", Count: 1}}

	merged := MergeFrequency(existing, []string{"dairy", "dairy", "snacks"}, 2)
	if len(merged) != 2 {
		t.Fatalf("expected ranking bounded to 2, got %d", len(merged))
	}
	if merged[0].Name != "biscuits" || merged[0].Count != 3 {
		t.Fatalf("unexpected top entry: %+v", merged[0])
	}
	if merged[1].Name != "dairy" || merged[1].Count != 3 {
		t.Fatalf("expected dairy to accumulate to 3, got %+v", merged[1])
	}
}

func TestMergeFrequencyTieBreaksAlphabetically(t *testing.T) {
	merged := MergeFrequency(nil, []string{"b", "a"}, 10)
	if merged[0].Name != "a" || merged[1].Name != "b" {
		t.Fatalf("ties should rank alphabetically, got %+v", merged)
	}
}

func TestMergeFrequencySkipsEmptyNames(t *testing.T) {
	merged := MergeFrequency(nil, []string{"", "staples"}, 10)
	if len(merged) != 1 || merged[0].Name != "staples" {
		t.Fatalf("empty names must be skipped, got %+v", merged)
	}
}

func TestMergeSignals(t *testing.T) {
	s := MergeSignals(Signals{}, 80, 2)
	s = MergeSignals(s, 60, 1)

	if s.ScanCount != 2 || s.StockoutCount != 3 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.AvgShelfHealth != 70 {
		t.Fatalf("expected average 70, got %f", s.AvgShelfHealth)
	}
}
