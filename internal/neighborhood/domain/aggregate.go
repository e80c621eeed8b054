// Package domain maintains per-pincode weekly demand rollups across
// all stores in an area. Rollups accumulate in place: every completed scan is
// folded into the (pincode, week) row exactly once.
package domain

import (
	"sort"
	"time"
)

// Bounded ranking sizes for the rollup.
const (
	TopCategoriesK    = 8
	StockoutProductsK = 10
)

// RankedItem is one entry in a frequency ranking.
type RankedItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Signals are the generic demand metrics for a (pincode, week) window.
type Signals struct {
	ScanCount      int     `json:"scanCount"`
	HealthSum      int     `json:"healthSum"`
	AvgShelfHealth float64 `json:"avgShelfHealth"`
	StockoutCount  int     `json:"stockoutCount"`
}

// WeekStart truncates t to the Monday of its ISO week, in UTC.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := t.AddDate(0, 0, 1-weekday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}

// MergeFrequency folds new observations into an existing ranking and returns
// the bounded top-K result. Ties rank alphabetically so reruns over the same
// data produce identical output.
func MergeFrequency(existing []RankedItem, additions []string, k int) []RankedItem {
	freq := make(map[string]int, len(existing)+len(additions))
	for _, item := range existing {
		freq[item.Name] = item.Count
	}
	for _, name := range additions {
		if name == "" {
			continue
		}
		freq[name]++
	}

	ranked := make([]RankedItem, 0, len(freq))
	for name, count := range freq {
		ranked = append(ranked, RankedItem{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// MergeSignals folds one scan's metrics into the window's signals.
func MergeSignals(existing Signals, healthScore, stockouts int) Signals {
	existing.ScanCount++
	existing.HealthSum += healthScore
	existing.StockoutCount += stockouts
	existing.AvgShelfHealth = float64(existing.HealthSum) / float64(existing.ScanCount)
	return existing
}
