package layout

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/youruser/matchboard/internal/matches"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// clockMinutes converts "HH:MM" to minutes since midnight. Empty parts count
// as zero; anything non-numeric makes the whole value unusable.
func clockMinutes(s string) (float64, bool) {
	parts := strings.Split(s, ":")
	num := func(p string) (float64, bool) {
		p = strings.TrimSpace(p)
		if p == "" {
			return 0, true
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(v) {
			return 0, false
		}
		return v, true
	}
	h, ok := num(parts[0])
	if !ok {
		return 0, false
	}
	var m float64
	if len(parts) > 1 {
		if m, ok = num(parts[1]); !ok {
			return 0, false
		}
	}
	return h*60 + m, true
}

// compareMatches orders two matches by date when both have one, else by
// clock time when both have one. Every other pair, and any pair whose
// values do not parse, compares equal.
func compareMatches(a, b matches.Match) int {
	if a.Date != "" && b.Date != "" {
		ta, okA := parseDate(a.Date)
		tb, okB := parseDate(b.Date)
		if !okA || !okB {
			return 0
		}
		return ta.Compare(tb)
	}
	if a.Time != "" && b.Time != "" {
		ma, okA := clockMinutes(a.Time)
		mb, okB := clockMinutes(b.Time)
		if !okA || !okB {
			return 0
		}
		switch {
		case ma < mb:
			return -1
		case ma > mb:
			return 1
		}
	}
	return 0
}

// SortMatches returns a chronologically ordered copy of ms. The sort is
// stable, so pairs without a shared ordering key keep their input order.
func SortMatches(ms []matches.Match) []matches.Match {
	out := slices.Clone(ms)
	slices.SortStableFunc(out, compareMatches)
	return out
}
