package layout

import (
	"testing"

	"github.com/youruser/matchboard/internal/matches"
)

func match(id, date, clock string) matches.Match {
	return matches.Match{ID: id, Date: date, Time: clock}
}

func ids(ms []matches.Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func assertOrder(t *testing.T, label string, got []matches.Match, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("%s: got %v, want %v", label, g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("%s: got %v, want %v", label, g, want)
		}
	}
}

func TestCanvasHeight(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 90 + 100 + 30 + 15},
		{1, 90 + 92 + 30 + 15},
		{2, 90 + 184 + 30 + 15},
		{10, 90 + 920 + 30 + 15},
	}
	for _, tc := range tests {
		if got := CanvasHeight(tc.n); got != tc.want {
			t.Errorf("CanvasHeight(%d) = %d, want %d", tc.n, got, tc.want)
		}
		ms := make([]matches.Match, tc.n)
		plan := ComputePlan(ms, "Schedule")
		if plan.Height != tc.want || plan.Width != CanvasWidth {
			t.Errorf("ComputePlan(%d matches) = %dx%d, want %dx%d", tc.n, plan.Width, plan.Height, CanvasWidth, tc.want)
		}
		if len(plan.Rows) != tc.n {
			t.Errorf("ComputePlan(%d matches) has %d rows", tc.n, len(plan.Rows))
		}
	}
}

func TestSortByDate(t *testing.T) {
	got := SortMatches([]matches.Match{
		match("c", "2025-06-01T20:00:00Z", ""),
		match("a", "2025-06-01T14:00:00Z", ""),
		match("b", "2025-06-01T18:00:00+02:00", ""),
	})
	assertOrder(t, "dates", got, "a", "b", "c")
}

func TestSortByTime(t *testing.T) {
	got := SortMatches([]matches.Match{
		match("late", "", "21:30"),
		match("early", "", "9:05"),
		match("mid", "", "18:00"),
		match("hour", "", "18"),
	})
	assertOrder(t, "times", got, "early", "mid", "hour", "late")
}

func TestSortKeepsOrderWithoutSharedKey(t *testing.T) {
	got := SortMatches([]matches.Match{
		match("x", "", ""),
		match("y", "2025-06-01T14:00:00Z", ""),
		match("z", "", ""),
	})
	assertOrder(t, "no keys", got, "x", "y", "z")

	got = SortMatches([]matches.Match{
		match("bad1", "", "soon"),
		match("bad2", "", "later"),
	})
	assertOrder(t, "unparsable times", got, "bad1", "bad2")

	got = SortMatches([]matches.Match{
		match("p", "not a date", ""),
		match("q", "2025-06-01T14:00:00Z", ""),
	})
	assertOrder(t, "unparsable date", got, "p", "q")
}

func TestSortIsStableForEqualKeys(t *testing.T) {
	got := SortMatches([]matches.Match{
		match("first", "", "18:00"),
		match("second", "", "18:00"),
		match("earlier", "", "17:00"),
	})
	assertOrder(t, "ties", got, "earlier", "first", "second")
}

func TestSortDoesNotMutateInput(t *testing.T) {
	in := []matches.Match{match("b", "", "20:00"), match("a", "", "10:00")}
	SortMatches(in)
	assertOrder(t, "input", in, "b", "a")
}

func TestComputePlanRowGeometry(t *testing.T) {
	plan := ComputePlan([]matches.Match{{
		Time:       "18:00",
		Tournament: "Major",
		Team1:      matches.Team{Name: "Natus Vincere"},
		Team2:      matches.Team{Name: "FaZe"},
	}}, "Watch Party Schedule")

	if plan.Title != "Watch Party Schedule" {
		t.Errorf("title = %q", plan.Title)
	}
	if want := (Anchor{X: 1176, Y: 60, Align: AlignRight}); plan.TitleAnchor != want {
		t.Errorf("title anchor = %+v, want %+v", plan.TitleAnchor, want)
	}

	row := plan.Rows[0]
	if want := (Rect{X: 24, Y: 115, W: 1152, H: 72}); row.Box != want {
		t.Errorf("box = %+v, want %+v", row.Box, want)
	}
	if row.Radius != 16 {
		t.Errorf("radius = %g", row.Radius)
	}
	if want := (Anchor{X: 62, Y: 151, Align: AlignLeft}); row.Time != want {
		t.Errorf("time = %+v, want %+v", row.Time, want)
	}
	if row.CenterX != 628 {
		t.Errorf("center = %g, want 628", row.CenterX)
	}
	if want := (Anchor{X: 628, Y: 151, Align: AlignCenter}); row.VS != want {
		t.Errorf("vs = %+v, want %+v", row.VS, want)
	}
	if want := (Rect{X: 499, Y: 126.5, W: 49, H: 49}); row.Team1.Logo != want {
		t.Errorf("team1 logo = %+v, want %+v", row.Team1.Logo, want)
	}
	if want := (Rect{X: 708, Y: 126.5, W: 49, H: 49}); row.Team2.Logo != want {
		t.Errorf("team2 logo = %+v, want %+v", row.Team2.Logo, want)
	}
	if want := (Anchor{X: 458.5, Y: 151, Align: AlignRight}); row.Team1.Name != want {
		t.Errorf("team1 name = %+v, want %+v", row.Team1.Name, want)
	}
	if want := (Anchor{X: 773, Y: 151, Align: AlignLeft}); row.Team2.Name != want {
		t.Errorf("team2 name = %+v, want %+v", row.Team2.Name, want)
	}
	if want := (Anchor{X: 1152, Y: 151, Align: AlignRight}); row.Tournament != want {
		t.Errorf("tournament = %+v, want %+v", row.Tournament, want)
	}
	if row.Team1.NameMaxWidth != 300 || row.Team2.NameMaxWidth != 300 {
		t.Errorf("name widths = %g, %g", row.Team1.NameMaxWidth, row.Team2.NameMaxWidth)
	}
}

func TestLogosSymmetricAboutCenter(t *testing.T) {
	plan := ComputePlan(make([]matches.Match, 3), "")
	for i, row := range plan.Rows {
		left := row.CenterX - (row.Team1.Logo.X + row.Team1.Logo.W/2)
		right := (row.Team2.Logo.X + row.Team2.Logo.W/2) - row.CenterX
		if left != right || left != CenterGap+LogoSize/2.0 {
			t.Errorf("row %d: offsets %g / %g", i, left, right)
		}
		if want := 105 + float64(i)*92 + 46; row.Time.Y != want {
			t.Errorf("row %d: center y = %g, want %g", i, row.Time.Y, want)
		}
	}
}

func TestRowsFollowSortedOrder(t *testing.T) {
	plan := ComputePlan([]matches.Match{
		match("second", "", "20:00"),
		match("first", "", "12:00"),
	}, "")
	if plan.Rows[0].Match.ID != "first" || plan.Rows[1].Match.ID != "second" {
		t.Errorf("rows = %s, %s", plan.Rows[0].Match.ID, plan.Rows[1].Match.ID)
	}
}
