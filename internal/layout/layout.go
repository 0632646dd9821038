// Package layout turns a match list into a render plan: the canvas size and
// the position of every element the compositor paints. It does no drawing
// and needs no fonts; text that depends on font metrics carries a maximum
// width instead.
package layout

import "github.com/youruser/matchboard/internal/matches"

// Rendering constants, in pixels. Golden images depend on these values.
const (
	CanvasWidth      = 1200
	TitleHeight      = 90
	RowHeight        = 92 // row box plus the gap below it
	RowBoxHeight     = 72
	RowPadding       = 24
	CornerRadius     = 16
	LogoSize         = 49
	LogoGap          = 16
	CenterGap        = 80
	TimeZoneWidth    = 180
	TournamentWidth  = 200
	TimeInset        = 38
	NameMaxWidth     = 300
	RowsOffset       = 15
	BottomPadding    = 30
	MinMatchesHeight = 100
	TitleMargin      = 24
)

// Align is the horizontal alignment of a text anchor. Text is always
// vertically centered on the anchor.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

type Rect struct {
	X, Y, W, H float64
}

type Anchor struct {
	X, Y  float64
	Align Align
}

// TeamSlot places one team: the square logo slot and the name anchor.
type TeamSlot struct {
	Logo         Rect
	Name         Anchor
	NameMaxWidth float64
}

// Row is the geometry of one match row.
type Row struct {
	Match      matches.Match
	Box        Rect
	Radius     float64
	CenterX    float64
	Time       Anchor
	VS         Anchor
	Team1      TeamSlot
	Team2      TeamSlot
	Tournament Anchor
}

// Plan is the full geometry of one schedule graphic.
type Plan struct {
	Width       int
	Height      int
	Title       string
	TitleAnchor Anchor
	Rows        []Row
}

// CanvasHeight returns the canvas height for n rows.
func CanvasHeight(n int) int {
	rows := n * RowHeight
	if n == 0 {
		rows = MinMatchesHeight
	}
	return TitleHeight + rows + BottomPadding + RowsOffset
}

// ComputePlan sorts ms chronologically and lays out the title and one row
// per match.
func ComputePlan(ms []matches.Match, title string) Plan {
	sorted := SortMatches(ms)
	plan := Plan{
		Width:  CanvasWidth,
		Height: CanvasHeight(len(sorted)),
		Title:  title,
		TitleAnchor: Anchor{
			X:     CanvasWidth - TitleMargin,
			Y:     TitleHeight/2 + RowsOffset,
			Align: AlignRight,
		},
		Rows: make([]Row, 0, len(sorted)),
	}
	for i, m := range sorted {
		cy := float64(TitleHeight+RowsOffset+i*RowHeight) + RowHeight/2.0
		plan.Rows = append(plan.Rows, computeRow(m, cy))
	}
	return plan
}

func computeRow(m matches.Match, cy float64) Row {
	const (
		rowX     = RowPadding
		rowWidth = CanvasWidth - 2*RowPadding
		timeX    = rowX + TimeInset
		contentX = timeX + TimeZoneWidth
		contentW = rowWidth - TimeZoneWidth - TournamentWidth
		half     = LogoSize / 2.0
	)
	centerX := contentX + contentW/2.0
	team1X := centerX - CenterGap - half
	team2X := centerX + CenterGap + half

	return Row{
		Match:   m,
		Box:     Rect{X: rowX, Y: cy - RowBoxHeight/2.0, W: rowWidth, H: RowBoxHeight},
		Radius:  CornerRadius,
		CenterX: centerX,
		Time:    Anchor{X: timeX, Y: cy, Align: AlignLeft},
		VS:      Anchor{X: centerX, Y: cy, Align: AlignCenter},
		Team1: TeamSlot{
			Logo:         Rect{X: team1X - half, Y: cy - half, W: LogoSize, H: LogoSize},
			Name:         Anchor{X: team1X - LogoSize - LogoGap, Y: cy, Align: AlignRight},
			NameMaxWidth: NameMaxWidth,
		},
		Team2: TeamSlot{
			Logo:         Rect{X: team2X - half, Y: cy - half, W: LogoSize, H: LogoSize},
			Name:         Anchor{X: team2X + half + LogoGap, Y: cy, Align: AlignLeft},
			NameMaxWidth: NameMaxWidth,
		},
		Tournament: Anchor{X: CanvasWidth - 2*RowPadding, Y: cy, Align: AlignRight},
	}
}
