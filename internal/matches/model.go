package matches

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DefaultLabel is shown wherever a team name or match time is missing.
const DefaultLabel = "TBD"

type Team struct {
	Name string `json:"name,omitempty"`
	Logo string `json:"logo,omitempty"`
}

// DisplayName returns the team name, or "TBD" when it is empty.
func (t Team) DisplayName() string {
	if t.Name == "" {
		return DefaultLabel
	}
	return t.Name
}

// Match is one scheduled game. Empty strings mean the field is absent.
type Match struct {
	ID         string `json:"id,omitempty"`
	Time       string `json:"time,omitempty"`
	Date       string `json:"date,omitempty"`
	Tournament string `json:"tournament,omitempty"`
	Format     string `json:"format,omitempty"`
	Link       string `json:"link,omitempty"`
	Status     string `json:"status,omitempty"`
	Team1      Team   `json:"team1"`
	Team2      Team   `json:"team2"`
}

// TimeLabel returns the match time, or "TBD" when it is empty.
func (m Match) TimeLabel() string {
	if m.Time == "" {
		return DefaultLabel
	}
	return m.Time
}

// UnmarshalJSON accepts both string and numeric ids and falls back to the
// "event" field for the tournament name, which is how upcoming matches are
// stored by the refresh job.
func (m *Match) UnmarshalJSON(data []byte) error {
	type plain Match
	var raw struct {
		plain
		ID    json.RawMessage `json:"id,omitempty"`
		Event string          `json:"event,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Match(raw.plain)
	m.ID = rawID(raw.ID)
	if m.Tournament == "" {
		m.Tournament = raw.Event
	}
	return nil
}

func rawID(b json.RawMessage) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	return strings.Trim(string(b), `"`)
}

// LogoURLs lists the logo of every team in order, skipping empty ones.
func LogoURLs(ms []Match) []string {
	var out []string
	for _, m := range ms {
		if m.Team1.Logo != "" {
			out = append(out, m.Team1.Logo)
		}
		if m.Team2.Logo != "" {
			out = append(out, m.Team2.Logo)
		}
	}
	return out
}

// TeamNames lists the non-empty team names in order.
func TeamNames(ms []Match) []string {
	var out []string
	for _, m := range ms {
		if m.Team1.Name != "" {
			out = append(out, m.Team1.Name)
		}
		if m.Team2.Name != "" {
			out = append(out, m.Team2.Name)
		}
	}
	return out
}

// Selection is the operator's current pick of matches, as persisted in
// selected_matches.json.
type Selection struct {
	Selected []Match `json:"selected_matches"`
	Parallel []Match `json:"parallel_matches"`
}
