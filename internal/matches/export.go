package matches

import "strings"

// ExportText renders a schedule as plain text, one match per line, in the
// order given. The title line is omitted when empty.
func ExportText(title string, ms []Match) string {
	lines := []string{}
	if title != "" {
		lines = append(lines, "# "+title)
	}
	for _, m := range ms {
		line := m.TimeLabel() + "  " + m.Team1.DisplayName() + " vs " + m.Team2.DisplayName()
		if m.Tournament != "" {
			line += "  (" + m.Tournament + ")"
		}
		if m.Format != "" {
			line += " " + m.Format
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	return strings.Join(lines, "\n")
}
