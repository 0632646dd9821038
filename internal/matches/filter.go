package matches

import "strings"

// FilterOptions narrows a match list. Empty fields do not filter.
type FilterOptions struct {
	Teams       []string
	Tournaments []string
	FreeWords   string
}

func containsAny(hay []string, needles []string) bool {
	for _, n := range needles {
		n = strings.ToLower(n)
		for _, h := range hay {
			if strings.Contains(strings.ToLower(h), n) {
				return true
			}
		}
	}
	return false
}

// Filter keeps the matches that satisfy every option. Team and tournament
// lists match case-insensitively on substrings; every free word must appear
// in a team name or the tournament.
func Filter(ms []Match, opt FilterOptions) []Match {
	out := []Match{}
	for _, m := range ms {
		teams := []string{m.Team1.Name, m.Team2.Name}
		if len(opt.Teams) > 0 && !containsAny(teams, opt.Teams) {
			continue
		}
		if len(opt.Tournaments) > 0 && !containsAny([]string{m.Tournament}, opt.Tournaments) {
			continue
		}
		if opt.FreeWords != "" {
			hay := strings.ToLower(strings.Join(append(teams, m.Tournament), " "))
			ok := true
			for _, k := range strings.Fields(opt.FreeWords) {
				if !strings.Contains(hay, strings.ToLower(k)) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}
