// Package pandascore pulls upcoming matches from the PandaScore REST API.
package pandascore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/youruser/matchboard/internal/config"
	"github.com/youruser/matchboard/internal/constants"
	"github.com/youruser/matchboard/internal/matches"
)

const DefaultBaseURL = "https://api.pandascore.co"

var ErrNoAPIKey = errors.New("pandascore api key not configured")

type Client struct {
	apiKey  string
	game    string
	baseURL string
	loc     *time.Location
	client  *fasthttp.Client
	logger  zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return New(cfg.PandaScoreAPIKey, cfg.PandaScoreGame, DefaultBaseURL, cfg.Location, logger)
}

func New(apiKey, game, baseURL string, loc *time.Location, logger zerolog.Logger) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		apiKey:  apiKey,
		game:    game,
		baseURL: baseURL,
		loc:     loc,
		client: &fasthttp.Client{
			MaxConnsPerHost:     10,
			ReadTimeout:         constants.FetchTimeout,
			WriteTimeout:        constants.FetchTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Upcoming returns the matches starting within the next 48 hours of now,
// soonest first.
func (c *Client) Upcoming(ctx context.Context, now time.Time) ([]matches.Match, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/%s/matches/upcoming", c.baseURL, c.game))
	args := req.URI().QueryArgs()
	args.Add("range[begin_at]", now.UTC().Format(time.RFC3339)+","+now.Add(constants.UpcomingWindow).UTC().Format(time.RFC3339))
	args.Add("sort", "begin_at")
	args.Add("per_page", strconv.Itoa(constants.UpcomingPerPage))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.FetchTimeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("pandascore request: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("pandascore API error: %d", resp.StatusCode())
	}

	var raw []apiMatch
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("pandascore decode: %w", err)
	}

	out := make([]matches.Match, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.toMatch(c.loc))
	}
	c.logger.Info().Int("count", len(out)).Str("game", c.game).Msg("fetched upcoming matches")
	return out, nil
}

type apiMatch struct {
	ID            int64        `json:"id"`
	BeginAt       *time.Time   `json:"begin_at"`
	MatchType     string       `json:"match_type"`
	NumberOfGames int          `json:"number_of_games"`
	Status        string       `json:"status"`
	League        apiNamed     `json:"league"`
	Opponents     []apiOpposer `json:"opponents"`
}

type apiNamed struct {
	Name string `json:"name"`
}

type apiOpposer struct {
	Opponent struct {
		Name     string `json:"name"`
		ImageURL string `json:"image_url"`
	} `json:"opponent"`
}

func (m apiMatch) team(i int) matches.Team {
	if i >= len(m.Opponents) {
		return matches.Team{}
	}
	o := m.Opponents[i].Opponent
	return matches.Team{Name: o.Name, Logo: o.ImageURL}
}

func (m apiMatch) toMatch(loc *time.Location) matches.Match {
	out := matches.Match{
		ID:         strconv.FormatInt(m.ID, 10),
		Tournament: m.League.Name,
		Format:     formatLabel(m.MatchType, m.NumberOfGames),
		Status:     "upcoming",
		Team1:      m.team(0),
		Team2:      m.team(1),
	}
	if m.BeginAt != nil {
		out.Date = m.BeginAt.UTC().Format(time.RFC3339)
		out.Time = m.BeginAt.In(loc).Format("15:04")
	}
	return out
}

func formatLabel(matchType string, games int) string {
	if matchType == "best_of" && games > 0 {
		return "Bo" + strconv.Itoa(games)
	}
	return matchType
}
