// Package store persists the operator's match selection and the cached
// upcoming-matches list in sqlite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/youruser/matchboard/internal/matches"
)

const (
	listSelected = "selected"
	listParallel = "parallel"
)

type MatchStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchStore(db *sql.DB, logger zerolog.Logger) *MatchStore {
	return &MatchStore{db: db, logger: logger}
}

// ReplaceSelection swaps the stored selection for sel in one transaction.
func (s *MatchStore) ReplaceSelection(ctx context.Context, sel matches.Selection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM selected_matches`); err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}
	lists := []struct {
		name string
		ms   []matches.Match
	}{
		{listSelected, sel.Selected},
		{listParallel, sel.Parallel},
	}
	for _, l := range lists {
		for i, m := range l.ms {
			id, payload, err := encodeRow(m)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO selected_matches (id, list, position, payload) VALUES (?, ?, ?, ?)`,
				id, l.name, i, payload)
			if err != nil {
				return fmt.Errorf("failed to insert selected match: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit selection: %w", err)
	}

	s.logger.Info().
		Int("selected", len(sel.Selected)).
		Int("parallel", len(sel.Parallel)).
		Msg("selection saved")
	return nil
}

// Selection returns the stored selection. Both lists are non-nil.
func (s *MatchStore) Selection(ctx context.Context) (matches.Selection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT list, payload FROM selected_matches ORDER BY list, position`)
	if err != nil {
		return matches.Selection{}, fmt.Errorf("failed to query selection: %w", err)
	}
	defer rows.Close()

	sel := matches.Selection{Selected: []matches.Match{}, Parallel: []matches.Match{}}
	for rows.Next() {
		var list, payload string
		if err := rows.Scan(&list, &payload); err != nil {
			return matches.Selection{}, fmt.Errorf("failed to scan selected match: %w", err)
		}
		m, ok := s.decodeRow(payload)
		if !ok {
			continue
		}
		if list == listParallel {
			sel.Parallel = append(sel.Parallel, m)
		} else {
			sel.Selected = append(sel.Selected, m)
		}
	}
	return sel, rows.Err()
}

// ReplaceUpcoming swaps the cached upcoming matches for ms.
func (s *MatchStore) ReplaceUpcoming(ctx context.Context, ms []matches.Match) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM upcoming_matches`); err != nil {
		return fmt.Errorf("failed to clear upcoming matches: %w", err)
	}
	for i, m := range ms {
		id, payload, err := encodeRow(m)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO upcoming_matches (id, match_id, begin_at, position, payload) VALUES (?, ?, ?, ?, ?)`,
			id, m.ID, nullString(m.Date), i, payload)
		if err != nil {
			return fmt.Errorf("failed to insert upcoming match: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upcoming matches: %w", err)
	}

	s.logger.Info().Int("count", len(ms)).Msg("upcoming matches saved")
	return nil
}

// Upcoming returns the cached upcoming matches in the order they were saved.
func (s *MatchStore) Upcoming(ctx context.Context) ([]matches.Match, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM upcoming_matches ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming matches: %w", err)
	}
	defer rows.Close()

	out := []matches.Match{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan upcoming match: %w", err)
		}
		if m, ok := s.decodeRow(payload); ok {
			out = append(out, m)
		}
	}
	return out, rows.Err()
}

func encodeRow(m matches.Match) (id, payload string, err error) {
	id, err = gonanoid.New()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate nanoid: %w", err)
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode match: %w", err)
	}
	return id, string(b), nil
}

func (s *MatchStore) decodeRow(payload string) (matches.Match, bool) {
	var m matches.Match
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		s.logger.Warn().Err(err).Msg("skipping unreadable stored match")
		return matches.Match{}, false
	}
	return m, true
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
