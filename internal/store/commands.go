package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// emptyCommands is returned before any commands document has been saved.
var emptyCommands = json.RawMessage(`{}`)

// SaveCommands replaces the stored commands document. doc must be valid JSON.
func (s *MatchStore) SaveCommands(ctx context.Context, doc json.RawMessage) error {
	if !json.Valid(doc) {
		return fmt.Errorf("commands document is not valid JSON")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (id, payload, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(doc))
	if err != nil {
		return fmt.Errorf("failed to save commands: %w", err)
	}
	s.logger.Info().Int("bytes", len(doc)).Msg("commands saved")
	return nil
}

// Commands returns the stored commands document, or {} when none was saved.
func (s *MatchStore) Commands(ctx context.Context) (json.RawMessage, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM commands WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return emptyCommands, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	return json.RawMessage(payload), nil
}
