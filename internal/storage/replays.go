package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/blockfall/internal/replay"
)

// ReplayEntry describes a stored replay without its inputs.
type ReplayEntry struct {
	ID        string
	SessionID string
	Seed      uint32
	Score     int64
	Inputs    int
	CreatedAt time.Time
}

// SaveReplay stores a recording and returns its generated ID.
func (s *Store) SaveReplay(sessionID string, score int64, d *replay.Data) (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("storage: cannot encode replay: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(
		"INSERT INTO replays (id, session_id, seed, score, inputs, data) VALUES (?, ?, ?, ?, ?, ?)",
		id, sessionID, int64(d.InitialSeed), score, len(d.Inputs), s.enc.EncodeAll(raw, nil),
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot save replay: %w", err)
	}
	return id, nil
}

// LoadReplay returns the recording stored under id, or nil, nil when it
// does not exist.
func (s *Store) LoadReplay(id string) (*replay.Data, error) {
	var blob []byte
	err := s.db.QueryRow("SELECT data FROM replays WHERE id = ?", id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query replay: %w", err)
	}

	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot decompress replay %s: %w", id, err)
	}
	d, err := replay.Decode(raw, replay.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("storage: replay %s: %w", id, err)
	}
	return d, nil
}

// RecentReplays lists the newest replays.
func (s *Store) RecentReplays(limit int) ([]ReplayEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, seed, score, inputs, created_at
		 FROM replays
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query replays: %w", err)
	}
	defer rows.Close()

	var entries []ReplayEntry
	for rows.Next() {
		var e ReplayEntry
		var seed int64
		var createdAt any
		if err := rows.Scan(&e.ID, &e.SessionID, &seed, &e.Score, &e.Inputs, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Seed = uint32(seed)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}
