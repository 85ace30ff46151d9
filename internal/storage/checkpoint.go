package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/blockfall/internal/engine"
)

// Checkpoint is a persisted engine snapshot.
type Checkpoint struct {
	ID        int64
	SessionID string
	Tick      int64
	Checksum  int32
	Snapshot  *engine.Snapshot
	CreatedAt time.Time
}

// SaveCheckpoint stores a snapshot as zstd-compressed JSON.
func (s *Store) SaveCheckpoint(sessionID string, snap *engine.Snapshot) (int64, error) {
	if snap == nil {
		return 0, fmt.Errorf("storage: cannot save checkpoint: %w", engine.ErrNilSnapshot)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot encode snapshot: %w", err)
	}

	result, err := s.db.Exec(
		"INSERT INTO checkpoints (session_id, tick, checksum, snapshot) VALUES (?, ?, ?, ?)",
		sessionID, snap.Tick, snap.Checksum, s.enc.EncodeAll(raw, nil),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save checkpoint: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// LatestCheckpoint returns the newest checkpoint of a session, or of any
// session when sessionID is empty. It returns nil, nil when none exists.
func (s *Store) LatestCheckpoint(sessionID string) (*Checkpoint, error) {
	query := `SELECT id, session_id, tick, checksum, snapshot, created_at
		 FROM checkpoints`
	var args []any
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY id DESC LIMIT 1"

	var c Checkpoint
	var blob []byte
	var createdAt any
	err := s.db.QueryRow(query, args...).Scan(&c.ID, &c.SessionID, &c.Tick, &c.Checksum, &blob, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query checkpoint: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)

	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot decompress checkpoint %d: %w", c.ID, err)
	}
	c.Snapshot = new(engine.Snapshot)
	if err := json.Unmarshal(raw, c.Snapshot); err != nil {
		return nil, fmt.Errorf("storage: cannot decode checkpoint %d: %w", c.ID, err)
	}
	return &c, nil
}

// PruneCheckpoints keeps only the newest keep checkpoints of a session.
func (s *Store) PruneCheckpoints(sessionID string, keep int) error {
	_, err := s.db.Exec(
		`DELETE FROM checkpoints
		 WHERE session_id = ? AND id NOT IN (
			SELECT id FROM checkpoints WHERE session_id = ? ORDER BY id DESC LIMIT ?
		 )`,
		sessionID, sessionID, keep,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot prune checkpoints: %w", err)
	}
	return nil
}
