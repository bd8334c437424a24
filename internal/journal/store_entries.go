package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Create inserts a new entry in pending state and returns the stored record.
func (s *Store) Create(ctx context.Context, ownerID, audioRef string) (*Entry, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, errors.New("owner id is required")
	}
	audioRef = strings.TrimSpace(audioRef)
	if audioRef == "" {
		return nil, errors.New("audio ref is required")
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO journal_entries (
            id, owner_id, audio_ref, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		ownerID,
		audioRef,
		StatusPending,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches an entry by identifier. Returns nil when the entry does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// GetForOwner fetches an entry by identifier scoped to an owner.
func (s *Store) GetForOwner(ctx context.Context, ownerID, id string) (*Entry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE id = ? AND owner_id = ?`,
		id,
		ownerID,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry for owner: %w", err)
	}
	return entry, nil
}

// Update persists changes to an existing entry.
func (s *Store) Update(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	entry.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE journal_entries
         SET owner_id = ?, audio_ref = ?, transcript = ?, summary = ?, emotion = ?,
             status = ?, failure_reason = ?, updated_at = ?
         WHERE id = ?`,
		entry.OwnerID,
		entry.AudioRef,
		nullableString(entry.Transcript),
		nullableString(entry.Summary),
		nullableString(entry.Emotion),
		entry.Status,
		nullableString(entry.FailureReason),
		entry.UpdatedAt.Format(time.RFC3339Nano),
		entry.ID,
	); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

// ListForOwner returns an owner's entries newest first.
func (s *Store) ListForOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+entryColumns+` FROM journal_entries
         WHERE owner_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		ownerID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries for owner: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// List returns entries filtered by status set (or all entries when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + entryColumns + ` FROM journal_entries`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// Remove deletes an entry by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func collectEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
