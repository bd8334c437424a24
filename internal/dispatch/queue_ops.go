package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Enqueue inserts a ready message for the entry. When a ready or leased
// message for the same entry already exists the existing message is returned
// instead, so retries and reconciler sweeps never double-dispatch.
func (q *Queue) Enqueue(ctx context.Context, entryID string) (*Message, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return nil, errors.New("entry id is required")
	}

	if existing, err := q.activeForEntry(ctx, entryID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := q.execWithRetry(
		ctx,
		`INSERT INTO dispatch_messages (entry_id, status, created_at, updated_at)
        SELECT ?, ?, ?, ?
        WHERE NOT EXISTS (
            SELECT 1 FROM dispatch_messages WHERE entry_id = ? AND status IN (?, ?)
        )`,
		entryID,
		StatusReady,
		now,
		now,
		entryID,
		StatusReady,
		StatusLeased,
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Lost the race to a concurrent enqueue; return the winner.
		return q.activeForEntry(ctx, entryID)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return q.GetByID(ctx, id)
}

// Dequeue claims the oldest ready message, marking it leased and counting the
// delivery attempt. Returns nil when nothing is ready.
func (q *Queue) Dequeue(ctx context.Context) (*Message, error) {
	for {
		row := q.db.QueryRowContext(
			ctx,
			`SELECT id FROM dispatch_messages WHERE status = ? ORDER BY created_at LIMIT 1`,
			StatusReady,
		)
		var id int64
		if err := row.Scan(&id); errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		} else if err != nil {
			return nil, fmt.Errorf("find ready message: %w", err)
		}

		now := time.Now().UTC()
		res, err := q.execWithRetry(
			ctx,
			`UPDATE dispatch_messages
            SET status = ?, attempts = attempts + 1, leased_until = ?, updated_at = ?
            WHERE id = ? AND status = ?`,
			StatusLeased,
			now.Add(q.lease).Format(time.RFC3339Nano),
			now.Format(time.RFC3339Nano),
			id,
			StatusReady,
		)
		if err != nil {
			return nil, fmt.Errorf("lease message: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			// Another worker claimed the row between select and update.
			continue
		}
		return q.GetByID(ctx, id)
	}
}

// ExtendLease pushes a leased message's expiry forward by the lease duration.
func (q *Queue) ExtendLease(ctx context.Context, id int64) (bool, error) {
	now := time.Now().UTC()
	res, err := q.execWithRetry(
		ctx,
		`UPDATE dispatch_messages SET leased_until = ?, updated_at = ? WHERE id = ? AND status = ?`,
		now.Add(q.lease).Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		id,
		StatusLeased,
	)
	if err != nil {
		return false, fmt.Errorf("extend lease: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Ack removes a delivered message. Acking an already removed message is a
// no-op, so duplicate deliveries finish cleanly.
func (q *Queue) Ack(ctx context.Context, id int64) error {
	if _, err := q.execWithRetry(ctx, `DELETE FROM dispatch_messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("ack message: %w", err)
	}
	return nil
}

// Nack returns a message to the queue after a failed delivery. Messages that
// exhausted their attempts move to the dead letter state instead.
func (q *Queue) Nack(ctx context.Context, id int64, cause string) (MessageStatus, error) {
	message, err := q.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if message == nil {
		return "", fmt.Errorf("nack message: %d not found", id)
	}

	next := StatusReady
	if message.Attempts >= q.maxAttempts {
		next = StatusDead
	}

	if _, err := q.execWithRetry(
		ctx,
		`UPDATE dispatch_messages
        SET status = ?, leased_until = NULL, last_error = ?, updated_at = ?
        WHERE id = ?`,
		next,
		nullableString(cause),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return "", fmt.Errorf("nack message: %w", err)
	}
	return next, nil
}

// ReclaimExpired returns expired leases to the queue, dead-lettering messages
// that already used their last attempt. It reports how many were touched.
func (q *Queue) ReclaimExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := q.execWithRetry(
		ctx,
		`UPDATE dispatch_messages
        SET status = CASE WHEN attempts >= ? THEN ? ELSE ? END,
            leased_until = NULL,
            last_error = COALESCE(last_error, 'lease expired'),
            updated_at = ?
        WHERE status = ? AND leased_until IS NOT NULL AND leased_until < ?`,
		q.maxAttempts,
		StatusDead,
		StatusReady,
		now,
		StatusLeased,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim expired leases: %w", err)
	}
	return res.RowsAffected()
}

// GetByID fetches a message by identifier. Returns nil when it does not exist.
func (q *Queue) GetByID(ctx context.Context, id int64) (*Message, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM dispatch_messages WHERE id = ?`, id)
	message, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return message, nil
}

// List returns messages filtered by status set (or all messages when no status
// is provided) ordered by creation time.
func (q *Queue) List(ctx context.Context, statuses ...MessageStatus) ([]*Message, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + messageColumns + ` FROM dispatch_messages`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = q.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = q.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// DeadLetters returns messages parked in the dead letter state.
func (q *Queue) DeadLetters(ctx context.Context) ([]*Message, error) {
	return q.List(ctx, StatusDead)
}

// Requeue moves dead letter messages back to ready with a fresh attempt
// budget. With no identifiers it requeues every dead letter.
func (q *Queue) Requeue(ctx context.Context, ids ...int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := q.execWithRetry(
			ctx,
			`UPDATE dispatch_messages
            SET status = ?, attempts = 0, leased_until = NULL, last_error = NULL, updated_at = ?
            WHERE status = ?`,
			StatusReady,
			now,
			StatusDead,
		)
		if err != nil {
			return 0, fmt.Errorf("requeue dead letters: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusReady, now, StatusDead)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE dispatch_messages
        SET status = ?, attempts = 0, leased_until = NULL, last_error = NULL, updated_at = ?
        WHERE status = ? AND id IN (` + placeholders + `)`
	res, err := q.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("requeue selected messages: %w", err)
	}
	return res.RowsAffected()
}

// QueueStats aggregates message counts per state.
func (q *Queue) QueueStats(ctx context.Context) (Stats, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM dispatch_messages GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("summarize messages: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return Stats{}, err
		}
		switch MessageStatus(statusStr) {
		case StatusReady:
			stats.Ready = count
		case StatusLeased:
			stats.Leased = count
		case StatusDead:
			stats.Dead = count
		}
	}
	return stats, rows.Err()
}

// HasActive reports whether a ready or leased message exists for the entry.
func (q *Queue) HasActive(ctx context.Context, entryID string) (bool, error) {
	message, err := q.activeForEntry(ctx, entryID)
	if err != nil {
		return false, err
	}
	return message != nil, nil
}

// DeadLetterForEntry returns the newest dead letter for the entry, or nil
// when none exists.
func (q *Queue) DeadLetterForEntry(ctx context.Context, entryID string) (*Message, error) {
	row := q.db.QueryRowContext(
		ctx,
		`SELECT `+messageColumns+` FROM dispatch_messages
        WHERE entry_id = ? AND status = ? ORDER BY created_at DESC LIMIT 1`,
		entryID,
		StatusDead,
	)
	message, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find dead letter: %w", err)
	}
	return message, nil
}

func (q *Queue) activeForEntry(ctx context.Context, entryID string) (*Message, error) {
	row := q.db.QueryRowContext(
		ctx,
		`SELECT `+messageColumns+` FROM dispatch_messages
        WHERE entry_id = ? AND status IN (?, ?) ORDER BY created_at LIMIT 1`,
		entryID,
		StatusReady,
		StatusLeased,
	)
	message, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active message: %w", err)
	}
	return message, nil
}
