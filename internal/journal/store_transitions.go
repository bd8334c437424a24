package journal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CompareAndSetStatus transitions an entry to a new status only when its current
// status is one of the expected values. It reports whether the transition was
// applied, so callers can detect duplicate deliveries without a read-then-write
// race.
func (s *Store) CompareAndSetStatus(ctx context.Context, id string, to Status, from ...Status) (bool, error) {
	if len(from) == 0 {
		return false, errors.New("at least one expected status is required")
	}

	placeholders := makePlaceholders(len(from))
	args := make([]any, 0, len(from)+3)
	args = append(args, to, time.Now().UTC().Format(time.RFC3339Nano), id)
	for _, status := range from {
		args = append(args, status)
	}

	query := `UPDATE journal_entries
        SET status = ?, failure_reason = NULL, updated_at = ?
        WHERE id = ? AND status IN (` + placeholders + `)`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("compare and set status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetTranscript persists the transcript as soon as transcription succeeds.
func (s *Store) SetTranscript(ctx context.Context, id, transcript string) error {
	return s.setResult(ctx, id, "transcript", transcript)
}

// SetSummary persists the summary produced by the summarize stage.
func (s *Store) SetSummary(ctx context.Context, id, summary string) error {
	return s.setResult(ctx, id, "summary", summary)
}

// SetEmotion persists the emotion label produced by the classify stage.
func (s *Store) SetEmotion(ctx context.Context, id, emotion string) error {
	return s.setResult(ctx, id, "emotion", emotion)
}

func (s *Store) setResult(ctx context.Context, id, column, value string) error {
	query := fmt.Sprintf(
		`UPDATE journal_entries SET %s = ?, updated_at = ? WHERE id = ?`,
		column,
	)
	if err := s.execWithoutResultRetry(
		ctx,
		query,
		nullableString(value),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	return nil
}

// MarkProcessed finalizes a successful run. Only entries still in processing
// are affected so a stale worker cannot overwrite a newer run's outcome.
func (s *Store) MarkProcessed(ctx context.Context, id string) (bool, error) {
	return s.CompareAndSetStatus(ctx, id, StatusProcessed, StatusProcessing)
}

// MarkFailed records a failure reason and moves the entry to failed.
func (s *Store) MarkFailed(ctx context.Context, id, reason string) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE journal_entries
        SET status = ?, failure_reason = ?, updated_at = ?
        WHERE id = ? AND status = ?`,
		StatusFailed,
		nullableString(reason),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("mark failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RetryFailed moves failed entries back to pending for reprocessing. With no
// identifiers it retries every failed entry.
func (s *Store) RetryFailed(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE journal_entries
            SET status = ?, failure_reason = NULL, updated_at = ?
            WHERE status = ?`,
			StatusPending,
			time.Now().UTC().Format(time.RFC3339Nano),
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed entries: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, time.Now().UTC().Format(time.RFC3339Nano), StatusFailed)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE journal_entries
        SET status = ?, failure_reason = NULL, updated_at = ?
        WHERE status = ? AND id IN (` + placeholders + `)`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected entries: %w", err)
	}
	return res.RowsAffected()
}

// PendingOlderThan returns pending entries not touched since the cutoff. The
// reconciler uses this to recover entries whose enqueue was lost.
func (s *Store) PendingOlderThan(ctx context.Context, cutoff time.Time) ([]*Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+entryColumns+` FROM journal_entries
        WHERE status = ? AND updated_at < ? ORDER BY created_at`,
		StatusPending,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("list stale pending: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// Summary aggregates entry counts per lifecycle state.
func (s *Store) Summary(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM journal_entries GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("summarize entries: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return HealthSummary{}, err
		}
		summary.Total += count
		switch Status(statusStr) {
		case StatusPending:
			summary.Pending = count
		case StatusProcessing:
			summary.Processing = count
		case StatusProcessed:
			summary.Processed = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	return summary, rows.Err()
}
