package journal

import (
	"database/sql"
	"errors"
	"time"
)

const entryColumns = "id, owner_id, audio_ref, transcript, summary, emotion, status, failure_reason, created_at, updated_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id            string
		ownerID       string
		audioRef      string
		transcript    sql.NullString
		summary       sql.NullString
		emotion       sql.NullString
		statusStr     string
		failureReason sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&ownerID,
		&audioRef,
		&transcript,
		&summary,
		&emotion,
		&statusStr,
		&failureReason,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:            id,
		OwnerID:       ownerID,
		AudioRef:      audioRef,
		Transcript:    transcript.String,
		Summary:       summary.String,
		Emotion:       emotion.String,
		Status:        Status(statusStr),
		FailureReason: failureReason.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
