package dispatch

import (
	"database/sql"
	"errors"
	"time"
)

const messageColumns = "id, entry_id, attempts, status, leased_until, last_error, created_at, updated_at"

func scanMessage(scanner interface{ Scan(dest ...any) error }) (*Message, error) {
	var (
		id          int64
		entryID     string
		attempts    int
		statusStr   string
		leasedRaw   sql.NullString
		lastError   sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&entryID,
		&attempts,
		&statusStr,
		&leasedRaw,
		&lastError,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	message := &Message{
		ID:        id,
		EntryID:   entryID,
		Attempts:  attempts,
		Status:    MessageStatus(statusStr),
		LastError: lastError.String,
	}

	if leasedRaw.Valid {
		if leased, err := parseTimeString(leasedRaw.String); err == nil {
			message.LeasedUntil = &leased
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		message.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		message.UpdatedAt = updated
	}
	return message, nil
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

func collectMessages(rows *sql.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
