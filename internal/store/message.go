package store

import (
	"database/sql"
	"time"

	"github.com/danielfett/miqro-rutos-sms/internal/sms"
)

// Message is one archived inbound SMS.
type Message struct {
	ID         int64
	Index      string
	Date       string
	Sender     string
	Body       string
	Status     string
	ReceivedAt int64 // unix ms; 0 when the device date was unparseable
	ArchivedAt int64 // unix ms
}

// InsertRecord archives a parsed record. Idempotent on the
// (device_index, date, sender) identity triple, so re-archiving after a
// restart is harmless.
func (db *DB) InsertRecord(rec sms.Record) error {
	var receivedAt sql.NullInt64
	if ts, err := rec.ReceivedAt(); err == nil {
		receivedAt = sql.NullInt64{Int64: ts.UnixMilli(), Valid: true}
	}
	_, err := db.Exec(`
		INSERT INTO messages (device_index, date, sender, body, status, received_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_index, date, sender) DO NOTHING`,
		rec.Index, rec.Date, rec.Sender, rec.Text, rec.Status, receivedAt, time.Now().UnixMilli())
	return err
}

// Count returns the number of archived messages.
func (db *DB) Count() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n)
	return n, err
}

// ListRecent returns the most recently archived messages, newest first.
func (db *DB) ListRecent(limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, device_index, date, sender, body, status, COALESCE(received_at, 0), archived_at
		FROM messages
		ORDER BY archived_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Index, &m.Date, &m.Sender, &m.Body, &m.Status, &m.ReceivedAt, &m.ArchivedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
