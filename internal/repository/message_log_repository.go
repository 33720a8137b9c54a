package repository

import (
	"database/sql"

	"github.com/mojohealth/whatsapp-backend/internal/model"
)

// MessageLogRepositoryInterface is the append-only send log.
type MessageLogRepositoryInterface interface {
	Append(entry *model.MessageLogEntry) error
	ListRecent(limit int) ([]model.MessageLogEntry, error)
}

type MessageLogRepository struct {
	DB *sql.DB
}

// Append inserts one send attempt. Rows are never updated or deleted.
func (r *MessageLogRepository) Append(entry *model.MessageLogEntry) error {
	query := `
        INSERT INTO message_log
        (order_id, phone_number, message_template_id, message_sid, status, sent_time, error_message)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRow(
		query,
		entry.OrderID,
		entry.PhoneNumber,
		entry.TemplateID,
		entry.MessageSID,
		entry.Status,
		entry.SentTime,
		entry.ErrorMessage,
	).Scan(&entry.ID)
}

// ListRecent returns the newest entries first.
func (r *MessageLogRepository) ListRecent(limit int) ([]model.MessageLogEntry, error) {
	query := `
        SELECT id, order_id, phone_number, message_template_id, message_sid, status, sent_time, error_message
        FROM message_log
        ORDER BY sent_time DESC
        LIMIT $1
    `
	rows, err := r.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.MessageLogEntry{}
	for rows.Next() {
		var e model.MessageLogEntry
		if err := rows.Scan(
			&e.ID, &e.OrderID, &e.PhoneNumber, &e.TemplateID,
			&e.MessageSID, &e.Status, &e.SentTime, &e.ErrorMessage,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ MessageLogRepositoryInterface = (*MessageLogRepository)(nil)
