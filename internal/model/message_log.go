// internal/model/message_log.go
package model

import "time"

// MessageLogEntry is one send attempt. The table is append-only and written
// exclusively by the dispatch loop.
type MessageLogEntry struct {
	ID           int       `db:"id" json:"id"`
	OrderID      string    `db:"order_id" json:"order_id"`
	PhoneNumber  string    `db:"phone_number" json:"phone_number"`
	TemplateID   string    `db:"message_template_id" json:"message_template_id"`
	MessageSID   *string   `db:"message_sid" json:"message_sid,omitempty"`
	Status       string    `db:"status" json:"status"` // sent, error, dry-run
	SentTime     time.Time `db:"sent_time" json:"sent_time"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
}
