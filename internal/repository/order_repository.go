package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mojohealth/whatsapp-backend/internal/filter"
	"github.com/mojohealth/whatsapp-backend/internal/model"
)

// OrderRepositoryInterface defines the recipient store operations used by
// selection and dispatch.
type OrderRepositoryInterface interface {
	SelectRecipients(q RecipientQuery) ([]model.Order, error)
	UpdateLastMessaged(phoneNumber string, at time.Time) error
}

// RecipientQuery carries the selection predicates. The store handle and the
// query travel together through the call chain; nothing is read from process
// globals.
type RecipientQuery struct {
	Filter      filter.Expression
	OrderStatus string // equality filter when non-empty
	OrderBy     string // key into allowed orderings, empty for the default
	Limit       int    // 0 means no cap
	Force       bool   // include previously messaged recipients
}

// Orderings callers may request. The default matches the import pipeline's
// freshness semantics: most recently updated rows first.
var allowedOrderings = map[string]string{
	"last_updated": "o.last_updated DESC",
	"order_id":     "o.order_id ASC",
	"recipient":    "o.recipient ASC",
}

type OrderRepository struct {
	DB *sql.DB
}

// SelectRecipients returns candidate orders: valid phone, not previously
// messaged unless Force, optionally narrowed by status and a structured
// filter. Deduplication by phone number happens in the recipient package,
// not here.
func (r *OrderRepository) SelectRecipients(q RecipientQuery) ([]model.Order, error) {
	query := `
        SELECT
            o.id, o.order_id, o.item_id, o.recipient, o.phone_number,
            o.raw_phone_number, o.is_valid_for_whatsapp, o.order_status,
            o.product_name, o.last_messaged, o.last_updated
        FROM orders o
        WHERE o.is_valid_for_whatsapp = TRUE`
	args := []interface{}{}
	argPos := 1

	if !q.Force {
		query += " AND o.last_messaged IS NULL"
	}

	if q.OrderStatus != "" {
		query += fmt.Sprintf(" AND o.order_status = $%d", argPos)
		args = append(args, q.OrderStatus)
		argPos++
	}

	if len(q.Filter) > 0 {
		fragment, filterArgs, next, err := q.Filter.Compile(argPos)
		if err != nil {
			return nil, err
		}
		query += " AND " + fragment
		args = append(args, filterArgs...)
		argPos = next
	}

	ordering := allowedOrderings["last_updated"]
	if q.OrderBy != "" {
		o, ok := allowedOrderings[q.OrderBy]
		if !ok {
			return nil, fmt.Errorf("unknown ordering %q", q.OrderBy)
		}
		ordering = o
	}
	query += " ORDER BY " + ordering

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, q.Limit)
	}

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(
			&o.ID, &o.OrderID, &o.ItemID, &o.Recipient, &o.PhoneNumber,
			&o.RawPhone, &o.IsValid, &o.OrderStatus, &o.ProductName,
			&o.LastMessaged, &o.LastUpdated,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateLastMessaged stamps every order row carrying phoneNumber. The
// provider prefix is stripped so destinations can be passed in directly.
// Last writer wins across overlapping campaigns; the timestamp is advisory
// and only drives future eligibility.
func (r *OrderRepository) UpdateLastMessaged(phoneNumber string, at time.Time) error {
	cleaned := strings.TrimPrefix(phoneNumber, "whatsapp:")
	query := `UPDATE orders SET last_messaged=$1 WHERE phone_number=$2`
	_, err := r.DB.Exec(query, at, cleaned)
	return err
}

var _ OrderRepositoryInterface = (*OrderRepository)(nil)
