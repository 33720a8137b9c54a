// internal/model/order.go
package model

import "time"

// Order is one row in the orders table. Rows are inserted or updated by the
// import subsystem keyed by (order_id, item_id); the dispatch loop only ever
// touches LastMessaged.
type Order struct {
	ID           int        `db:"id" json:"id"`
	OrderID      string     `db:"order_id" json:"order_id"`
	ItemID       string     `db:"item_id" json:"item_id"`
	Recipient    string     `db:"recipient" json:"recipient"`
	PhoneNumber  *string    `db:"phone_number" json:"phone_number,omitempty"`
	RawPhone     string     `db:"raw_phone_number" json:"raw_phone_number"`
	IsValid      bool       `db:"is_valid_for_whatsapp" json:"is_valid_for_whatsapp"`
	OrderStatus  string     `db:"order_status" json:"order_status"`
	ProductName  string     `db:"product_name" json:"product_name"`
	LastMessaged *time.Time `db:"last_messaged" json:"last_messaged,omitempty"`
	LastUpdated  time.Time  `db:"last_updated" json:"last_updated"`
}
