// internal/recipient/selector.go
package recipient

import (
	"github.com/mojohealth/whatsapp-backend/internal/model"
	"github.com/mojohealth/whatsapp-backend/internal/phone"
	"github.com/mojohealth/whatsapp-backend/internal/repository"
)

// Recipient is one contactable entity, flattened from an order row and
// carrying the provider-addressable destination.
type Recipient struct {
	OrderID     string
	Name        string
	PhoneNumber string // normalized
	Destination string // whatsapp:<normalized>
	OrderStatus string
	ProductName string
}

type Selector struct {
	Orders repository.OrderRepositoryInterface
}

// Select queries the store and returns candidates in query order,
// deduplicated by normalized phone number. Two orders sharing a phone number
// yield one recipient: the first by the active ordering. The later one is
// silently dropped, not merged and not reported; that drop is deliberate
// policy, see KeepFirstByKey.
func (s *Selector) Select(q repository.RecipientQuery) ([]Recipient, error) {
	orders, err := s.Orders.SelectRecipients(q)
	if err != nil {
		return nil, err
	}

	unique := KeepFirstByKey(orders, func(o model.Order) string {
		if o.PhoneNumber == nil {
			return ""
		}
		return *o.PhoneNumber
	})

	recipients := make([]Recipient, 0, len(unique))
	for _, o := range unique {
		if o.PhoneNumber == nil || *o.PhoneNumber == "" {
			// Store invariant: normalized phone is set whenever the validity
			// flag is, and the query filters on the flag.
			continue
		}
		recipients = append(recipients, Recipient{
			OrderID:     o.OrderID,
			Name:        o.Recipient,
			PhoneNumber: *o.PhoneNumber,
			Destination: phone.Destination(*o.PhoneNumber),
			OrderStatus: o.OrderStatus,
			ProductName: o.ProductName,
		})
	}
	return recipients, nil
}

// KeepFirstByKey returns items with every duplicate key removed, keeping the
// first occurrence in slice order. Only key equality matters; callers filter
// out empty keys themselves.
func KeepFirstByKey[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}
