// internal/provider/provider.go
package provider

import "fmt"

// SendResult is the provider's acknowledgement of a single message.
type SendResult struct {
	MessageSID string
	Status     string
}

// MessageProvider is the outbound transport. Given a destination, a content
// template SID and template variables it returns a message SID and delivery
// status, or fails. Timeouts are the provider's own responsibility; callers
// treat a timeout as an ordinary failed send.
type MessageProvider interface {
	Send(destination, templateSID string, variables map[string]string) (*SendResult, error)
}

// Error is a send failure reported by the provider.
type Error struct {
	Code   int
	Detail string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("provider error %d: %s", e.Code, e.Detail)
	}
	return "provider error: " + e.Detail
}
