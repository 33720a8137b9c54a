// internal/dispatch/dispatch.go
package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/mojohealth/whatsapp-backend/internal/model"
	"github.com/mojohealth/whatsapp-backend/internal/provider"
	"github.com/mojohealth/whatsapp-backend/internal/recipient"
	"github.com/mojohealth/whatsapp-backend/internal/repository"
)

// Outcome statuses beyond whatever the provider reports. Successful live
// sends carry the provider's own status string instead.
const (
	StatusDryRun = "dry-run"
	StatusError  = "error"
)

// Outcome is the per-recipient result of one dispatch run.
type Outcome struct {
	OrderID     string
	Recipient   string
	PhoneNumber string
	Status      string
	MessageSID  *string
	Error       *string
	Timestamp   time.Time
}

// Summary totals one run. Total counts unique destinations attempted.
type Summary struct {
	Total      int
	Successful int
	Failed     int
	Elapsed    time.Duration
}

// Result is the dispatch output handed to the run reporter.
type Result struct {
	Summary  Summary
	Outcomes []Outcome
}

// Options configures a single run.
type Options struct {
	TemplateSID string
	Variables   map[string]string
	DryRun      bool
	Delay       time.Duration // between live sends; never applied on dry runs
	LogToStore  bool          // write message_log rows and last_messaged stamps
}

// Dispatcher walks a recipient list and sends one templated message per
// unique destination. It is the sole writer of message_log rows and of
// last_messaged within a run.
type Dispatcher struct {
	Provider   provider.MessageProvider
	Orders     repository.OrderRepositoryInterface
	MessageLog repository.MessageLogRepositoryInterface
}

// Run processes recipients in order. Per-recipient provider failures are
// logged and counted, never fatal. A duplicate destination in the input is
// skipped without counting. The context is checked before every send and
// during delay waits so a long campaign can be cancelled between messages.
//
// There is no transaction spanning send + log + last_messaged: a crash after
// a provider success can leave a recipient looking never-contacted. The
// provider call stays first so a store failure can never suppress a resend
// that did not happen.
func (d *Dispatcher) Run(ctx context.Context, recipients []recipient.Recipient, opts Options) (*Result, error) {
	start := time.Now()
	res := &Result{Outcomes: make([]Outcome, 0, len(recipients))}

	processed := make(map[string]struct{}, len(recipients))
	attempted := 0

	for _, rcpt := range recipients {
		if err := ctx.Err(); err != nil {
			res.Summary.Elapsed = time.Since(start)
			return res, err
		}

		// Callers may hand us their own list; dedup again by destination.
		if _, dup := processed[rcpt.Destination]; dup {
			continue
		}

		out := Outcome{
			OrderID:     rcpt.OrderID,
			Recipient:   rcpt.Name,
			PhoneNumber: rcpt.Destination,
		}

		if opts.DryRun {
			processed[rcpt.Destination] = struct{}{}
			out.Status = StatusDryRun
			out.Timestamp = time.Now()
			res.Summary.Successful++
			res.Outcomes = append(res.Outcomes, out)
			continue
		}

		// The delay leads into each send after the first. Counting live
		// attempts rather than the input index means trailing duplicates
		// never cause a sleep after the final real send.
		if opts.Delay > 0 && attempted > 0 {
			if err := sleepCtx(ctx, opts.Delay); err != nil {
				res.Summary.Total = len(processed)
				res.Summary.Elapsed = time.Since(start)
				return res, err
			}
		}
		processed[rcpt.Destination] = struct{}{}
		attempted++
		out.Timestamp = time.Now()

		sendRes, err := d.Provider.Send(rcpt.Destination, opts.TemplateSID, opts.Variables)
		if err != nil {
			detail := err.Error()
			out.Status = StatusError
			out.Error = &detail
			res.Summary.Failed++
			log.Printf("[Dispatch] send to %s failed: %v", rcpt.Destination, err)

			if opts.LogToStore {
				d.appendLog(rcpt, opts.TemplateSID, nil, StatusError, &detail)
			}
		} else {
			out.Status = sendRes.Status
			out.MessageSID = &sendRes.MessageSID
			res.Summary.Successful++

			if opts.LogToStore {
				d.appendLog(rcpt, opts.TemplateSID, &sendRes.MessageSID, sendRes.Status, nil)
				// Failed sends skip this stamp so the recipient stays
				// eligible on the next non-forced run.
				if err := d.Orders.UpdateLastMessaged(rcpt.Destination, time.Now()); err != nil {
					log.Printf("[Dispatch] updating last_messaged for %s: %v", rcpt.Destination, err)
				}
			}
		}

		res.Outcomes = append(res.Outcomes, out)
	}

	res.Summary.Total = len(processed)
	res.Summary.Elapsed = time.Since(start)
	return res, nil
}

func (d *Dispatcher) appendLog(rcpt recipient.Recipient, templateSID string, sid *string, status string, errMsg *string) {
	entry := &model.MessageLogEntry{
		OrderID:      rcpt.OrderID,
		PhoneNumber:  rcpt.Destination,
		TemplateID:   templateSID,
		MessageSID:   sid,
		Status:       status,
		SentTime:     time.Now(),
		ErrorMessage: errMsg,
	}
	if err := d.MessageLog.Append(entry); err != nil {
		log.Printf("[Dispatch] appending message log for %s: %v", rcpt.Destination, err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
