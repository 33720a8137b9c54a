// internal/service/bulk_service.go
package service

import (
	"context"
	"errors"

	"github.com/mojohealth/whatsapp-backend/internal/dispatch"
	"github.com/mojohealth/whatsapp-backend/internal/recipient"
	"github.com/mojohealth/whatsapp-backend/internal/report"
	"github.com/mojohealth/whatsapp-backend/internal/repository"
)

// ErrNoRecipients means selection matched nothing; a campaign run hitting it
// is recorded as a failure rather than an empty success.
var ErrNoRecipients = errors.New("no recipients found")

// DefaultVariables is applied when a run supplies no template variables.
var DefaultVariables = map[string]string{"senderName": "MOJO Health Supplements"}

// BulkResult is one bulk run: the dispatch outcome plus the report artifact.
type BulkResult struct {
	*dispatch.Result
	ReportPath string
}

// BulkSender selects, dispatches and reports one run. Both the campaign
// runner and the CLI drive sends through it.
type BulkSender interface {
	SendBulk(ctx context.Context, q repository.RecipientQuery, opts dispatch.Options) (*BulkResult, error)
}

type BulkService struct {
	Selector   *recipient.Selector
	Dispatcher *dispatch.Dispatcher
	Reporter   *report.Writer
}

// SendBulk runs selection, the dispatch loop, and the run reporter. It
// returns the partial result alongside the error when dispatch is cancelled
// mid-batch.
func (s *BulkService) SendBulk(ctx context.Context, q repository.RecipientQuery, opts dispatch.Options) (*BulkResult, error) {
	if len(opts.Variables) == 0 {
		opts.Variables = DefaultVariables
	}

	recipients, err := s.Selector.Select(q)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	res, runErr := s.Dispatcher.Run(ctx, recipients, opts)

	out := &BulkResult{Result: res}
	if len(res.Outcomes) > 0 {
		path, repErr := s.Reporter.Write(res, report.Meta{
			DryRun:      opts.DryRun,
			Force:       q.Force,
			OrderStatus: q.OrderStatus,
		})
		if repErr != nil && runErr == nil {
			return out, repErr
		}
		out.ReportPath = path
	}
	return out, runErr
}

var _ BulkSender = (*BulkService)(nil)
