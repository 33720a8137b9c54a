package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mojohealth/whatsapp-backend/internal/model"
	"github.com/mojohealth/whatsapp-backend/internal/provider"
	"github.com/mojohealth/whatsapp-backend/internal/recipient"
	"github.com/mojohealth/whatsapp-backend/internal/repository"
)

type memOrderRepo struct {
	stamped []string
}

func (m *memOrderRepo) SelectRecipients(q repository.RecipientQuery) ([]model.Order, error) {
	return nil, nil
}

func (m *memOrderRepo) UpdateLastMessaged(phoneNumber string, at time.Time) error {
	m.stamped = append(m.stamped, phoneNumber)
	return nil
}

type memMessageLog struct {
	entries []model.MessageLogEntry
}

func (m *memMessageLog) Append(entry *model.MessageLogEntry) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memMessageLog) ListRecent(limit int) ([]model.MessageLogEntry, error) {
	return m.entries, nil
}

func testRecipients() []recipient.Recipient {
	return []recipient.Recipient{
		{OrderID: "ORD-1", Name: "Alice", PhoneNumber: "61417890601", Destination: "whatsapp:61417890601"},
		{OrderID: "ORD-2", Name: "Bob", PhoneNumber: "61417890602", Destination: "whatsapp:61417890602"},
		{OrderID: "ORD-3", Name: "Carol", PhoneNumber: "61417890603", Destination: "whatsapp:61417890603"},
	}
}

func newDispatcher() (*Dispatcher, *provider.MockProvider, *memOrderRepo, *memMessageLog) {
	mock := provider.NewMockProvider()
	orders := &memOrderRepo{}
	msgLog := &memMessageLog{}
	return &Dispatcher{Provider: mock, Orders: orders, MessageLog: msgLog}, mock, orders, msgLog
}

func TestRunFailureIsolation(t *testing.T) {
	d, mock, orders, msgLog := newDispatcher()
	mock.FailDestinations["whatsapp:61417890602"] = "unreachable number"

	res, err := d.Run(context.Background(), testRecipients(), Options{
		TemplateSID: "HX123", LogToStore: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Summary.Total)
	assert.Equal(t, 2, res.Summary.Successful)
	assert.Equal(t, 1, res.Summary.Failed)
	require.Len(t, res.Outcomes, 3)

	assert.Equal(t, StatusError, res.Outcomes[1].Status)
	require.NotNil(t, res.Outcomes[1].Error)
	assert.Nil(t, res.Outcomes[1].MessageSID)

	// Recipients 1 and 3 still got attempts.
	assert.Equal(t, 2, mock.SentCount())

	// One log row per attempt; the failed one has no SID and no stamp.
	require.Len(t, msgLog.entries, 3)
	assert.Nil(t, msgLog.entries[1].MessageSID)
	assert.Equal(t, StatusError, msgLog.entries[1].Status)
	assert.Equal(t, []string{"whatsapp:61417890601", "whatsapp:61417890603"}, orders.stamped)
}

func TestRunDryRun(t *testing.T) {
	d, mock, orders, msgLog := newDispatcher()

	res, err := d.Run(context.Background(), testRecipients(), Options{
		TemplateSID: "HX123", DryRun: true, LogToStore: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, mock.SentCount())
	assert.Empty(t, orders.stamped)
	assert.Empty(t, msgLog.entries)
	assert.Equal(t, 3, res.Summary.Successful)
	for _, out := range res.Outcomes {
		assert.Equal(t, StatusDryRun, out.Status)
	}
}

func TestRunSkipsDuplicateDestinations(t *testing.T) {
	d, mock, _, msgLog := newDispatcher()

	recipients := testRecipients()
	recipients = append(recipients, recipient.Recipient{
		OrderID: "ORD-9", Name: "Alice dup", Destination: "whatsapp:61417890601",
	})

	res, err := d.Run(context.Background(), recipients, Options{TemplateSID: "HX123", LogToStore: true})
	require.NoError(t, err)

	// The duplicate is skipped, not counted as failure.
	assert.Equal(t, 3, res.Summary.Total)
	assert.Equal(t, 0, res.Summary.Failed)
	assert.Equal(t, 3, mock.SentCount())
	assert.Len(t, msgLog.entries, 3)
}

func TestRunRecordsProviderSID(t *testing.T) {
	d, _, _, _ := newDispatcher()

	res, err := d.Run(context.Background(), testRecipients()[:1], Options{TemplateSID: "HX123"})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	require.NotNil(t, res.Outcomes[0].MessageSID)
	assert.Contains(t, *res.Outcomes[0].MessageSID, "SM")
	assert.Equal(t, "queued", res.Outcomes[0].Status)
}

func TestRunCancelledBetweenSends(t *testing.T) {
	d, mock, _, _ := newDispatcher()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := d.Run(ctx, testRecipients(), Options{TemplateSID: "HX123"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mock.SentCount())
	assert.Empty(t, res.Outcomes)
}

func TestRunNoDelayAfterFinalSend(t *testing.T) {
	d, mock, _, _ := newDispatcher()

	// The trailing entry duplicates the last real recipient, so only one
	// inter-send delay may occur.
	recipients := testRecipients()[:2]
	recipients = append(recipients, recipient.Recipient{
		OrderID: "ORD-9", Name: "Bob dup", Destination: "whatsapp:61417890602",
	})

	start := time.Now()
	res, err := d.Run(context.Background(), recipients, Options{
		TemplateSID: "HX123", Delay: 150 * time.Millisecond,
	})
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.Equal(t, 2, res.Summary.Total)
	assert.Equal(t, 2, mock.SentCount())
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestRunDelayCancellable(t *testing.T) {
	d, _, _, _ := newDispatcher()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := d.Run(ctx, testRecipients(), Options{TemplateSID: "HX123", Delay: 10 * time.Second})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}
