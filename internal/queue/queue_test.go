package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignRunBodyRoundTrip(t *testing.T) {
	body, err := encodeBody(TopicCampaignRuns, 42)
	require.NoError(t, err)
	// The worker binary decodes this exact shape.
	assert.JSONEq(t, `{"campaign_id":42}`, string(body))

	payload, err := decodeBody(TopicCampaignRuns, body)
	require.NoError(t, err)
	assert.Equal(t, 42, payload)
}

func TestCampaignRunBodyRejectsNonID(t *testing.T) {
	_, err := encodeBody(TopicCampaignRuns, "42")
	assert.Error(t, err)

	_, err = decodeBody(TopicCampaignRuns, []byte("not json"))
	assert.Error(t, err)
}

func TestInMemoryPublishRequiresSubscriber(t *testing.T) {
	q := NewInMemoryQueue()
	assert.Error(t, q.Publish(TopicCampaignRuns, 1))

	got := make(chan any, 1)
	require.NoError(t, q.Subscribe(TopicCampaignRuns, func(payload any) error {
		got <- payload
		return nil
	}))
	require.NoError(t, q.Publish(TopicCampaignRuns, 7))

	select {
	case payload := <-got:
		assert.Equal(t, 7, payload)
	case <-time.After(time.Second):
		t.Fatal("payload never delivered")
	}
}
