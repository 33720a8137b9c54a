package queue

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// TopicCampaignRuns carries campaign IDs whose execution was requested via
// the API ("run now") or consumed by the worker binary.
const TopicCampaignRuns = "campaign_runs"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue delivers published payloads to subscribers on goroutines.
// Used in single-process deployments and tests; the worker binary consumes
// the same topic over AMQP instead.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
	}
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		h := handler
		go func() {
			if err := h(payload); err != nil {
				log.Printf("[Queue] %s handler: %v", topic, err)
			}
		}()
	}
	return nil
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// CampaignExecutor runs one campaign to completion.
type CampaignExecutor interface {
	Execute(ctx context.Context, campaignID int)
}

// StartCampaignRunSubscriber wires the campaign_runs topic to the runner.
// Overlap per campaign ID is not prevented here; the runner's conditional
// running-status claim rejects a second concurrent execution.
func StartCampaignRunSubscriber(q Queue, runner CampaignExecutor) {
	err := q.Subscribe(TopicCampaignRuns, func(payload any) error {
		campaignID, ok := payload.(int)
		if !ok {
			log.Printf("[Queue] campaign_runs: invalid payload %T", payload)
			return nil
		}
		log.Printf("[Queue] executing campaign %d", campaignID)
		runner.Execute(context.Background(), campaignID)
		return nil
	})
	if err != nil {
		log.Printf("[Queue] failed to subscribe to %s: %v", TopicCampaignRuns, err)
	}
}
