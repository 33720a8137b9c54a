package queue

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// CampaignRunJob is the wire form of a campaign_runs message. The AMQP
// publisher and the worker binary both use it, so the format lives here.
type CampaignRunJob struct {
	CampaignID int `json:"campaign_id"`
}

func encodeBody(topic string, payload any) ([]byte, error) {
	if topic == TopicCampaignRuns {
		id, ok := payload.(int)
		if !ok {
			return nil, fmt.Errorf("queue: %s payload must be a campaign ID, got %T", topic, payload)
		}
		return json.Marshal(CampaignRunJob{CampaignID: id})
	}
	return json.Marshal(payload)
}

func decodeBody(topic string, body []byte) (any, error) {
	if topic == TopicCampaignRuns {
		var job CampaignRunJob
		if err := json.Unmarshal(body, &job); err != nil {
			return nil, err
		}
		return job.CampaignID, nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// AMQPQueue carries topics over RabbitMQ, one durable queue per topic on the
// default exchange. The server selects it when AMQP_URL is set so run-now
// jobs reach the worker binary instead of an in-process subscriber.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPQueue(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPQueue{conn: conn, ch: ch}, nil
}

func (q *AMQPQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

func (q *AMQPQueue) declare(topic string) error {
	_, err := q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

// Publish sends one persistent message to the topic's queue.
func (q *AMQPQueue) Publish(topic string, payload any) error {
	if err := q.declare(topic); err != nil {
		return err
	}
	body, err := encodeBody(topic, payload)
	if err != nil {
		return err
	}
	return q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Subscribe consumes the topic's queue on a goroutine with manual acks.
// Undecodable messages are acked and dropped so they cannot wedge the queue.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	if err := q.declare(topic); err != nil {
		return err
	}
	msgs, err := q.ch.Consume(topic, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			payload, err := decodeBody(topic, d.Body)
			if err != nil {
				log.Printf("[Queue] %s: invalid message: %v", topic, err)
				d.Ack(false)
				continue
			}
			if err := handler(payload); err != nil {
				log.Printf("[Queue] %s handler: %v", topic, err)
			}
			d.Ack(false)
		}
	}()
	return nil
}

var _ Queue = (*AMQPQueue)(nil)
