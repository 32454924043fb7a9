package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"courseassist/internal/wellbeing"
)

// AlertPublisher queues flagged wellbeing analyses for out of band review.
type AlertPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewAlertPublisher(conn *amqp.Connection, queueName string) *AlertPublisher {
	return &AlertPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *AlertPublisher) Alert(ctx context.Context, a wellbeing.Analysis) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if _, err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Timestamp:    a.Timestamp,
			Type:         "wellbeing.flag",
		},
	); err != nil {
		return fmt.Errorf("publish alert failed: %w", err)
	}
	return nil
}

// DeclareQueue declares the durable alert queue shared by publisher and worker.
func DeclareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return q, fmt.Errorf("declare queue failed: %w", err)
	}
	return q, nil
}
