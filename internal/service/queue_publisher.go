// Package queue_publisher provides functions to publish delta events
// to RabbitMQ.  Errors are logged and returned so callers can ignore
// failures without interrupting the main request flow: the snapshot
// reconciler recovers any missed delta on its next full refresh.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/EvgeniBursov/table-whispers/internal/queue"
)

// PublishDeltaEvent publishes a DeltaEvent to the restaurant-scoped
// event queue.  The function attempts to be robust and to never
// panic; any error is logged and returned so the caller can choose
// to ignore it.  Messages are marked as persistent.
func PublishDeltaEvent(ctx context.Context, event q.DeltaEvent) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	name := q.QueueName(event.RestaurantID)
	// Ensure the queue exists (idempotent). Durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",    // default exchange
		name,  // routing key = queue name
		false, // mandatory
		false, // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
