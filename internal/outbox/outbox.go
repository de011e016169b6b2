// Package outbox hands composed messages to whatever delivers them.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/jobtrail/internal/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// DefaultQueue is used when no queue name is configured.
const DefaultQueue = "jobtrail.messages"

// publishTimeout bounds a single publish when the caller's context has no deadline.
const publishTimeout = 5 * time.Second

// Noop drops every message. It is used when no broker is configured.
type Noop struct {
	Log zerolog.Logger
}

// Publish logs the message and discards it.
func (n Noop) Publish(_ context.Context, msg types.Message) error {
	n.Log.Debug().Str("follow_up_id", msg.FollowUpID.String()).Str("to", msg.To).Msg("Outbox disabled, message dropped")
	return nil
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes messages as JSON to a durable RabbitMQ queue.
type AMQP struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    channel
	queue string
	now   func() time.Time
}

// Dial connects to url and declares queue.
func Dial(url, queue string) (*AMQP, error) {
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQP{conn: conn, ch: ch, queue: q.Name, now: time.Now}, nil
}

// Queue returns the name of the declared queue.
func (a *AMQP) Queue() string {
	return a.queue
}

// Publish sends msg to the queue. Channels are not safe for concurrent publishing,
// so calls are serialized.
func (a *AMQP) Publish(ctx context.Context, msg types.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, publishTimeout)
		defer cancel()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	err = a.ch.PublishWithContext(
		ctx,
		"",      // exchange
		a.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.FollowUpID.String(),
			Timestamp:    a.now(),
			Body:         body,
		},
	)
	if err != nil {
		return &types.ExternalError{Op: "publish message", Cause: err}
	}
	return nil
}

// Close closes the channel and the connection.
func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			firstErr = err
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
