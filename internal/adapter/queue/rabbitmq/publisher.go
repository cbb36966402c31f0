package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	config "github.com/crabzie/coresched/config/utils"
	"github.com/crabzie/coresched/internal/core/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const maxRetries = 10

// QueueService carries simulation requests over a durable work queue and
// fans scheduling decisions out to every monitor
type QueueService struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	// amqp channels are not safe for concurrent publishing; sweeps decide from several goroutines
	mu sync.Mutex

	requestQueue      string
	decisionsExchange string
	log               *zap.Logger
}

// dial connects to the broker, retrying with an incremental backoff
func dial(ctx context.Context, url string, log *zap.Logger) (*amqp.Connection, *amqp.Channel, error) {
	var err error
	for i := 1; i <= maxRetries; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(url)
		if err == nil {
			var ch *amqp.Channel
			ch, err = conn.Channel()
			if err == nil {
				return conn, ch, nil
			}
			conn.Close()
		}

		log.Warn("Failed to connect to RabbitMQ, retrying...",
			zap.Int("attempt", i),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)

		// Simple incremental backoff
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(time.Duration(i*2) * time.Second):
		}
	}

	return nil, nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

// NewQueueService connects to RabbitMQ and declares the request queue and decisions exchange
func NewQueueService(ctx context.Context, cfg *config.MQ, log *zap.Logger) (*QueueService, error) {
	conn, ch, err := dial(ctx, cfg.URL(), log)
	if err != nil {
		return nil, err
	}

	q := &QueueService{
		conn:              conn,
		ch:                ch,
		requestQueue:      cfg.RequestQueue,
		decisionsExchange: cfg.DecisionsExchange,
		log:               log,
	}
	if err := q.declareTopology(); err != nil {
		q.Close()
		return nil, err
	}
	return q, nil
}

func (q *QueueService) declareTopology() error {
	_, err := q.ch.QueueDeclare(
		q.requestQueue, // name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", q.requestQueue, err)
	}

	err = q.ch.ExchangeDeclare(
		q.decisionsExchange, // name
		amqp.ExchangeFanout, // kind
		false,               // durable
		false,               // auto-delete
		false,               // internal
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", q.decisionsExchange, err)
	}
	return nil
}

func (q *QueueService) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ch.PublishWithContext(ctx,
		exchange, // Exchange
		key,      // Routing key
		false,    // Mandatory
		false,    // Immediate
		msg)
}

// PublishRequest enqueues a simulation request on the durable request queue
func (q *QueueService) PublishRequest(ctx context.Context, req *domain.SimulationRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	err = q.publish(ctx, "", q.requestQueue, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    req.ID,
		Timestamp:    req.SentAt,
		Body:         body,
	})
	if err != nil {
		q.log.Error("Failed to publish simulation request", zap.Error(err))
		return err
	}

	q.log.Info("Published simulation request",
		zap.String("id", req.ID),
		zap.String("workload", req.Workload.Name),
		zap.String("queue", q.requestQueue))
	return nil
}

// Decide broadcasts one scheduling decision on the decisions exchange
func (q *QueueService) Decide(ctx context.Context, d domain.Decision) error {
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}

	return q.publish(ctx, q.decisionsExchange, "", amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// Close closes the channel and the connection
func (q *QueueService) Close() error {
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
