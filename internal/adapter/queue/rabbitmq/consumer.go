package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/crabzie/coresched/internal/core/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// permanent reports whether retrying the request can never succeed
func permanent(err error) bool {
	return errors.Is(err, domain.ErrInvalidWorkload) ||
		errors.Is(err, domain.ErrUnsupportedPolicy)
}

// handleRequest decodes one delivery, runs handler on it and settles the delivery.
// Bad payloads and permanent failures are dropped, other failures are requeued once.
func (q *QueueService) handleRequest(ctx context.Context, d amqp.Delivery, handler func(ctx context.Context, req *domain.SimulationRequest) error) {
	var req domain.SimulationRequest
	if err := json.Unmarshal(d.Body, &req); err != nil {
		q.log.Error("Failed to unmarshal simulation request", zap.Error(err))
		d.Nack(false, false) // discard invalid message
		return
	}

	q.log.Info("Received simulation request", zap.String("id", req.ID))

	if err := handler(ctx, &req); err != nil {
		requeue := !permanent(err) && !d.Redelivered
		q.log.Error("Simulation request failed",
			zap.String("id", req.ID),
			zap.Bool("requeue", requeue),
			zap.Error(err))
		d.Nack(false, requeue)
		return
	}

	d.Ack(false)
	q.log.Info("Simulation request processed successfully", zap.String("id", req.ID))
}

// ConsumeRequests listens to the request queue until ctx is done
func (q *QueueService) ConsumeRequests(ctx context.Context, handler func(ctx context.Context, req *domain.SimulationRequest) error) error {
	// One request at a time per consumer, a sweep already fans out over policies
	if err := q.ch.Qos(1, 0, false); err != nil {
		return err
	}

	msgs, err := q.ch.ConsumeWithContext(ctx,
		q.requestQueue, // queue
		"",             // consumer
		false,          // auto-ack (We want to ack manually after work is done)
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return err
	}

	q.log.Info("Started consuming simulation requests", zap.String("queue", q.requestQueue))

	go func() {
		for d := range msgs {
			q.handleRequest(ctx, d, handler)
		}
		q.log.Info("Stopped consuming simulation requests")
	}()

	return nil
}

// ConsumeDecisions binds a private queue to the decisions exchange and hands every
// decision to handler until ctx is done or the channel closes
func (q *QueueService) ConsumeDecisions(ctx context.Context, handler func(d domain.Decision)) error {
	queue, err := q.ch.QueueDeclare(
		"",    // name, server generated
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	if err := q.ch.QueueBind(queue.Name, "", q.decisionsExchange, false, nil); err != nil {
		return err
	}

	msgs, err := q.ch.ConsumeWithContext(ctx,
		queue.Name, // queue
		"",         // consumer
		true,       // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return err
	}

	q.log.Info("Started consuming decisions", zap.String("exchange", q.decisionsExchange))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-msgs:
			if !ok {
				return nil
			}
			var d domain.Decision
			if err := json.Unmarshal(m.Body, &d); err != nil {
				q.log.Warn("Skipping unreadable decision", zap.Error(err))
				continue
			}
			handler(d)
		}
	}
}
