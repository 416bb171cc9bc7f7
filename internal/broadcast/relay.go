package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"tabletap/pkg/logger"
	"tabletap/pkg/rabbitmq"
)

// Relay consumes the shared events exchange and feeds the local hub,
// so subscribers connected to this instance see mutations made on any
// instance. When a relay runs, mutators publish through Fanout only
// and the hub receives events exclusively from here, keeping a single
// ordered path per tenant.
type Relay struct {
	rmq    *rabbitmq.RabbitMQ
	hub    *Hub
	logger *logger.Logger
}

func NewRelay(rmq *rabbitmq.RabbitMQ, hub *Hub, log *logger.Logger) *Relay {
	return &Relay{rmq: rmq, hub: hub, logger: log}
}

func (r *Relay) Run(ctx context.Context) error {
	// Server-named exclusive queue: each instance gets its own copy of
	// every event, nothing persists across reconnects.
	q, err := r.rmq.Channel.QueueDeclare(
		"",    // name (server generated)
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare relay queue: %w", err)
	}

	err = r.rmq.Channel.QueueBind(
		q.Name,                  // queue name
		"#",                     // routing key (all tenants)
		rabbitmq.EventsExchange, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind relay queue: %w", err)
	}

	messages, err := r.rmq.Channel.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming events: %w", err)
	}

	r.logger.Info("startup", "relay_started", "Event relay started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("event channel closed")
			}
			var event Event
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				r.logger.Error("", "event_parse_failed", "Failed to parse broadcast event", err)
				continue
			}
			r.hub.Publish(event)
		}
	}
}
