package broadcast

import (
	"encoding/json"
	"fmt"

	"tabletap/pkg/logger"
	"tabletap/pkg/rabbitmq"
)

// Fanout publishes events to the shared RabbitMQ topic exchange with
// the tenant id as routing key, so every running instance's relay can
// feed its local hub. Failures are logged and swallowed: a broadcast
// failure never rolls back the state change that produced it.
type Fanout struct {
	rmq    *rabbitmq.RabbitMQ
	logger *logger.Logger
}

func NewFanout(rmq *rabbitmq.RabbitMQ, log *logger.Logger) *Fanout {
	return &Fanout{rmq: rmq, logger: log}
}

func (f *Fanout) Publish(event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("", "event_marshal_failed", "Failed to marshal broadcast event", err)
		return
	}

	if err := f.rmq.PublishMessage(rabbitmq.EventsExchange, event.TenantID, body); err != nil {
		f.logger.Error("", "event_publish_failed",
			fmt.Sprintf("Failed to publish %s for order %s", event.Type, event.OrderNumber), err)
		return
	}

	f.logger.Debug("", "event_published",
		fmt.Sprintf("Published %s for order %s", event.Type, event.OrderNumber))
}
