// Package events is the live-update channel between clients. Any
// mutation to the booking table is announced on a NATS subject; every
// subscriber reacts by re-listing the full booking set, so no payload
// beyond the subject is strictly required.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/svq/chalet-bookings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
}

// BookingChanged fires on any insert, status update or delete, by any
// client. Subscribers refresh their whole snapshot in response.
const BookingChanged = "booking.changed"

type ChangeAction string

const (
	ActionCreated  ChangeAction = "created"
	ActionApproved ChangeAction = "approved"
	ActionRejected ChangeAction = "rejected"
	ActionDeleted  ChangeAction = "deleted"
)

type BookingChangedEvent struct {
	BookingID  string       `json:"booking_id"`
	Action     ChangeAction `json:"action"`
	OccurredAt time.Time    `json:"occurred_at"`
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}
