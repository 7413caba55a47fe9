package receipts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/palmhaven/order-api/internal/kafka"
	"github.com/palmhaven/order-api/internal/orders"
	"github.com/palmhaven/order-api/internal/redisx"
)

// Recorder persists receipts idempotently.
type Recorder interface {
	Record(ctx context.Context, rec Receipt) error
}

type Service struct {
	Repo        Recorder
	Redis       *redis.Client
	ServiceName string
}

// HandlePaymentSucceeded consumes order.payment.succeeded deliveries.
// The topic is at-least-once, so the flow is dedup -> idempotent insert.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventPaymentSucceeded {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "receipts", env.EventID)
	if s.Redis != nil {
		if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.PaymentSucceededPayload](env.Payload)
	if err != nil {
		return err
	}

	if err := s.Repo.Record(ctx, Receipt{
		ID:         uuid.NewString(),
		OrderID:    p.OrderID,
		OrderCode:  p.OrderCode,
		PaymentRef: p.PaymentRef,
		Amount:     p.Amount,
		PaidAt:     env.OccurredAt,
	}); err != nil {
		return err
	}

	// mark only after the insert landed, so a failed attempt gets retried
	if s.Redis != nil {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
	return nil
}
