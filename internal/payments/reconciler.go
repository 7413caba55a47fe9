package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/palmhaven/order-api/internal/kafka"
	"github.com/palmhaven/order-api/internal/orders"
	"github.com/palmhaven/order-api/internal/paystack"
	"github.com/palmhaven/order-api/internal/redisx"
)

// Gateway is the remote payment provider contract the reconciler needs.
type Gateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (paystack.Authorization, error)
	Verify(ctx context.Context, reference string) (paystack.Transaction, error)
}

// Publisher matches the kafka producer's publish signature.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Reconciler applies gateway-reported payment outcomes to orders. The verify
// and webhook paths share the store's conditional update, so they may race
// and re-deliver freely; both converge on the same final state.
type Reconciler struct {
	Gateway   Gateway
	Orders    orders.OrderStore
	Customers orders.CustomerStore

	Succeeded Publisher // order.payment.succeeded
	Failed    Publisher // order.payment.failed

	Redis *redis.Client // optional: webhook dedup + track-cache invalidation

	WebhookSecret string
	CallbackURL   string // frontend base the gateway redirects back to
	ServiceName   string
}

type VerifyOutcome struct {
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"` // major units
	Reference string  `json:"reference"`
}

// InitializePayment starts a gateway transaction for the order and records
// the returned reference. The reference is immutable once set.
func (r *Reconciler) InitializePayment(ctx context.Context, orderCode string) (paystack.Authorization, error) {
	o, err := r.Orders.GetByCode(ctx, orderCode)
	if err != nil {
		return paystack.Authorization{}, err
	}
	if o.PaymentReference != "" {
		return paystack.Authorization{}, orders.ErrPaymentAlreadyInitialized
	}
	cust, err := r.Customers.GetByID(ctx, o.CustomerID)
	if err != nil {
		return paystack.Authorization{}, err
	}

	auth, err := r.Gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       cust.Email,
		AmountMinor: toMinor(o.TotalAmount),
		CallbackURL: fmt.Sprintf("%s/payment/callback?order=%s", r.CallbackURL, o.OrderCode),
	})
	if err != nil {
		return paystack.Authorization{}, err
	}

	if err := r.Orders.SetPaymentReference(ctx, o.ID, auth.Reference); err != nil {
		return paystack.Authorization{}, err
	}
	r.invalidateTrack(ctx, o.OrderCode)
	return auth, nil
}

// VerifyPayment is the client-driven path: ask the gateway for the current
// status of a reference and apply it. The gateway's answer is returned to
// the caller whether or not a matching order exists.
func (r *Reconciler) VerifyPayment(ctx context.Context, reference string) (VerifyOutcome, error) {
	tx, err := r.Gateway.Verify(ctx, reference)
	if err != nil {
		return VerifyOutcome{}, err
	}

	switch tx.Status {
	case paystack.StatusSuccess:
		if err := r.applySuccess(ctx, tx.Reference); err != nil {
			return VerifyOutcome{}, err
		}
	case paystack.StatusFailed, paystack.StatusAbandoned:
		if err := r.applyFailure(ctx, tx.Reference, tx.Status); err != nil {
			return VerifyOutcome{}, err
		}
	}

	return VerifyOutcome{
		Status:    tx.Status,
		Amount:    toMajor(tx.AmountMinor),
		Reference: tx.Reference,
	}, nil
}

// HandleWebhook is the gateway-driven path. Delivery is at-least-once and
// unordered relative to verify calls. A bad signature or an unknown order is
// swallowed (nil) so the gateway stops retrying; only unexpected internal
// faults surface as errors.
func (r *Reconciler) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !validSignature(body, signature, r.WebhookSecret) {
		log.Printf("webhook: signature mismatch, event dropped")
		return nil
	}

	var ev paystack.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Printf("webhook: malformed body: %v", err)
		return nil
	}
	if ev.Event != paystack.EventChargeSuccess {
		return nil
	}

	// dedup is a fast path only; the conditional update is what makes
	// re-delivery safe
	dkey := fmt.Sprintf(redisx.KeyDedup, "payments", ev.Event+":"+ev.Data.Reference)
	if r.Redis != nil {
		if seen, _ := redisx.Exists(ctx, r.Redis, dkey); seen {
			return nil
		}
	}

	if err := r.applySuccess(ctx, ev.Data.Reference); err != nil {
		return err
	}

	if r.Redis != nil {
		_ = r.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
	return nil
}

// Signature computes the HMAC-SHA512 hex digest the gateway sends with each
// webhook delivery.
func Signature(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func validSignature(body []byte, signature, secret string) bool {
	want := Signature(body, secret)
	return hmac.Equal([]byte(want), []byte(signature))
}

// applySuccess tolerates an unknown reference: a gateway event for an order
// outside this system is acknowledged, never an error.
func (r *Reconciler) applySuccess(ctx context.Context, reference string) error {
	applied, err := r.Orders.MarkPaymentSucceeded(ctx, reference)
	if errors.Is(err, orders.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !applied {
		return nil // idempotent replay, nothing new to announce
	}

	o, err := r.Orders.GetByPaymentReference(ctx, reference)
	if err != nil {
		return err
	}
	r.invalidateTrack(ctx, o.OrderCode)
	r.publish(r.Succeeded, orders.EventPaymentSucceeded, o.OrderCode, orders.PaymentSucceededPayload{
		OrderID:    o.ID,
		OrderCode:  o.OrderCode,
		PaymentRef: reference,
		Amount:     o.TotalAmount,
	})
	return nil
}

func (r *Reconciler) applyFailure(ctx context.Context, reference, reason string) error {
	applied, err := r.Orders.MarkPaymentFailed(ctx, reference)
	if errors.Is(err, orders.ErrNotFound) {
		return nil // verify for a reference outside our order set
	}
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	o, err := r.Orders.GetByPaymentReference(ctx, reference)
	if err != nil {
		return err
	}
	r.invalidateTrack(ctx, o.OrderCode)
	r.publish(r.Failed, orders.EventPaymentFailed, o.OrderCode, orders.PaymentFailedPayload{
		OrderID:    o.ID,
		OrderCode:  o.OrderCode,
		PaymentRef: reference,
		Reason:     reason,
	})
	return nil
}

func (r *Reconciler) publish(p Publisher, eventType, orderCode string, payload any) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      r.ServiceName,
		CorrelationID: orderCode,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderCode), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (r *Reconciler) invalidateTrack(ctx context.Context, orderCode string) {
	if r.Redis == nil {
		return
	}
	_ = r.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderTrack, orderCode)).Err()
}

func toMinor(major float64) int64 { return int64(major*100 + 0.5) }
func toMajor(minor int64) float64 { return float64(minor) / 100 }
