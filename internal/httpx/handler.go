package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/palmhaven/order-api/internal/kafka"
	"github.com/palmhaven/order-api/internal/orders"
	"github.com/palmhaven/order-api/internal/payments"
	"github.com/palmhaven/order-api/internal/paystack"
	"github.com/palmhaven/order-api/internal/redisx"
)

type Handler struct {
	Service    *orders.Service
	Reconciler *payments.Reconciler
	Redis      *redis.Client
	Producer   *kafkax.Producer // order.created

	ServiceName string
}

type CreateOrderReq struct {
	Customer    orders.CustomerProfile `json:"customer"`
	Type        orders.OrderType       `json:"type"`
	Items       []orders.LineItem      `json:"items"`
	TotalAmount float64                `json:"totalAmount"`
}

type VerifyOwnershipReq struct {
	Email     string `json:"email"`
	OrderCode string `json:"orderCode"`
}

func (h *Handler) Register(r *chi.Mux) {
	r.Post("/api/customers", h.createCustomer)
	r.Post("/api/orders", h.createOrder)
	r.Post("/api/payments/initialize", h.initializePayment)
	r.Post("/api/payments/verify", h.verifyPayment)
	r.Get("/api/orders/customer/{email}", h.listCustomerOrders)
	r.Get("/api/orders/track/{orderCode}", h.trackOrder)
	r.Post("/api/orders/verify", h.verifyOwnership)
	r.Post("/api/webhooks/paystack", h.paystackWebhook)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req orders.CustomerProfile
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Service.ResolveOrCreateCustomer(ctx, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"customer": c})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.CreateOrder(ctx, req.Customer, req.Type, req.Items, req.TotalAmount)
	if err != nil {
		writeErr(w, err)
		return
	}

	if h.Producer != nil {
		ev := orders.Envelope{
			EventID:       uuid.NewString(),
			EventType:     orders.EventOrderCreated,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.ServiceName,
			TraceID:       r.Header.Get("X-Request-Id"),
			CorrelationID: o.OrderCode,
		}
		ev.Payload = kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:     o.ID,
			OrderCode:   o.OrderCode,
			CustomerID:  o.CustomerID,
			Type:        o.Type,
			TotalAmount: o.TotalAmount,
		})
		h.Producer.Publish(orders.PartitionKey(o.OrderCode), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}

	writeJSON(w, http.StatusCreated, map[string]any{"order": o, "orderCode": o.OrderCode})
}

func (h *Handler) initializePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderCode string `json:"orderCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderCode == "" {
		writeError(w, http.StatusBadRequest, "orderCode is required", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	auth, err := h.Reconciler.InitializePayment(ctx, req.OrderCode)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, auth)
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reference == "" {
		writeError(w, http.StatusBadRequest, "reference is required", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	out, err := h.Reconciler.VerifyPayment(ctx, req.Reference)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cust, list, err := h.Service.ListByEmail(ctx, email)
	if err != nil {
		writeErr(w, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list, "customer": cust})
}

func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "orderCode")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first, DB as truth
	key := fmt.Sprintf(redisx.KeyOrderTrack, code)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	o, err := h.Service.TrackByCode(ctx, code)
	if err != nil {
		writeErr(w, err)
		return
	}
	body, _ := json.Marshal(map[string]any{"order": o})
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, body, redisx.TTLTrackCache).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) verifyOwnership(w http.ResponseWriter, r *http.Request) {
	var req VerifyOwnershipReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.VerifyOwnership(ctx, req.Email, req.OrderCode)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": o})
}

func (h *Handler) paystackWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read body", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sig := r.Header.Get(paystack.SignatureHeader)
	if err := h.Reconciler.HandleWebhook(ctx, body, sig); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	// always ack otherwise, including unmatched signatures and unknown
	// orders, so the gateway does not retry-storm us
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
