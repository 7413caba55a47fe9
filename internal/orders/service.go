package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultMaxCodeAttempts = 5

type CustomerProfile struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// Service orchestrates customer resolution and order creation. It holds no
// state of its own; all uniqueness guarantees come from the stores.
type Service struct {
	Customers CustomerStore
	Orders    OrderStore

	// MaxCodeAttempts bounds order-code regeneration, default 5.
	MaxCodeAttempts int
}

// ResolveOrCreateCustomer is an idempotent get-or-create keyed by
// case-insensitive email. An existing customer is returned unchanged.
func (s *Service) ResolveOrCreateCustomer(ctx context.Context, p CustomerProfile) (Customer, error) {
	if strings.TrimSpace(p.Email) == "" {
		return Customer{}, invalid("email", "required")
	}

	c, err := s.Customers.GetByEmail(ctx, p.Email)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Customer{}, err
	}

	c, err = s.Customers.Create(ctx, Customer{
		ID:        uuid.NewString(),
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		CreatedAt: time.Now().UTC(),
	})
	if errors.Is(err, ErrEmailTaken) {
		// lost the insert race; the winner's row is the customer
		return s.Customers.GetByEmail(ctx, p.Email)
	}
	return c, err
}

// CreateOrder resolves the customer, then allocates a unique order code by
// optimistic proposal: insert, and on a code conflict regenerate, bounded.
// totalAmount is taken from the caller as-is and never recomputed from items.
func (s *Service) CreateOrder(ctx context.Context, profile CustomerProfile, typ OrderType, items []LineItem, totalAmount float64) (Order, error) {
	if typ != TypeRoom && typ != TypeFood {
		return Order{}, invalid("type", "must be room or food")
	}
	if len(items) == 0 {
		return Order{}, invalid("items", "required")
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return Order{}, invalid("items", "quantity must be at least 1")
		}
	}
	if totalAmount <= 0 {
		return Order{}, invalid("totalAmount", "must be positive")
	}

	cust, err := s.ResolveOrCreateCustomer(ctx, profile)
	if err != nil {
		return Order{}, err
	}

	now := time.Now().UTC()
	o := Order{
		ID:            uuid.NewString(),
		CustomerID:    cust.ID,
		Type:          typ,
		Items:         items,
		TotalAmount:   totalAmount,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	attempts := s.MaxCodeAttempts
	if attempts <= 0 {
		attempts = defaultMaxCodeAttempts
	}
	for i := 0; i < attempts; i++ {
		o.OrderCode = GenerateCode()
		err := s.Orders.Insert(ctx, o)
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		if err != nil {
			return Order{}, err
		}
		return o, nil
	}
	return Order{}, ErrCodeAllocationExhausted
}

func (s *Service) TrackByCode(ctx context.Context, code string) (Order, error) {
	if code == "" {
		return Order{}, invalid("orderCode", "required")
	}
	return s.Orders.GetByCode(ctx, code)
}

// VerifyOwnership distinguishes an unknown code (ErrNotFound) from a known
// order whose customer email differs (ErrOwnershipMismatch); callers map
// these to different responses.
func (s *Service) VerifyOwnership(ctx context.Context, email, code string) (Order, error) {
	if strings.TrimSpace(email) == "" {
		return Order{}, invalid("email", "required")
	}
	o, err := s.Orders.GetByCode(ctx, code)
	if err != nil {
		return Order{}, err
	}
	cust, err := s.Customers.GetByID(ctx, o.CustomerID)
	if err != nil {
		return Order{}, err
	}
	if !strings.EqualFold(cust.Email, email) {
		return Order{}, ErrOwnershipMismatch
	}
	return o, nil
}

func (s *Service) ListByEmail(ctx context.Context, email string) (Customer, []Order, error) {
	cust, err := s.Customers.GetByEmail(ctx, email)
	if err != nil {
		return Customer{}, nil, err
	}
	list, err := s.Orders.ListByCustomer(ctx, cust.ID)
	if err != nil {
		return Customer{}, nil, err
	}
	return cust, list, nil
}
