package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// In-memory stores enforcing the same uniqueness constraints the database
// does, so the service's retry logic can be exercised for real.

type memCustomerStore struct {
	mu      sync.Mutex
	byEmail map[string]Customer // key lower(email)
	byID    map[string]Customer
}

func newMemCustomerStore() *memCustomerStore {
	return &memCustomerStore{byEmail: map[string]Customer{}, byID: map[string]Customer{}}
}

func (m *memCustomerStore) GetByEmail(_ context.Context, email string) (Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (m *memCustomerStore) GetByID(_ context.Context, id string) (Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return Customer{}, ErrNotFound
	}
	return c, nil
}

func (m *memCustomerStore) Create(_ context.Context, c Customer) (Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(c.Email)
	if _, ok := m.byEmail[key]; ok {
		return Customer{}, ErrEmailTaken
	}
	m.byEmail[key] = c
	m.byID[c.ID] = c
	return c, nil
}

type memOrderStore struct {
	mu     sync.Mutex
	byCode map[string]Order
	byRef  map[string]string // payment_reference -> code

	// forceCodeConflicts makes the next N inserts fail with ErrCodeTaken
	forceCodeConflicts int
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{byCode: map[string]Order{}, byRef: map[string]string{}}
}

func (m *memOrderStore) Insert(_ context.Context, o Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceCodeConflicts > 0 {
		m.forceCodeConflicts--
		return ErrCodeTaken
	}
	if _, ok := m.byCode[o.OrderCode]; ok {
		return ErrCodeTaken
	}
	m.byCode[o.OrderCode] = o
	return nil
}

func (m *memOrderStore) GetByCode(_ context.Context, code string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byCode[code]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *memOrderStore) GetByPaymentReference(_ context.Context, ref string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.byRef[ref]
	if !ok {
		return Order{}, ErrNotFound
	}
	return m.byCode[code], nil
}

func (m *memOrderStore) ListByCustomer(_ context.Context, customerID string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.byCode {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrderStore) SetPaymentReference(_ context.Context, orderID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, o := range m.byCode {
		if o.ID != orderID {
			continue
		}
		if o.PaymentReference != "" {
			return ErrPaymentAlreadyInitialized
		}
		o.PaymentReference = ref
		m.byCode[code] = o
		m.byRef[ref] = code
		return nil
	}
	return ErrNotFound
}

func (m *memOrderStore) MarkPaymentSucceeded(_ context.Context, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.byRef[ref]
	if !ok {
		return false, ErrNotFound
	}
	o := m.byCode[code]
	if !CanTransitionPayment(o.PaymentStatus, PaymentSuccess) || !CanTransition(o.Status, StatusPaid) {
		return false, nil
	}
	o.Status = StatusPaid
	o.PaymentStatus = PaymentSuccess
	m.byCode[code] = o
	return true, nil
}

func (m *memOrderStore) MarkPaymentFailed(_ context.Context, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.byRef[ref]
	if !ok {
		return false, ErrNotFound
	}
	o := m.byCode[code]
	if !CanTransitionPayment(o.PaymentStatus, PaymentFailed) || IsTerminal(o.Status) {
		return false, nil
	}
	o.PaymentStatus = PaymentFailed
	m.byCode[code] = o
	return true, nil
}

func newTestService() (*Service, *memCustomerStore, *memOrderStore) {
	cs := newMemCustomerStore()
	os := newMemOrderStore()
	return &Service{Customers: cs, Orders: os}, cs, os
}

func TestResolveOrCreateCustomer_Idempotent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.ResolveOrCreateCustomer(ctx, CustomerProfile{
		Email: "a@b.com", FirstName: "A", LastName: "B", Phone: "123",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// same email, different case and different profile fields: the existing
	// customer comes back unchanged, nothing is overwritten
	second, err := svc.ResolveOrCreateCustomer(ctx, CustomerProfile{
		Email: "A@B.COM", FirstName: "Other", LastName: "Name", Phone: "999",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same customer, got %s and %s", first.ID, second.ID)
	}
	if second.FirstName != "A" || second.Phone != "123" {
		t.Errorf("existing customer was overwritten: %+v", second)
	}
}

func TestResolveOrCreateCustomer_MissingEmail(t *testing.T) {
	svc, _, _ := newTestService()
	var ve *ValidationError
	_, err := svc.ResolveOrCreateCustomer(context.Background(), CustomerProfile{})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateOrder_Scenario(t *testing.T) {
	svc, _, store := newTestService()
	ctx := context.Background()

	// totalAmount is taken from the caller even though the items sum to the
	// same value here; the service deliberately does not recompute it
	// (known trust gap, preserved behavior)
	o, err := svc.CreateOrder(ctx,
		CustomerProfile{Email: "a@b.com", FirstName: "A", LastName: "B", Phone: "123"},
		TypeFood,
		[]LineItem{{ID: "x", Name: "Pizza", UnitPrice: 10, Quantity: 2}},
		20,
	)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if o.Status != StatusPending || o.PaymentStatus != PaymentPending {
		t.Errorf("new order state = %s/%s, want pending/pending", o.Status, o.PaymentStatus)
	}
	if !strings.HasPrefix(o.OrderCode, "PH") {
		t.Errorf("order code %q does not start with PH", o.OrderCode)
	}
	if o.TotalAmount != 20 {
		t.Errorf("totalAmount = %v, want caller-supplied 20", o.TotalAmount)
	}

	// reconcile: success signal for its reference
	if err := store.SetPaymentReference(ctx, o.ID, "ref-1"); err != nil {
		t.Fatalf("set reference: %v", err)
	}
	if _, err := store.MarkPaymentSucceeded(ctx, "ref-1"); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}
	got, err := store.GetByCode(ctx, o.OrderCode)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusPaid || got.PaymentStatus != PaymentSuccess {
		t.Errorf("after success: %s/%s, want paid/success", got.Status, got.PaymentStatus)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	profile := CustomerProfile{Email: "a@b.com"}
	items := []LineItem{{ID: "x", Name: "Pizza", UnitPrice: 10, Quantity: 1}}

	cases := []struct {
		name  string
		typ   OrderType
		items []LineItem
		total float64
	}{
		{"bad type", OrderType("bus"), items, 10},
		{"no items", TypeFood, nil, 10},
		{"zero quantity", TypeFood, []LineItem{{ID: "x", Quantity: 0}}, 10},
		{"zero total", TypeFood, items, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var ve *ValidationError
			_, err := svc.CreateOrder(ctx, profile, c.typ, c.items, c.total)
			if !errors.As(err, &ve) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCreateOrder_CodeCollisionRetries(t *testing.T) {
	svc, _, store := newTestService()
	store.forceCodeConflicts = 2

	o, err := svc.CreateOrder(context.Background(),
		CustomerProfile{Email: "a@b.com"}, TypeFood,
		[]LineItem{{ID: "x", Name: "Pizza", UnitPrice: 10, Quantity: 1}}, 10)
	if err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if o.OrderCode == "" {
		t.Fatal("no code assigned")
	}
}

func TestCreateOrder_CodeAllocationExhausted(t *testing.T) {
	svc, _, store := newTestService()
	store.forceCodeConflicts = 1000

	_, err := svc.CreateOrder(context.Background(),
		CustomerProfile{Email: "a@b.com"}, TypeFood,
		[]LineItem{{ID: "x", Name: "Pizza", UnitPrice: 10, Quantity: 1}}, 10)
	if !errors.Is(err, ErrCodeAllocationExhausted) {
		t.Fatalf("expected ErrCodeAllocationExhausted, got %v", err)
	}
	// bounded: only MaxCodeAttempts inserts were attempted
	if got := 1000 - store.forceCodeConflicts; got != defaultMaxCodeAttempts {
		t.Errorf("attempted %d inserts, want %d", got, defaultMaxCodeAttempts)
	}
}

func TestCreateOrder_ConcurrentCodesDistinct(t *testing.T) {
	svc, _, store := newTestService()
	ctx := context.Background()

	const n = 1000
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx,
				CustomerProfile{Email: "a@b.com"}, TypeFood,
				[]LineItem{{ID: "x", Name: "Pizza", UnitPrice: 10, Quantity: 1}}, 10)
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent create failed: %v", err)
	}

	// the store's uniqueness constraint already guarantees pairwise
	// distinct codes; every order must have landed
	if len(store.byCode) != n {
		t.Fatalf("stored %d orders, want %d", len(store.byCode), n)
	}
}

func TestVerifyOwnership_CaseInsensitive(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx,
		CustomerProfile{Email: "a@x.com"}, TypeFood,
		[]LineItem{{ID: "x", Name: "Pizza", UnitPrice: 10, Quantity: 1}}, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.VerifyOwnership(ctx, "A@x.com", o.OrderCode); err != nil {
		t.Errorf("case-insensitive ownership check failed: %v", err)
	}
}

func TestVerifyOwnership_Mismatch(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateOrder(ctx,
		CustomerProfile{Email: "a@x.com"}, TypeFood,
		[]LineItem{{ID: "x", Name: "Pizza", UnitPrice: 10, Quantity: 1}}, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.VerifyOwnership(ctx, "someone.else@x.com", o.OrderCode)
	if !errors.Is(err, ErrOwnershipMismatch) {
		t.Errorf("expected ErrOwnershipMismatch, got %v", err)
	}
}

func TestVerifyOwnership_UnknownCode_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	// unknown code must report not-found, never ownership-mismatch
	_, err := svc.VerifyOwnership(context.Background(), "a@x.com", "PHZZZZZZ0000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVerifyOwnership_MissingEmail(t *testing.T) {
	svc, _, _ := newTestService()
	var ve *ValidationError
	_, err := svc.VerifyOwnership(context.Background(), "", "PH00000000AA")
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
