package orders

import "context"

// CustomerStore is durable customer storage with a case-insensitive
// uniqueness constraint on email.
type CustomerStore interface {
	GetByEmail(ctx context.Context, email string) (Customer, error)
	GetByID(ctx context.Context, id string) (Customer, error)
	// Create returns ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, c Customer) (Customer, error)
}

// OrderStore is durable order storage. Uniqueness of order codes and
// forward-only payment transitions are enforced here, not in process.
type OrderStore interface {
	// Insert returns ErrCodeTaken when o.OrderCode collides; callers
	// regenerate and retry.
	Insert(ctx context.Context, o Order) error
	GetByCode(ctx context.Context, code string) (Order, error)
	GetByPaymentReference(ctx context.Context, ref string) (Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)

	// SetPaymentReference sets the reference once; a second call returns
	// ErrPaymentAlreadyInitialized.
	SetPaymentReference(ctx context.Context, orderID, ref string) error

	// MarkPaymentSucceeded applies the success transition conditionally.
	// Returns true when the transition fired, false when the order was
	// already succeeded (only updatedAt is refreshed then).
	MarkPaymentSucceeded(ctx context.Context, ref string) (bool, error)

	// MarkPaymentFailed marks the payment failed without touching status.
	// Never fires on an already-succeeded order.
	MarkPaymentFailed(ctx context.Context, ref string) (bool, error)
}
