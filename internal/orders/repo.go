package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/palmhaven/order-api/internal/postgres"
)

type CustomerRepo struct{ DB *pgxpool.Pool }

var _ CustomerStore = (*CustomerRepo)(nil)

func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (Customer, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, created_at
		FROM customers WHERE lower(email) = lower($1)`, email)
	return scanCustomer(row)
}

func (r *CustomerRepo) GetByID(ctx context.Context, id string) (Customer, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, phone, created_at
		FROM customers WHERE id = $1`, id)
	return scanCustomer(row)
}

func (r *CustomerRepo) Create(ctx context.Context, c Customer) (Customer, error) {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO customers(id, email, first_name, last_name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Email, c.FirstName, c.LastName, c.Phone, c.CreatedAt)
	if postgres.IsUniqueViolation(err, "customers_email_lower_key") {
		return Customer{}, ErrEmailTaken
	}
	if err != nil {
		return Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, err
	}
	return c, nil
}

type OrderRepo struct{ DB *pgxpool.Pool }

var _ OrderStore = (*OrderRepo)(nil)

const orderColumns = `id, customer_id, order_code, order_type, items, total_amount,
	status, payment_reference, payment_status, created_at, updated_at`

func (r *OrderRepo) Insert(ctx context.Context, o Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO orders(id, customer_id, order_code, order_type, items,
			total_amount, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.CustomerID, o.OrderCode, o.Type, items,
		o.TotalAmount, o.Status, o.PaymentStatus, o.CreatedAt, o.UpdatedAt)
	if postgres.IsUniqueViolation(err, "orders_order_code_key") {
		return ErrCodeTaken
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepo) GetByCode(ctx context.Context, code string) (Order, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_code = $1`, code)
	return scanOrder(row)
}

func (r *OrderRepo) GetByPaymentReference(ctx context.Context, ref string) (Order, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_reference = $1`, ref)
	return scanOrder(row)
}

func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OrderRepo) SetPaymentReference(ctx context.Context, orderID, ref string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET payment_reference = $2, updated_at = now()
		WHERE id = $1 AND payment_reference IS NULL`, orderID, ref)
	if err != nil {
		return fmt.Errorf("set payment reference: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrPaymentAlreadyInitialized
}

// MarkPaymentSucceeded is a single conditional update so the verify and
// webhook paths can race freely: both converge on the same target state.
// The WHERE guards come from the lifecycle transition tables, so an order
// in a state with no legal path to paid/success (cancelled, most notably)
// is left untouched.
func (r *OrderRepo) MarkPaymentSucceeded(ctx context.Context, ref string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status = $2, payment_status = $3, updated_at = now()
		WHERE payment_reference = $1
		  AND status = ANY($4)
		  AND payment_status = ANY($5)`,
		ref, StatusPaid, PaymentSuccess,
		statusStrings(StatusesAllowing(StatusPaid)),
		paymentStrings(PaymentStatusesAllowing(PaymentSuccess)))
	if err != nil {
		return false, fmt.Errorf("mark payment succeeded: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return true, nil
	}

	// already succeeded: refresh updatedAt only
	ct, err = r.DB.Exec(ctx, `
		UPDATE orders SET updated_at = now()
		WHERE payment_reference = $1 AND payment_status = $2`, ref, PaymentSuccess)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 1 {
		return false, nil
	}

	// order exists but the transition is not legal from its state: no-op
	var exists bool
	if err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE payment_reference = $1)`, ref).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *OrderRepo) MarkPaymentFailed(ctx context.Context, ref string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET payment_status = $2, updated_at = now()
		WHERE payment_reference = $1
		  AND payment_status = ANY($3)
		  AND status = ANY($4)`,
		ref, PaymentFailed,
		paymentStrings(PaymentStatusesAllowing(PaymentFailed)),
		statusStrings(NonTerminalStatuses()))
	if err != nil {
		return false, fmt.Errorf("mark payment failed: %w", err)
	}
	if ct.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE payment_reference = $1)`, ref).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func statusStrings(ss []Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

func paymentStrings(ps []PaymentStatus) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o     Order
		items []byte
		ref   *string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.OrderCode, &o.Type, &items,
		&o.TotalAmount, &o.Status, &ref, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	if ref != nil {
		o.PaymentReference = *ref
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return Order{}, fmt.Errorf("decode items: %w", err)
		}
	}
	return o, nil
}
