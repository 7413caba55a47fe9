package receipts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Receipt is the projection of a succeeded payment, keyed by the gateway
// reference so duplicate deliveries collapse to one row.
type Receipt struct {
	ID         string
	OrderID    string
	OrderCode  string
	PaymentRef string
	Amount     float64
	PaidAt     time.Time
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Record(ctx context.Context, rec Receipt) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO receipts(id, order_id, order_code, payment_reference, amount, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (payment_reference) DO NOTHING`,
		rec.ID, rec.OrderID, rec.OrderCode, rec.PaymentRef, rec.Amount, rec.PaidAt)
	if err != nil {
		return fmt.Errorf("record receipt: %w", err)
	}
	return nil
}
