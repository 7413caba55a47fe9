package orders

import "time"

type OrderType string

const (
	TypeRoom OrderType = "room"
	TypeFood OrderType = "food"
)

type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

// LineItem carries both room and food fields; the unused ones stay empty
// depending on the order type.
type LineItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	CheckIn   string  `json:"checkIn,omitempty"`
	CheckOut  string  `json:"checkOut,omitempty"`
	Category  string  `json:"category,omitempty"`
}

type Order struct {
	ID               string        `json:"id"`
	CustomerID       string        `json:"customerId"`
	OrderCode        string        `json:"orderCode"`
	Type             OrderType     `json:"type"`
	Items            []LineItem    `json:"items"`
	TotalAmount      float64       `json:"totalAmount"`
	Status           Status        `json:"status"`
	PaymentReference string        `json:"paymentReference,omitempty"`
	PaymentStatus    PaymentStatus `json:"paymentStatus"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
