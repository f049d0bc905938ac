package order

import (
	"encoding/json"
	"fmt"
	"time"
)

// PaymentState is a closed set of payment lifecycle states stored as an
// integer code.
type PaymentState int

const (
	PaymentPending  PaymentState = 1
	PaymentPaid     PaymentState = 2
	PaymentCanceled PaymentState = 3
)

func (s PaymentState) String() string {
	switch s {
	case PaymentPending:
		return "Pending"
	case PaymentPaid:
		return "Paid"
	case PaymentCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("PaymentState(%d)", int(s))
	}
}

// Code returns the stable integer code persisted for the state.
func (s PaymentState) Code() int {
	return int(s)
}

// ParsePaymentState converts a stored integer code back into its
// PaymentState. Unmapped codes are an error.
func ParsePaymentState(code int) (PaymentState, error) {
	switch code {
	case 1:
		return PaymentPending, nil
	case 2:
		return PaymentPaid, nil
	case 3:
		return PaymentCanceled, nil
	default:
		return 0, fmt.Errorf("invalid payment state code: %d", code)
	}
}

// PaymentMethod is the wire and storage discriminator for the payment
// variants.
type PaymentMethod string

const (
	MethodBoleto PaymentMethod = "boleto"
	MethodCard   PaymentMethod = "card"
)

// Payment is the tagged union of the two payment variants. Its identity
// is the owning order's id (one payment row per order, shared primary
// key). Installments is set only for card payments; DueDate and
// PaidDate only for boleto.
type Payment struct {
	OrderID      int64         `db:"order_id"`
	State        PaymentState  `db:"state"`
	Method       PaymentMethod `db:"method"`
	Installments *int          `db:"installments"`
	DueDate      *time.Time    `db:"due_date"`
	PaidDate     *time.Time    `db:"paid_date"`
}

type paymentJSON struct {
	OrderID      int64         `json:"order_id"`
	State        int           `json:"state"`
	Method       PaymentMethod `json:"method"`
	Installments *int          `json:"installments,omitempty"`
	DueDate      *time.Time    `json:"due_date,omitempty"`
	PaidDate     *time.Time    `json:"paid_date,omitempty"`
}

// MarshalJSON emits the variant fields keyed by the method
// discriminator; fields of the other variant are dropped.
func (p Payment) MarshalJSON() ([]byte, error) {
	out := paymentJSON{
		OrderID: p.OrderID,
		State:   p.State.Code(),
		Method:  p.Method,
	}
	switch p.Method {
	case MethodCard:
		out.Installments = p.Installments
	case MethodBoleto:
		out.DueDate = p.DueDate
		out.PaidDate = p.PaidDate
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a payment, rejecting unknown discriminators so
// a payment never deserializes into the wrong variant.
func (p *Payment) UnmarshalJSON(data []byte) error {
	var in paymentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	switch in.Method {
	case MethodBoleto, MethodCard:
	default:
		return fmt.Errorf("unknown payment method %q", in.Method)
	}

	// An omitted or zero state means the payment has not advanced past
	// creation; every nonzero code must map to a defined state.
	state := PaymentPending
	if in.State != 0 {
		parsed, err := ParsePaymentState(in.State)
		if err != nil {
			return err
		}
		state = parsed
	}

	*p = Payment{
		OrderID: in.OrderID,
		State:   state,
		Method:  in.Method,
	}
	switch in.Method {
	case MethodCard:
		p.Installments = in.Installments
	case MethodBoleto:
		p.DueDate = in.DueDate
		p.PaidDate = in.PaidDate
	}
	return nil
}

// OrderItem resolves the many-to-many between orders and products. Its
// identity is the (OrderID, ProductID) pair; there is no surrogate id.
type OrderItem struct {
	OrderID     int64   `json:"order_id" db:"order_id"`
	ProductID   int64   `json:"product_id" db:"product_id"`
	ProductName string  `json:"product_name,omitempty" db:"product_name"`
	Price       float64 `json:"price" db:"price"`
	Discount    float64 `json:"discount" db:"discount"`
	Quantity    int     `json:"quantity" db:"quantity"`
}

// Subtotal is (price - discount) x quantity.
func (i OrderItem) Subtotal() float64 {
	return (i.Price - i.Discount) * float64(i.Quantity)
}

// Order is the aggregate root: it owns its payment (shared identity)
// and its items. The customer's other orders are reached by querying,
// not by back-pointers.
type Order struct {
	ID         int64       `json:"id" db:"id"`
	PlacedAt   time.Time   `json:"placed_at" db:"placed_at"`
	CustomerID int64       `json:"customer_id" db:"customer_id"`
	AddressID  int64       `json:"address_id" db:"address_id"`
	Payment    Payment     `json:"payment" db:"-"`
	Items      []OrderItem `json:"items" db:"-"`
}

// Total sums the item subtotals. An order with no items totals zero.
// The sum is a plain float64 accumulation; no rounding is applied
// anywhere in the money path.
func (o *Order) Total() float64 {
	total := 0.0
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total
}

// Equal implements identity-based equality, same contract as the other
// entities.
func (o *Order) Equal(other *Order) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil {
		return false
	}
	return o.ID != 0 && other.ID != 0 && o.ID == other.ID
}

// boletoDueDateOffset is counted in calendar days so the due date keeps
// the order's wall-clock time across daylight-saving transitions.
const boletoDueDateOffsetDays = 7

// FillBoletoDueDate sets the boleto due date from the order placement
// instant. Newly issued boletos have no paid date.
func FillBoletoDueDate(p *Payment, placedAt time.Time) {
	due := placedAt.AddDate(0, 0, boletoDueDateOffsetDays)
	p.DueDate = &due
}
