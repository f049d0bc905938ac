package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fmagalhaes/storefront-backend/internal/catalog"
	"github.com/fmagalhaes/storefront-backend/internal/page"
)

// ProductFinder is the slice of the catalog the order service needs:
// item prices are always resolved against the stored product, never
// taken from the caller.
type ProductFinder interface {
	GetProductByID(ctx context.Context, id int64) (*catalog.Product, error)
}

type Service interface {
	Create(ctx context.Context, o *Order) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByCustomer(ctx context.Context, customerID int64, req page.Request) (page.Page[Order], error)
}

type service struct {
	repo     Repository
	products ProductFinder
	now      func() time.Time
}

func NewService(repo Repository, products ProductFinder) Service {
	return &service{
		repo:     repo,
		products: products,
		now:      time.Now,
	}
}

// Create runs the order placement orchestration: the order gets an
// unassigned id and the current timestamp, the payment starts Pending
// and is linked back to the order, boleto payments get a due date seven
// calendar days after placement, and every item has its discount zeroed
// and its unit price copied from the stored product.
func (s *service) Create(ctx context.Context, o *Order) (*Order, error) {
	if len(o.Items) == 0 {
		log.Warn().Msg("service: attempt to place an order with no items")
		return nil, errors.New("service: order must contain at least one item")
	}

	o.ID = 0
	o.PlacedAt = s.now()

	o.Payment.State = PaymentPending
	o.Payment.OrderID = 0 // linked after the order id is minted
	o.Payment.PaidDate = nil

	switch o.Payment.Method {
	case MethodBoleto:
		FillBoletoDueDate(&o.Payment, o.PlacedAt)
		o.Payment.Installments = nil
	case MethodCard:
		if o.Payment.Installments == nil || *o.Payment.Installments <= 0 {
			return nil, errors.New("service: card payment requires a positive number of installments")
		}
		o.Payment.DueDate = nil
	default:
		return nil, fmt.Errorf("service: unknown payment method %q", o.Payment.Method)
	}

	seen := make(map[int64]bool, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]

		if item.Quantity <= 0 {
			return nil, fmt.Errorf("service: item quantity for product %d must be greater than zero", item.ProductID)
		}
		if seen[item.ProductID] {
			return nil, ErrDuplicateItem
		}
		seen[item.ProductID] = true

		product, err := s.products.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				log.Warn().Int64("product_id", item.ProductID).Msg("service: order references an unknown product")
				return nil, fmt.Errorf("%w: product %d", catalog.ErrProductNotFound, item.ProductID)
			}
			log.Error().Err(err).Int64("product_id", item.ProductID).Msg("service: failed to resolve item price")
			return nil, fmt.Errorf("service: failed to resolve price for product %d: %w", item.ProductID, err)
		}

		// The caller never sets the price or the discount.
		item.Price = product.Price
		item.ProductName = product.Name
		item.Discount = 0
		item.OrderID = 0
	}

	created, err := s.repo.Create(ctx, o)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) || errors.Is(err, ErrAddressNotFound) || errors.Is(err, ErrDuplicateItem) {
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create order")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().
		Int64("order_id", created.ID).
		Int64("customer_id", created.CustomerID).
		Str("payment_method", string(created.Payment.Method)).
		Float64("total", created.Total()).
		Msg("service: order placed")

	return created, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Int64("order_id", id).Msg("service: order not found")
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("order_id", id).Msg("service: failed to fetch order")
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}
	return o, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID int64, req page.Request) (page.Page[Order], error) {
	p, err := s.repo.ListByCustomer(ctx, customerID, req)
	if err != nil {
		log.Error().Err(err).Int64("customer_id", customerID).Msg("service: failed to list customer orders")
		return page.Page[Order]{}, fmt.Errorf("service: failed to list customer orders: %w", err)
	}
	return p, nil
}
