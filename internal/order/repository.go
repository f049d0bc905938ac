package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fmagalhaes/storefront-backend/internal/page"
)

var (
	ErrNotFound         = errors.New("order not found")
	ErrCustomerNotFound = errors.New("order customer not found")
	ErrAddressNotFound  = errors.New("order delivery address not found")
	ErrDuplicateItem    = errors.New("order has more than one item for the same product")
)

var OrderSortFields = []string{"id", "placed_at"}

type Repository interface {
	Create(ctx context.Context, o *Order) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByCustomer(ctx context.Context, customerID int64, req page.Request) (page.Page[Order], error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// Create persists the order, then its payment, then its items, in that
// dependency order and inside one transaction: payment and items both
// carry foreign keys to the order id minted by the first insert.
func (r *postgresRepository) Create(ctx context.Context, o *Order) (orderOut *Order, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
		}
	}()

	orderQuery := `
		INSERT INTO orders (placed_at, customer_id, address_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err = tx.QueryRow(ctx, orderQuery, o.PlacedAt, o.CustomerID, o.AddressID).Scan(&o.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			switch pgErr.ConstraintName {
			case "orders_customer_id_fkey":
				return nil, ErrCustomerNotFound
			case "orders_address_id_fkey":
				return nil, ErrAddressNotFound
			}
		}
		return nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}

	// Shared primary key: the payment row's id is the order's id.
	o.Payment.OrderID = o.ID

	paymentQuery := `
		INSERT INTO payments (order_id, state, method, installments, due_date, paid_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, paymentQuery,
		o.Payment.OrderID,
		o.Payment.State.Code(),
		string(o.Payment.Method),
		o.Payment.Installments,
		o.Payment.DueDate,
		o.Payment.PaidDate,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert payment for order %d: %w", o.ID, err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, price, discount, quantity)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		_, err = tx.Exec(ctx, itemQuery, item.OrderID, item.ProductID, item.Price, item.Discount, item.Quantity)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				// (order_id, product_id) is the item's primary key.
				return nil, ErrDuplicateItem
			}
			return nil, fmt.Errorf("repository: failed to insert item for order %d product %d: %w", o.ID, item.ProductID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return o, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Order, error) {
	orderQuery := `
		SELECT o.id, o.placed_at, o.customer_id, o.address_id,
		       p.state, p.method, p.installments, p.due_date, p.paid_date
		FROM orders o
		JOIN payments p ON p.order_id = o.id
		WHERE o.id = $1
	`

	var o Order
	var stateCode int
	var method string
	err := r.db.QueryRow(ctx, orderQuery, id).Scan(
		&o.ID,
		&o.PlacedAt,
		&o.CustomerID,
		&o.AddressID,
		&stateCode,
		&method,
		&o.Payment.Installments,
		&o.Payment.DueDate,
		&o.Payment.PaidDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %d: %w", id, err)
	}

	o.Payment.OrderID = o.ID
	o.Payment.Method = PaymentMethod(method)
	o.Payment.State, err = ParsePaymentState(stateCode)
	if err != nil {
		return nil, fmt.Errorf("repository: order %d has a corrupt payment state: %w", id, err)
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *postgresRepository) listItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	itemQuery := `
		SELECT i.order_id, i.product_id, pr.name, i.price, i.discount, i.quantity
		FROM order_items i
		JOIN products pr ON pr.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.product_id
	`

	rows, err := r.db.Query(ctx, itemQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(&item.OrderID, &item.ProductID, &item.ProductName, &item.Price, &item.Discount, &item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan item for order %d: %w", orderID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating items for order %d: %w", orderID, err)
	}

	return items, nil
}

func (r *postgresRepository) ListByCustomer(ctx context.Context, customerID int64, req page.Request) (page.Page[Order], error) {
	if err := req.Validate(OrderSortFields...); err != nil {
		return page.Page[Order]{}, err
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE customer_id = $1`, customerID).Scan(&total); err != nil {
		return page.Page[Order]{}, fmt.Errorf("repository: failed to count orders for customer %d: %w", customerID, err)
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.placed_at, o.customer_id, o.address_id,
		       p.state, p.method, p.installments, p.due_date, p.paid_date
		FROM orders o
		JOIN payments p ON p.order_id = o.id
		WHERE o.customer_id = $1
		ORDER BY o.%s %s
		LIMIT $2 OFFSET $3`,
		req.SortBy, req.Direction,
	)

	rows, err := r.db.Query(ctx, query, customerID, req.Size, req.Offset())
	if err != nil {
		return page.Page[Order]{}, fmt.Errorf("repository: failed to query orders for customer %d: %w", customerID, err)
	}
	defer rows.Close()

	orders := make([]Order, 0, req.Size)
	for rows.Next() {
		var o Order
		var stateCode int
		var method string
		err := rows.Scan(
			&o.ID,
			&o.PlacedAt,
			&o.CustomerID,
			&o.AddressID,
			&stateCode,
			&method,
			&o.Payment.Installments,
			&o.Payment.DueDate,
			&o.Payment.PaidDate,
		)
		if err != nil {
			return page.Page[Order]{}, fmt.Errorf("repository: failed to scan order for customer %d: %w", customerID, err)
		}
		o.Payment.OrderID = o.ID
		o.Payment.Method = PaymentMethod(method)
		o.Payment.State, err = ParsePaymentState(stateCode)
		if err != nil {
			return page.Page[Order]{}, fmt.Errorf("repository: order %d has a corrupt payment state: %w", o.ID, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return page.Page[Order]{}, fmt.Errorf("repository: error iterating orders for customer %d: %w", customerID, err)
	}

	for i := range orders {
		items, err := r.listItems(ctx, orders[i].ID)
		if err != nil {
			return page.Page[Order]{}, err
		}
		orders[i].Items = items
	}

	return page.New(orders, req, total), nil
}
