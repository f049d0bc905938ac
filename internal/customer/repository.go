package customer

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
	ErrNotFound      = errors.New("customer not found")
	ErrStateNotFound = errors.New("state not found")
	ErrCityNotFound  = errors.New("city not found")
	ErrEmailExists   = errors.New("email already registered")

	// ErrCustomerHasOrders is the domain translation of the
	// foreign-key violation raised when deleting a customer that
	// orders still reference.
	ErrCustomerHasOrders = errors.New("cannot delete a customer that has orders")
)

var CustomerSortFields = []string{"id", "name", "email"}

type Repository interface {
	Create(ctx context.Context, c *Customer) (*Customer, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]Customer, error)
	ListPage(ctx context.Context, req page.Request) (page.Page[Customer], error)

	ListStates(ctx context.Context) ([]State, error)
	ListCitiesByState(ctx context.Context, stateID int64) ([]City, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// Create inserts the customer together with its addresses in one
// transaction; addresses carry a foreign key to the freshly minted
// customer id.
func (r *postgresRepository) Create(ctx context.Context, c *Customer) (customerOut *Customer, err error) {
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

	query := `
		INSERT INTO customers (name, email, tax_id, type, phones)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query, c.Name, c.Email, c.TaxID, c.Type.Code(), c.Phones).Scan(&c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("repository: failed to insert customer: %w", err)
	}

	for i := range c.Addresses {
		addr := &c.Addresses[i]
		addr.CustomerID = c.ID

		addrQuery := `
			INSERT INTO addresses (street, number, complement, district, zip_code, customer_id, city_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`
		err = tx.QueryRow(ctx, addrQuery,
			addr.Street, addr.Number, addr.Complement, addr.District, addr.ZipCode, addr.CustomerID, addr.CityID,
		).Scan(&addr.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return nil, ErrCityNotFound
			}
			return nil, fmt.Errorf("repository: failed to insert address for customer %d: %w", c.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return c, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Customer, error) {
	query := `SELECT id, name, email, tax_id, type, phones FROM customers WHERE id = $1`

	var c Customer
	var typeCode int
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.TaxID, &typeCode, &c.Phones)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer by id %d: %w", id, err)
	}

	c.Type, err = ParseClientType(typeCode)
	if err != nil {
		return nil, fmt.Errorf("repository: customer %d has a corrupt type column: %w", id, err)
	}

	addresses, err := r.listAddresses(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Addresses = addresses

	return &c, nil
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	query := `SELECT id, name, email, tax_id, type, phones FROM customers WHERE email = $1`

	var c Customer
	var typeCode int
	err := r.db.QueryRow(ctx, query, email).Scan(&c.ID, &c.Name, &c.Email, &c.TaxID, &typeCode, &c.Phones)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select customer by email %s: %w", email, err)
	}

	c.Type, err = ParseClientType(typeCode)
	if err != nil {
		return nil, fmt.Errorf("repository: customer %d has a corrupt type column: %w", c.ID, err)
	}

	addresses, err := r.listAddresses(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Addresses = addresses

	return &c, nil
}

func (r *postgresRepository) listAddresses(ctx context.Context, customerID int64) ([]Address, error) {
	query := `
		SELECT id, street, number, complement, district, zip_code, customer_id, city_id
		FROM addresses
		WHERE customer_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query addresses for customer %d: %w", customerID, err)
	}
	defer rows.Close()

	addresses := make([]Address, 0)
	for rows.Next() {
		var a Address
		err := rows.Scan(&a.ID, &a.Street, &a.Number, &a.Complement, &a.District, &a.ZipCode, &a.CustomerID, &a.CityID)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan address for customer %d: %w", customerID, err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating addresses for customer %d: %w", customerID, err)
	}

	return addresses, nil
}

func (r *postgresRepository) Update(ctx context.Context, c *Customer) error {
	query := `UPDATE customers SET name = $1, email = $2 WHERE id = $3`

	cmdTag, err := r.db.Exec(ctx, query, c.Name, c.Email, c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrEmailExists
		}
		return fmt.Errorf("repository: failed to update customer %d: %w", c.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) (err error) {
	// Addresses belong to the customer and go with it; only orders may
	// hold the customer back.
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM addresses WHERE customer_id = $1`, id); err != nil {
		// Orders reference the delivery address, so a customer with
		// orders trips the foreign key here, before the customer row.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrCustomerHasOrders
		}
		return fmt.Errorf("repository: failed to delete addresses for customer %d: %w", id, err)
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrCustomerHasOrders
		}
		return fmt.Errorf("repository: failed to delete customer %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return nil
}

func (r *postgresRepository) List(ctx context.Context) ([]Customer, error) {
	query := `SELECT id, name, email, tax_id, type, phones FROM customers ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query customers: %w", err)
	}
	defer rows.Close()

	return scanCustomers(rows)
}

func (r *postgresRepository) ListPage(ctx context.Context, req page.Request) (page.Page[Customer], error) {
	if err := req.Validate(CustomerSortFields...); err != nil {
		return page.Page[Customer]{}, err
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM customers`).Scan(&total); err != nil {
		return page.Page[Customer]{}, fmt.Errorf("repository: failed to count customers: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT id, name, email, tax_id, type, phones FROM customers ORDER BY %s %s LIMIT $1 OFFSET $2`,
		req.SortBy, req.Direction,
	)

	rows, err := r.db.Query(ctx, query, req.Size, req.Offset())
	if err != nil {
		return page.Page[Customer]{}, fmt.Errorf("repository: failed to query customer page: %w", err)
	}
	defer rows.Close()

	customers, err := scanCustomers(rows)
	if err != nil {
		return page.Page[Customer]{}, err
	}

	return page.New(customers, req, total), nil
}

func scanCustomers(rows pgx.Rows) ([]Customer, error) {
	customers := make([]Customer, 0)
	for rows.Next() {
		var c Customer
		var typeCode int
		err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.TaxID, &typeCode, &c.Phones)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan customer: %w", err)
		}
		c.Type, err = ParseClientType(typeCode)
		if err != nil {
			return nil, fmt.Errorf("repository: customer %d has a corrupt type column: %w", c.ID, err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating customers: %w", err)
	}
	return customers, nil
}

func (r *postgresRepository) ListStates(ctx context.Context) ([]State, error) {
	query := `SELECT id, name FROM states ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query states: %w", err)
	}
	defer rows.Close()

	states := make([]State, 0)
	for rows.Next() {
		var s State
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("repository: failed to scan state: %w", err)
		}
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating states: %w", err)
	}

	return states, nil
}

func (r *postgresRepository) ListCitiesByState(ctx context.Context, stateID int64) ([]City, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM states WHERE id = $1)`, stateID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("repository: failed to check state %d: %w", stateID, err)
	}
	if !exists {
		return nil, ErrStateNotFound
	}

	query := `SELECT id, name, state_id FROM cities WHERE state_id = $1 ORDER BY name`

	rows, err := r.db.Query(ctx, query, stateID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cities for state %d: %w", stateID, err)
	}
	defer rows.Close()

	cities := make([]City, 0)
	for rows.Next() {
		var c City
		if err := rows.Scan(&c.ID, &c.Name, &c.StateID); err != nil {
			return nil, fmt.Errorf("repository: failed to scan city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cities for state %d: %w", stateID, err)
	}

	return cities, nil
}
