package catalog

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
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")

	// ErrCategoryHasProducts is the domain translation of the
	// foreign-key violation raised when deleting a category that
	// products still reference.
	ErrCategoryHasProducts = errors.New("cannot delete a category that has products")
	ErrProductInOrders     = errors.New("cannot delete a product that belongs to orders")
)

// Sort field whitelists handed to page.Request.Validate; the values are
// column names.
var (
	CategorySortFields = []string{"id", "name"}
	ProductSortFields  = []string{"id", "name", "price"}
)

type Repository interface {
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]Category, error)
	ListCategoriesPage(ctx context.Context, req page.Request) (page.Page[Category], error)

	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int64) error
	SearchProducts(ctx context.Context, name string, categoryIDs []int64, req page.Request) (page.Page[Product], error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	query := `INSERT INTO categories (name) VALUES ($1) RETURNING id`

	err := r.db.QueryRow(ctx, query, c.Name).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert category: %w", err)
	}

	return c, nil
}

func (r *postgresRepository) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	query := `SELECT id, name FROM categories WHERE id = $1`

	var c Category
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("repository: failed to select category by id %d: %w", id, err)
	}

	return &c, nil
}

func (r *postgresRepository) UpdateCategory(ctx context.Context, c *Category) error {
	query := `UPDATE categories SET name = $1 WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, query, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update category %d: %w", c.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

func (r *postgresRepository) DeleteCategory(ctx context.Context, id int64) error {
	query := `DELETE FROM categories WHERE id = $1`

	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrCategoryHasProducts
		}
		return fmt.Errorf("repository: failed to delete category %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

func (r *postgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	query := `SELECT id, name FROM categories ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating categories: %w", err)
	}

	return categories, nil
}

func (r *postgresRepository) ListCategoriesPage(ctx context.Context, req page.Request) (page.Page[Category], error) {
	if err := req.Validate(CategorySortFields...); err != nil {
		return page.Page[Category]{}, err
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM categories`).Scan(&total); err != nil {
		return page.Page[Category]{}, fmt.Errorf("repository: failed to count categories: %w", err)
	}

	// SortBy and Direction are whitelisted by Validate above, so the
	// interpolation is safe.
	query := fmt.Sprintf(
		`SELECT id, name FROM categories ORDER BY %s %s LIMIT $1 OFFSET $2`,
		req.SortBy, req.Direction,
	)

	rows, err := r.db.Query(ctx, query, req.Size, req.Offset())
	if err != nil {
		return page.Page[Category]{}, fmt.Errorf("repository: failed to query category page: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0, req.Size)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return page.Page[Category]{}, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return page.Page[Category]{}, fmt.Errorf("repository: error iterating category page: %w", err)
	}

	return page.New(categories, req, total), nil
}

func (r *postgresRepository) CreateProduct(ctx context.Context, p *Product) (productOut *Product, err error) {
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

	query := `INSERT INTO products (name, price) VALUES ($1, $2) RETURNING id`
	if err = tx.QueryRow(ctx, query, p.Name, p.Price).Scan(&p.ID); err != nil {
		return nil, fmt.Errorf("repository: failed to insert product: %w", err)
	}

	for _, categoryID := range p.CategoryIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)`,
			p.ID, categoryID,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return nil, ErrCategoryNotFound
			}
			return nil, fmt.Errorf("repository: failed to link product %d to category %d: %w", p.ID, categoryID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return p, nil
}

func (r *postgresRepository) GetProductByID(ctx context.Context, id int64) (*Product, error) {
	query := `SELECT id, name, price FROM products WHERE id = $1`

	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %d: %w", id, err)
	}

	rows, err := r.db.Query(ctx, `SELECT category_id FROM product_categories WHERE product_id = $1 ORDER BY category_id`, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query product categories for product %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var categoryID int64
		if err := rows.Scan(&categoryID); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product category: %w", err)
		}
		p.CategoryIDs = append(p.CategoryIDs, categoryID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating product categories: %w", err)
	}

	return &p, nil
}

func (r *postgresRepository) UpdateProduct(ctx context.Context, p *Product) error {
	query := `UPDATE products SET name = $1, price = $2 WHERE id = $3`

	cmdTag, err := r.db.Exec(ctx, query, p.Name, p.Price, p.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %d: %w", p.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *postgresRepository) DeleteProduct(ctx context.Context, id int64) (err error) {
	// The junction rows go first; only order items may still hold the
	// product back.
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

	if _, err = tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("repository: failed to unlink product %d categories: %w", id, err)
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrProductInOrders
		}
		return fmt.Errorf("repository: failed to delete product %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit transaction: %w", err)
	}

	return nil
}

func (r *postgresRepository) SearchProducts(ctx context.Context, name string, categoryIDs []int64, req page.Request) (page.Page[Product], error) {
	if err := req.Validate(ProductSortFields...); err != nil {
		return page.Page[Product]{}, err
	}

	countQuery := `
		SELECT count(DISTINCT p.id)
		FROM products p
		JOIN product_categories pc ON pc.product_id = p.id
		WHERE p.name ILIKE '%' || $1 || '%' AND pc.category_id = ANY($2)
	`
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, name, categoryIDs).Scan(&total); err != nil {
		return page.Page[Product]{}, fmt.Errorf("repository: failed to count product search: %w", err)
	}

	// DISTINCT collapses products matched through more than one of the
	// requested categories.
	query := fmt.Sprintf(`
		SELECT DISTINCT p.id, p.name, p.price
		FROM products p
		JOIN product_categories pc ON pc.product_id = p.id
		WHERE p.name ILIKE '%%' || $1 || '%%' AND pc.category_id = ANY($2)
		ORDER BY p.%s %s
		LIMIT $3 OFFSET $4`,
		req.SortBy, req.Direction,
	)

	rows, err := r.db.Query(ctx, query, name, categoryIDs, req.Size, req.Offset())
	if err != nil {
		return page.Page[Product]{}, fmt.Errorf("repository: failed to query product search: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0, req.Size)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return page.Page[Product]{}, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return page.Page[Product]{}, fmt.Errorf("repository: error iterating product search: %w", err)
	}

	return page.New(products, req, total), nil
}
