package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fmagalhaes/storefront-backend/internal/page"
)

type Service interface {
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, c *Category) (*Category, error)
	UpdateCategory(ctx context.Context, c *Category) (*Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]Category, error)
	ListCategoriesPage(ctx context.Context, req page.Request) (page.Page[Category], error)

	GetProductByID(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SearchProducts(ctx context.Context, name string, categoryIDs []int64, req page.Request) (page.Page[Product], error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	c, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			log.Warn().Int64("category_id", id).Msg("service: category not found")
			return nil, ErrCategoryNotFound
		}
		log.Error().Err(err).Int64("category_id", id).Msg("service: failed to fetch category")
		return nil, fmt.Errorf("service: failed to fetch category: %w", err)
	}
	return c, nil
}

func (s *service) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	// A caller-supplied id would turn the insert into an update; the
	// store always mints the identity.
	c.ID = 0

	created, err := s.repo.CreateCategory(ctx, c)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to create category")
		return nil, fmt.Errorf("service: failed to create category: %w", err)
	}

	log.Info().Int64("category_id", created.ID).Msg("service: category created")
	return created, nil
}

func (s *service) UpdateCategory(ctx context.Context, c *Category) (*Category, error) {
	current, err := s.GetCategoryByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	// Only the caller-editable fields move onto the stored instance.
	current.Name = c.Name

	if err := s.repo.UpdateCategory(ctx, current); err != nil {
		log.Error().Err(err).Int64("category_id", c.ID).Msg("service: failed to update category")
		return nil, fmt.Errorf("service: failed to update category: %w", err)
	}

	return current, nil
}

func (s *service) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.GetCategoryByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, ErrCategoryHasProducts) {
			log.Warn().Int64("category_id", id).Msg("service: category delete refused, products reference it")
			return ErrCategoryHasProducts
		}
		log.Error().Err(err).Int64("category_id", id).Msg("service: failed to delete category")
		return fmt.Errorf("service: failed to delete category: %w", err)
	}

	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list categories")
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *service) ListCategoriesPage(ctx context.Context, req page.Request) (page.Page[Category], error) {
	p, err := s.repo.ListCategoriesPage(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list category page")
		return page.Page[Category]{}, fmt.Errorf("service: failed to list category page: %w", err)
	}
	return p, nil
}

func (s *service) GetProductByID(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			log.Warn().Int64("product_id", id).Msg("service: product not found")
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Msg("service: failed to fetch product")
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}
	return p, nil
}

func (s *service) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.Price < 0 {
		return nil, fmt.Errorf("service: product price must be non-negative, got %f", p.Price)
	}

	p.ID = 0

	created, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		log.Error().Err(err).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Int64("product_id", created.ID).Msg("service: product created")
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, p *Product) (*Product, error) {
	if p.Price < 0 {
		return nil, fmt.Errorf("service: product price must be non-negative, got %f", p.Price)
	}

	current, err := s.GetProductByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	current.Name = p.Name
	current.Price = p.Price

	if err := s.repo.UpdateProduct(ctx, current); err != nil {
		log.Error().Err(err).Int64("product_id", p.ID).Msg("service: failed to update product")
		return nil, fmt.Errorf("service: failed to update product: %w", err)
	}

	return current, nil
}

func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.GetProductByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, ErrProductInOrders) {
			log.Warn().Int64("product_id", id).Msg("service: product delete refused, orders reference it")
			return ErrProductInOrders
		}
		log.Error().Err(err).Int64("product_id", id).Msg("service: failed to delete product")
		return fmt.Errorf("service: failed to delete product: %w", err)
	}

	return nil
}

func (s *service) SearchProducts(ctx context.Context, name string, categoryIDs []int64, req page.Request) (page.Page[Product], error) {
	p, err := s.repo.SearchProducts(ctx, name, categoryIDs, req)
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("service: failed to search products")
		return page.Page[Product]{}, fmt.Errorf("service: failed to search products: %w", err)
	}
	return p, nil
}
