package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fmagalhaes/storefront-backend/internal/page"
)

type Service interface {
	Create(ctx context.Context, c *Customer) (*Customer, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
	GetByEmail(ctx context.Context, email string) (*Customer, error)
	Update(ctx context.Context, c *Customer) (*Customer, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]Customer, error)
	ListPage(ctx context.Context, req page.Request) (page.Page[Customer], error)

	ListStates(ctx context.Context) ([]State, error)
	ListCitiesByState(ctx context.Context, stateID int64) ([]City, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, c *Customer) (*Customer, error) {
	violations, err := s.validateNew(ctx, c)
	if err != nil {
		log.Error().Err(err).Msg("service: customer insert validation failed to run")
		return nil, err
	}
	if len(violations) > 0 {
		log.Warn().Int("violations", len(violations)).Str("email", c.Email).Msg("service: customer insert rejected by validation")
		return nil, &ValidationError{Violations: violations}
	}

	c.ID = 0

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			// Uniqueness raced between the validation read and the
			// insert; the store's constraint is the authority.
			return nil, ErrEmailExists
		}
		if errors.Is(err, ErrCityNotFound) {
			return nil, ErrCityNotFound
		}
		log.Error().Err(err).Msg("service: failed to create customer")
		return nil, fmt.Errorf("service: failed to create customer: %w", err)
	}

	log.Info().Int64("customer_id", created.ID).Msg("service: customer created")
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Int64("customer_id", id).Msg("service: customer not found")
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("customer_id", id).Msg("service: failed to fetch customer")
		return nil, fmt.Errorf("service: failed to fetch customer: %w", err)
	}
	return c, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	c, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Str("email", email).Msg("service: failed to fetch customer by email")
		return nil, fmt.Errorf("service: failed to fetch customer by email: %w", err)
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, c *Customer) (*Customer, error) {
	current, err := s.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	// Name and email are the only caller-editable fields; type, tax id,
	// addresses and phones stay as stored.
	current.Name = c.Name
	current.Email = c.Email

	if err := s.repo.Update(ctx, current); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Int64("customer_id", c.ID).Msg("service: failed to update customer")
		return nil, fmt.Errorf("service: failed to update customer: %w", err)
	}

	return current, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrCustomerHasOrders) {
			log.Warn().Int64("customer_id", id).Msg("service: customer delete refused, orders reference it")
			return ErrCustomerHasOrders
		}
		log.Error().Err(err).Int64("customer_id", id).Msg("service: failed to delete customer")
		return fmt.Errorf("service: failed to delete customer: %w", err)
	}

	return nil
}

func (s *service) List(ctx context.Context) ([]Customer, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list customers")
		return nil, fmt.Errorf("service: failed to list customers: %w", err)
	}
	return customers, nil
}

func (s *service) ListPage(ctx context.Context, req page.Request) (page.Page[Customer], error) {
	p, err := s.repo.ListPage(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list customer page")
		return page.Page[Customer]{}, fmt.Errorf("service: failed to list customer page: %w", err)
	}
	return p, nil
}

func (s *service) ListStates(ctx context.Context) ([]State, error) {
	states, err := s.repo.ListStates(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list states")
		return nil, fmt.Errorf("service: failed to list states: %w", err)
	}
	return states, nil
}

func (s *service) ListCitiesByState(ctx context.Context, stateID int64) ([]City, error) {
	cities, err := s.repo.ListCitiesByState(ctx, stateID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil, ErrStateNotFound
		}
		log.Error().Err(err).Int64("state_id", stateID).Msg("service: failed to list cities")
		return nil, fmt.Errorf("service: failed to list cities: %w", err)
	}
	return cities, nil
}
