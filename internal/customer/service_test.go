package customer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fmagalhaes/storefront-backend/internal/customer"
	"github.com/fmagalhaes/storefront-backend/internal/page"
)

const validCPF = "52998224725"

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) ListPage(ctx context.Context, req page.Request) (page.Page[customer.Customer], error) {
	args := m.Called(ctx, req)
	return args.Get(0).(page.Page[customer.Customer]), args.Error(1)
}

func (m *MockCustomerRepository) ListStates(ctx context.Context) ([]customer.State, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.State), args.Error(1)
}

func (m *MockCustomerRepository) ListCitiesByState(ctx context.Context, stateID int64) ([]customer.City, error) {
	args := m.Called(ctx, stateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.City), args.Error(1)
}

func TestCustomerService_Create_Success(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)

	newCustomer := &customer.Customer{
		ID:    42, // caller-supplied, must be discarded
		Name:  "Maria Silva",
		Email: "maria@example.com",
		TaxID: validCPF,
		Type:  customer.ClientTypeIndividual,
	}

	mockRepo.On("GetByEmail", mock.Anything, "maria@example.com").
		Return(nil, customer.ErrNotFound).
		Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*customer.Customer")).
		Run(func(args mock.Arguments) {
			c := args.Get(1).(*customer.Customer)
			require.Equal(t, int64(0), c.ID, "service must hand the repository an unassigned id")
			c.ID = 7
		}).
		Return(newCustomer, nil).
		Once()

	created, err := svc.Create(context.Background(), newCustomer)

	require.NoError(t, err)
	require.Equal(t, int64(7), created.ID)
	mockRepo.AssertExpectations(t)
}

func TestCustomerService_Create_InvalidCPF(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)

	mockRepo.On("GetByEmail", mock.Anything, "joao@example.com").
		Return(nil, customer.ErrNotFound).
		Once()

	created, err := svc.Create(context.Background(), &customer.Customer{
		Name:  "Joao Souza",
		Email: "joao@example.com",
		TaxID: "12345678900",
		Type:  customer.ClientTypeIndividual,
	})

	require.Error(t, err)
	require.Nil(t, created)

	var vErr *customer.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Violations, 1)
	require.Equal(t, "tax_id", vErr.Violations[0].Field)

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCustomerService_Create_InvalidCPFAndDuplicateEmail(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)

	existing := &customer.Customer{ID: 3, Email: "taken@example.com"}
	mockRepo.On("GetByEmail", mock.Anything, "taken@example.com").
		Return(existing, nil).
		Once()

	_, err := svc.Create(context.Background(), &customer.Customer{
		Name:  "Joao Souza",
		Email: "taken@example.com",
		TaxID: "12345678900",
		Type:  customer.ClientTypeIndividual,
	})

	require.Error(t, err)

	var vErr *customer.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Violations, 2, "both rules must be reported, not just the first")

	fields := []string{vErr.Violations[0].Field, vErr.Violations[1].Field}
	require.Contains(t, fields, "tax_id")
	require.Contains(t, fields, "email")
}

func TestCustomerService_Create_InvalidCNPJ(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)

	mockRepo.On("GetByEmail", mock.Anything, "acme@example.com").
		Return(nil, customer.ErrNotFound).
		Once()

	_, err := svc.Create(context.Background(), &customer.Customer{
		Name:  "ACME Ltda",
		Email: "acme@example.com",
		TaxID: "11222333000180",
		Type:  customer.ClientTypeBusiness,
	})

	var vErr *customer.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Violations, 1)
	require.Equal(t, "tax_id", vErr.Violations[0].Field)
}

func TestCustomerService_Update_NotFound(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)

	mockRepo.On("GetByID", mock.Anything, int64(99)).
		Return(nil, customer.ErrNotFound).
		Once()

	_, err := svc.Update(context.Background(), &customer.Customer{ID: 99, Name: "X", Email: "x@example.com"})

	require.ErrorIs(t, err, customer.ErrNotFound)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCustomerService_Update_CopiesOnlyMutableFields(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)

	stored := &customer.Customer{
		ID:    5,
		Name:  "Old Name",
		Email: "old@example.com",
		TaxID: validCPF,
		Type:  customer.ClientTypeIndividual,
	}
	mockRepo.On("GetByID", mock.Anything, int64(5)).
		Return(stored, nil).
		Once()
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*customer.Customer")).
		Run(func(args mock.Arguments) {
			c := args.Get(1).(*customer.Customer)
			require.Equal(t, "New Name", c.Name)
			require.Equal(t, "new@example.com", c.Email)
			require.Equal(t, validCPF, c.TaxID, "tax id must not be caller-editable")
			require.Equal(t, customer.ClientTypeIndividual, c.Type, "type must not be caller-editable")
		}).
		Return(nil).
		Once()

	updated, err := svc.Update(context.Background(), &customer.Customer{
		ID:    5,
		Name:  "New Name",
		Email: "new@example.com",
		TaxID: "00000000000",
		Type:  customer.ClientTypeBusiness,
	})

	require.NoError(t, err)
	require.Equal(t, "New Name", updated.Name)
	mockRepo.AssertExpectations(t)
}

func TestCustomerService_Delete_ReferentialConflict(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)

	mockRepo.On("GetByID", mock.Anything, int64(5)).
		Return(&customer.Customer{ID: 5, Name: "Maria"}, nil).
		Once()
	mockRepo.On("Delete", mock.Anything, int64(5)).
		Return(customer.ErrCustomerHasOrders).
		Once()

	err := svc.Delete(context.Background(), 5)

	require.ErrorIs(t, err, customer.ErrCustomerHasOrders)
	mockRepo.AssertExpectations(t)
}

func TestCustomerService_Delete_NotFound(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)

	mockRepo.On("GetByID", mock.Anything, int64(404)).
		Return(nil, customer.ErrNotFound).
		Once()

	err := svc.Delete(context.Background(), 404)

	require.ErrorIs(t, err, customer.ErrNotFound)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCustomerService_ListCitiesByState_StateNotFound(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)

	mockRepo.On("ListCitiesByState", mock.Anything, int64(9)).
		Return(nil, customer.ErrStateNotFound).
		Once()

	_, err := svc.ListCitiesByState(context.Background(), 9)

	require.ErrorIs(t, err, customer.ErrStateNotFound)
}

func TestCustomerService_Create_EmailUniquenessRace(t *testing.T) {
	// The validation read can pass while a concurrent insert takes the
	// email; the store's unique constraint must still surface.
	mockRepo := new(MockCustomerRepository)
	svc := customer.NewService(mockRepo)

	mockRepo.On("GetByEmail", mock.Anything, "raced@example.com").
		Return(nil, customer.ErrNotFound).
		Once()
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*customer.Customer")).
		Return(nil, customer.ErrEmailExists).
		Once()

	_, err := svc.Create(context.Background(), &customer.Customer{
		Name:  "Maria Silva",
		Email: "raced@example.com",
		TaxID: validCPF,
		Type:  customer.ClientTypeIndividual,
	})

	require.True(t, errors.Is(err, customer.ErrEmailExists))
}
