package customer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmagalhaes/storefront-backend/internal/customer"
)

func TestParseClientType(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		want    customer.ClientType
		wantErr bool
	}{
		{name: "individual", code: 0, want: customer.ClientTypeIndividual},
		{name: "business", code: 1, want: customer.ClientTypeBusiness},
		{name: "unmapped", code: 2, wantErr: true},
		{name: "negative", code: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := customer.ParseClientType(tt.code)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientType_Roundtrip(t *testing.T) {
	for _, ct := range []customer.ClientType{customer.ClientTypeIndividual, customer.ClientTypeBusiness} {
		parsed, err := customer.ParseClientType(ct.Code())
		require.NoError(t, err)
		assert.Equal(t, ct, parsed)
	}
}

func TestClientType_String(t *testing.T) {
	assert.Equal(t, "Individual", customer.ClientTypeIndividual.String())
	assert.Equal(t, "Business", customer.ClientTypeBusiness.String())
}

func TestCustomer_Equal(t *testing.T) {
	a := &customer.Customer{ID: 5, Name: "Maria Silva", Email: "maria@example.com"}
	b := &customer.Customer{ID: 5, Name: "Maria S.", Email: "other@example.com"}
	c := &customer.Customer{ID: 6, Name: "Maria Silva", Email: "maria@example.com"}

	assert.True(t, a.Equal(b), "same id must be equal regardless of other fields")
	assert.False(t, a.Equal(c))

	fresh1 := &customer.Customer{Name: "New"}
	fresh2 := &customer.Customer{Name: "New"}
	assert.False(t, fresh1.Equal(fresh2), "two unsaved instances must not be equal")
	assert.True(t, fresh1.Equal(fresh1))
}
