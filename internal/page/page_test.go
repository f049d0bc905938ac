package page_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmagalhaes/storefront-backend/internal/page"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       page.Request
		wantErrIs error
	}{
		{
			name: "valid_asc",
			req:  page.Request{Page: 0, Size: 24, SortBy: "name", Direction: "ASC"},
		},
		{
			name: "valid_desc",
			req:  page.Request{Page: 3, Size: 10, SortBy: "id", Direction: "DESC"},
		},
		{
			name:      "negative_page",
			req:       page.Request{Page: -1, Size: 24, SortBy: "name", Direction: "ASC"},
			wantErrIs: page.ErrInvalidPage,
		},
		{
			name:      "zero_size",
			req:       page.Request{Page: 0, Size: 0, SortBy: "name", Direction: "ASC"},
			wantErrIs: page.ErrInvalidSize,
		},
		{
			name:      "lowercase_direction",
			req:       page.Request{Page: 0, Size: 24, SortBy: "name", Direction: "asc"},
			wantErrIs: page.ErrInvalidDirection,
		},
		{
			name:      "unknown_direction",
			req:       page.Request{Page: 0, Size: 24, SortBy: "name", Direction: "SIDEWAYS"},
			wantErrIs: page.ErrInvalidDirection,
		},
		{
			name:      "sort_field_not_whitelisted",
			req:       page.Request{Page: 0, Size: 24, SortBy: "password", Direction: "ASC"},
			wantErrIs: page.ErrInvalidSortField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate("id", "name")
			if tt.wantErrIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErrIs)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequest_Offset(t *testing.T) {
	req := page.Request{Page: 3, Size: 24}
	assert.Equal(t, 72, req.Offset())
}

func TestNew(t *testing.T) {
	req := page.Request{Page: 1, Size: 10, SortBy: "name", Direction: "ASC"}

	p := page.New([]string{"a", "b"}, req, 25)

	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 10, p.Size)
	assert.Equal(t, int64(25), p.TotalElements)
	assert.Equal(t, 3, p.TotalPages)
	assert.Len(t, p.Content, 2)
}

func TestNew_Empty(t *testing.T) {
	req := page.Request{Page: 0, Size: 10, SortBy: "name", Direction: "ASC"}

	p := page.New([]string{}, req, 0)

	assert.Equal(t, 0, p.TotalPages)
	assert.Equal(t, int64(0), p.TotalElements)
	assert.Empty(t, p.Content)
}
