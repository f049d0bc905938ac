package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fmagalhaes/storefront-backend/internal/catalog"
)

func TestCategory_Equal(t *testing.T) {
	sameID1 := &catalog.Category{ID: 1, Name: "Computers"}
	sameID2 := &catalog.Category{ID: 1, Name: "Office"}
	otherID := &catalog.Category{ID: 2, Name: "Computers"}
	unsaved1 := &catalog.Category{Name: "Garden"}
	unsaved2 := &catalog.Category{Name: "Garden"}

	assert.True(t, sameID1.Equal(sameID2), "same id must be equal regardless of other fields")
	assert.False(t, sameID1.Equal(otherID), "different ids must not be equal")
	assert.False(t, unsaved1.Equal(unsaved2), "two unsaved instances must not be equal")
	assert.True(t, unsaved1.Equal(unsaved1), "an instance equals itself even before persisting")
	assert.False(t, sameID1.Equal(nil))
}

func TestProduct_Equal(t *testing.T) {
	a := &catalog.Product{ID: 7, Name: "TV", Price: 1500}
	b := &catalog.Product{ID: 7, Name: "Smart TV", Price: 2000}
	c := &catalog.Product{ID: 8, Name: "TV", Price: 1500}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	fresh1 := &catalog.Product{Name: "Mouse"}
	fresh2 := &catalog.Product{Name: "Mouse"}
	assert.False(t, fresh1.Equal(fresh2))
}
