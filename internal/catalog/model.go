package catalog

// Category groups products. The id is assigned by the database on
// insert; a zero id means the entity has not been persisted yet.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Equal implements identity-based equality: two categories are the same
// entity iff they carry the same assigned id. Two distinct instances
// that were never persisted (zero id) are never equal.
func (c *Category) Equal(other *Category) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.ID != 0 && other.ID != 0 && c.ID == other.ID
}

// Product is a catalog entry. Price uses float64 like the rest of the
// money fields in this codebase; no rounding is applied anywhere.
type Product struct {
	ID          int64   `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Price       float64 `json:"price" db:"price"`
	CategoryIDs []int64 `json:"category_ids,omitempty" db:"-"`
}

// Equal implements identity-based equality, same contract as
// Category.Equal.
func (p *Product) Equal(other *Product) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	return p.ID != 0 && other.ID != 0 && p.ID == other.ID
}
