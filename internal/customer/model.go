package customer

import "fmt"

// ClientType is a closed set of customer kinds stored as an integer
// code. The codec is bijective over the defined codes.
type ClientType int

const (
	ClientTypeIndividual ClientType = 0
	ClientTypeBusiness   ClientType = 1
)

func (t ClientType) String() string {
	switch t {
	case ClientTypeIndividual:
		return "Individual"
	case ClientTypeBusiness:
		return "Business"
	default:
		return fmt.Sprintf("ClientType(%d)", int(t))
	}
}

// Code returns the stable integer code persisted for the type.
func (t ClientType) Code() int {
	return int(t)
}

// ParseClientType converts a stored integer code back into its
// ClientType. Unmapped codes are an error, never a silent default.
func ParseClientType(code int) (ClientType, error) {
	switch code {
	case 0:
		return ClientTypeIndividual, nil
	case 1:
		return ClientTypeBusiness, nil
	default:
		return 0, fmt.Errorf("invalid client type code: %d", code)
	}
}

// State is a federative unit; it has many cities.
type State struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// City belongs to exactly one state.
type City struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	StateID int64  `json:"state_id" db:"state_id"`
}

// Address belongs to one customer and one city.
type Address struct {
	ID         int64  `json:"id" db:"id"`
	Street     string `json:"street" db:"street"`
	Number     string `json:"number" db:"number"`
	Complement string `json:"complement,omitempty" db:"complement"`
	District   string `json:"district" db:"district"`
	ZipCode    string `json:"zip_code" db:"zip_code"`
	CustomerID int64  `json:"customer_id" db:"customer_id"`
	CityID     int64  `json:"city_id" db:"city_id"`
}

// Customer owns its addresses and phone set; its orders are reached by
// querying the order store by customer id, not by a back-pointer here.
type Customer struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	TaxID     string     `json:"tax_id" db:"tax_id"`
	Type      ClientType `json:"type" db:"type"`
	Phones    []string   `json:"phones" db:"phones"`
	Addresses []Address  `json:"addresses" db:"-"`
}

// Equal implements identity-based equality: same assigned id means the
// same entity; two never-persisted instances are distinct.
func (c *Customer) Equal(other *Customer) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.ID != 0 && other.ID != 0 && c.ID == other.ID
}
