package domain

import "time"

type Membership string

const (
	MembershipBronze Membership = "bronze"
	MembershipSilver Membership = "silver"
	MembershipGold   Membership = "gold"
)

func (m Membership) Valid() bool {
	switch m {
	case MembershipBronze, MembershipSilver, MembershipGold:
		return true
	}
	return false
}

// Customer is the store-side profile linked one-to-one to an identity
// managed by the external auth provider.
type Customer struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Phone      string     `json:"phone"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Membership Membership `json:"membership"`
}

func (c *Customer) Validate() error {
	if c.UserID == 0 {
		return Validationf("user_id", "is required")
	}
	if c.Phone == "" {
		return Validationf("phone", "must not be empty")
	}
	if !c.Membership.Valid() {
		return Validationf("membership", "must be one of bronze, silver, gold")
	}
	return nil
}

type Address struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Street     string `json:"street"`
	City       string `json:"city"`
}
