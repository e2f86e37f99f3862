package entity

import (
	"time"

	"github.com/google/uuid"
)

// AddressType labels an address.
type AddressType string

const (
	AddressTypeHome  AddressType = "home"
	AddressTypeWork  AddressType = "work"
	AddressTypeOther AddressType = "other"
)

// DefaultCountry is applied when an address is saved without a country.
const DefaultCountry = "Egypt"

// IsValid checks if the AddressType is a known value.
func (t AddressType) IsValid() bool {
	switch t {
	case AddressTypeHome, AddressTypeWork, AddressTypeOther:
		return true
	default:
		return false
	}
}

// Address is a postal address owned by a user. At most one address per user is the default.
type Address struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      AddressType
	FirstName string
	LastName  string
	Street    string
	City      string
	State     string
	ZipCode   string
	Country   string
	Phone     string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApplyDefaults fills the type and country when they are blank.
func (a *Address) ApplyDefaults() {
	if a.Type == "" {
		a.Type = AddressTypeHome
	}
	if a.Country == "" {
		a.Country = DefaultCountry
	}
}

// CountDefaults returns how many addresses are flagged default.
func CountDefaults(addresses []*Address) int {
	n := 0
	for _, a := range addresses {
		if a.IsDefault {
			n++
		}
	}

	return n
}
