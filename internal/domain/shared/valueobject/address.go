package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	maxNameLength    = 100
	maxLineLength    = 200
	maxCityLength    = 100
	maxPostalLength  = 20
	maxCountryLength = 60
)

// FieldError describes a single invalid address field
type FieldError struct {
	Field   string
	Message string
}

// AddressValidationError lists every invalid field of an address
type AddressValidationError struct {
	Fields []FieldError
}

func (e *AddressValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid shipping address: " + strings.Join(parts, "; ")
}

// ShippingAddress is the denormalized delivery address copied onto an order.
// It is immutable once constructed.
type ShippingAddress struct {
	fullName   string
	address    string
	city       string
	postalCode string
	country    string
}

// NewShippingAddress trims and validates the address fields
func NewShippingAddress(fullName, address, city, postalCode, country string) (ShippingAddress, error) {
	a := ShippingAddress{
		fullName:   strings.TrimSpace(fullName),
		address:    strings.TrimSpace(address),
		city:       strings.TrimSpace(city),
		postalCode: strings.TrimSpace(postalCode),
		country:    strings.TrimSpace(country),
	}
	if err := a.validate(); err != nil {
		return ShippingAddress{}, err
	}
	return a, nil
}

func (a ShippingAddress) validate() error {
	var fields []FieldError
	check := func(field, value string, max int) {
		switch {
		case value == "":
			fields = append(fields, FieldError{Field: field, Message: "is required"})
		case len(value) > max:
			fields = append(fields, FieldError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)})
		}
	}
	check("fullName", a.fullName, maxNameLength)
	check("address", a.address, maxLineLength)
	check("city", a.city, maxCityLength)
	check("postalCode", a.postalCode, maxPostalLength)
	check("country", a.country, maxCountryLength)
	if len(fields) > 0 {
		return &AddressValidationError{Fields: fields}
	}
	return nil
}

// FullName returns the recipient name
func (a ShippingAddress) FullName() string { return a.fullName }

// Address returns the street line
func (a ShippingAddress) Address() string { return a.address }

// City returns the city
func (a ShippingAddress) City() string { return a.city }

// PostalCode returns the postal code
func (a ShippingAddress) PostalCode() string { return a.postalCode }

// Country returns the country
func (a ShippingAddress) Country() string { return a.country }

// IsEmpty reports whether no field is set
func (a ShippingAddress) IsEmpty() bool {
	return a == ShippingAddress{}
}

// String returns a single-line rendering of the address
func (a ShippingAddress) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.fullName, a.address, a.city, a.postalCode, a.country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type shippingAddressJSON struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// MarshalJSON implements json.Marshaler
func (a ShippingAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(shippingAddressJSON{
		FullName:   a.fullName,
		Address:    a.address,
		City:       a.city,
		PostalCode: a.postalCode,
		Country:    a.country,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Stored addresses were validated
// on the way in, so fields are assigned without re-validation.
func (a *ShippingAddress) UnmarshalJSON(data []byte) error {
	var v shippingAddressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = ShippingAddress{
		fullName:   v.FullName,
		address:    v.Address,
		city:       v.City,
		postalCode: v.PostalCode,
		country:    v.Country,
	}
	return nil
}

// Value implements driver.Valuer, storing the address as JSON
func (a ShippingAddress) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval
func (a *ShippingAddress) Scan(value any) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into ShippingAddress", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = ShippingAddress{}
		return nil
	}
	return json.Unmarshal(data, a)
}
