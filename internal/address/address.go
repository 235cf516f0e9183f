// Package address holds the buyer's shipping addresses and the add-address rules used at checkout.
package address

import "strings"

// Address is a buyer-owned shipping address.
type Address struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required,min=3,alphaspace"`
	Phone       string `json:"phone" validate:"required,phone"`
	AddressLine string `json:"addressLine" validate:"required,min=5"`
	City        string `json:"city" validate:"required,min=2,alphaspace"`
	State       string `json:"state" validate:"required,min=2,alphaspace"`
	Pincode     string `json:"pincode" validate:"required,pincode"`
	IsDefault   bool   `json:"isDefault"`
}

// Fields lists the json names of the validated fields, in form order.
var Fields = []string{"name", "phone", "addressLine", "city", "state", "pincode"}

// structFields maps a json field name to the Go field name StructPartial expects.
var structFields = map[string]string{
	"name":        "Name",
	"phone":       "Phone",
	"addressLine": "AddressLine",
	"city":        "City",
	"state":       "State",
	"pincode":     "Pincode",
}

// Trimmed returns a copy with surrounding whitespace removed from every text field.
func (a Address) Trimmed() Address {
	a.Name = strings.TrimSpace(a.Name)
	a.Phone = strings.TrimSpace(a.Phone)
	a.AddressLine = strings.TrimSpace(a.AddressLine)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.TrimSpace(a.Pincode)
	return a
}
