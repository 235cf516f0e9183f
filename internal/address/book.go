package address

import (
	"errors"
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-checkoutflow/internal/validation"
)

var (
	ErrNotFound     = errors.New("address not found")
	ErrUnknownField = errors.New("unknown address field")
)

// InvalidError is returned by Add when at least one field fails validation.
type InvalidError struct {
	Fields validation.FieldErrors
}

func (e *InvalidError) Error() string {
	return "invalid address: " + e.Fields.String()
}

// Book is the address list of one checkout session plus the current selection.
// It is not safe for concurrent use; the owning session serializes access.
type Book struct {
	v        *validatorv10.Validate
	items    []Address
	selected string
}

// NewBook returns a Book holding items. The default address is pre-selected,
// else the first one.
func NewBook(v *validatorv10.Validate, items []Address) *Book {
	b := &Book{v: v, items: append([]Address(nil), items...)}
	for _, a := range b.items {
		if a.IsDefault {
			b.selected = a.ID
			return b
		}
	}
	if len(b.items) > 0 {
		b.selected = b.items[0].ID
	}
	return b
}

// Validate checks all fields and returns nil when the address is acceptable.
func (b *Book) Validate(a Address) validation.FieldErrors {
	return validation.FromError(b.v.Struct(a.Trimmed()))
}

// ValidateField checks a single field as the user edits it. A nil result means the field is valid.
func (b *Book) ValidateField(a Address, field string) (validation.FieldErrors, error) {
	name, ok := structFields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return validation.FromError(b.v.StructPartial(a.Trimmed(), name)), nil
}

// Add validates every field again and, only if all pass, appends the address and selects it.
// The list is untouched on failure.
func (b *Book) Add(a Address) (Address, error) {
	a = a.Trimmed()
	if fe := b.Validate(a); len(fe) > 0 {
		return Address{}, &InvalidError{Fields: fe}
	}
	if a.ID == "" {
		return Address{}, errors.New("address id is required")
	}
	b.items = append(b.items, a)
	b.selected = a.ID
	return a, nil
}

// Select marks the address with id as the shipping address.
func (b *Book) Select(id string) error {
	for _, a := range b.items {
		if a.ID == id {
			b.selected = id
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Selected returns the selected address, if any.
func (b *Book) Selected() (Address, bool) {
	for _, a := range b.items {
		if a.ID == b.selected {
			return a, true
		}
	}
	return Address{}, false
}

// List returns a copy of the addresses in insertion order.
func (b *Book) List() []Address {
	return append([]Address(nil), b.items...)
}
