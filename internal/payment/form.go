package payment

import (
	"errors"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-checkoutflow/internal/validation"
)

var ErrNoMethod = errors.New("no payment method selected")

// InvalidError is returned by Form.Validate when the active variant fails its rules.
type InvalidError struct {
	Method Method
	Fields validation.FieldErrors
}

func (e *InvalidError) Error() string {
	return "invalid " + string(e.Method) + " payment: " + e.Fields.String()
}

// SavedCard is a card the buyer stored earlier. Only non-sensitive data is kept.
type SavedCard struct {
	ID     string `json:"id"`
	Brand  string `json:"brand"`
	Last4  string `json:"last4"`
	Holder string `json:"holder"`
}

// Form tracks the active payment variant of one checkout session and its validation state.
// It is not safe for concurrent use.
type Form struct {
	v          *validatorv10.Validate
	active     Selection
	errors     validation.FieldErrors
	savedCards []SavedCard
}

func NewForm(v *validatorv10.Validate, savedCards []SavedCard) *Form {
	return &Form{v: v, savedCards: append([]SavedCard(nil), savedCards...)}
}

// Select makes m the active variant. Switching to a different variant discards the previous
// variant's input and errors; re-selecting the active one keeps them.
func (f *Form) Select(m Method) error {
	if f.active != nil && f.active.Method() == m {
		return nil
	}
	sel, err := Empty(m)
	if err != nil {
		return err
	}
	f.active = sel
	f.errors = nil
	return nil
}

// Set stores input for its variant (switching variants if needed) and returns the
// on-change validation result, which is also kept for display.
func (f *Form) Set(sel Selection) (validation.FieldErrors, error) {
	if err := f.Select(sel.Method()); err != nil {
		return nil, err
	}
	f.active = sel
	f.errors = f.check(sel)
	return f.errors, nil
}

// Validate is the submit-time check. It re-runs the active variant's rules every time.
func (f *Form) Validate() (Selection, error) {
	if f.active == nil {
		return nil, ErrNoMethod
	}
	f.errors = f.check(f.active)
	if len(f.errors) > 0 {
		return nil, &InvalidError{Method: f.active.Method(), Fields: f.errors}
	}
	return f.active, nil
}

func (f *Form) check(sel Selection) validation.FieldErrors {
	fe := sel.Validate(f.v)
	if c, ok := sel.(Card); ok && c.SavedCardID != "" && !f.hasSavedCard(c.SavedCardID) {
		if fe == nil {
			fe = validation.FieldErrors{}
		}
		fe["savedCardId"] = "savedCardId is not one of your saved cards"
	}
	return fe
}

func (f *Form) hasSavedCard(id string) bool {
	for _, c := range f.savedCards {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Method returns the active variant tag, or "" when none is selected.
func (f *Form) Method() Method {
	if f.active == nil {
		return ""
	}
	return f.active.Method()
}

// Active returns the active selection, nil when none is selected.
func (f *Form) Active() Selection { return f.active }

// Errors returns the validation errors from the last Set or Validate of the active variant.
func (f *Form) Errors() validation.FieldErrors {
	out := make(validation.FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

func (f *Form) SavedCards() []SavedCard {
	return append([]SavedCard(nil), f.savedCards...)
}

// Restore puts back a previously stored selection without validating it.
// Errors are recomputed on the next Set or Validate.
func (f *Form) Restore(sel Selection) {
	f.active = sel
	f.errors = nil
}
