package checkout

// State of a checkout session.
type State string

const (
	StateLoading          State = "loading"
	StateAddressSelection State = "address_selection"
	StatePaymentSelection State = "payment_selection"
	StateSubmitting       State = "submitting"
	StateComplete         State = "complete"
	StateFailed           State = "failed"
	// StateEmptyCart is reported when nothing could be loaded into the cart.
	StateEmptyCart State = "empty_cart"
)

func (s State) String() string { return string(s) }

// Terminal states accept no further operations.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateEmptyCart
}

// editable reports whether address and payment input may change.
func (s State) editable() bool {
	switch s {
	case StateAddressSelection, StatePaymentSelection, StateFailed:
		return true
	}
	return false
}

// submittable reports whether Submit may start from this state.
func (s State) submittable() bool {
	return s == StatePaymentSelection || s == StateFailed
}
