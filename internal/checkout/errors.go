package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNoAddressSelected  = errors.New("no shipping address selected")
	ErrSubmissionInFlight = errors.New("order submission already in progress")
	ErrInvalidState       = errors.New("operation not allowed in current checkout state")
	ErrSessionNotFound    = errors.New("checkout session not found")
	ErrMissingBuyer       = errors.New("buyer id is required")
)

// GenericFailureMessage is shown when a collaborator gives no usable reason.
const GenericFailureMessage = "We couldn't place your order. Please try again."

func stateError(op string, s State) error {
	return fmt.Errorf("%s: %w (%s)", op, ErrInvalidState, s)
}

// userMessenger is implemented by collaborator errors that carry a message
// safe to show the buyer.
type userMessenger interface {
	UserMessage() string
}

// SubmitError is a failed order placement. The session stays retryable.
type SubmitError struct {
	Err     error
	Message string
}

func (e *SubmitError) Error() string { return "submit order: " + e.Err.Error() }
func (e *SubmitError) Unwrap() error { return e.Err }

func userMessage(err error) string {
	var um userMessenger
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return GenericFailureMessage
}

// Notice is a persistent banner on the session. It stays until dismissed or
// until the next submission starts.
type Notice struct {
	Message     string `json:"message"`
	Retryable   bool   `json:"retryable"`
	Dismissible bool   `json:"dismissible"`
}
