package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-checkoutflow/internal/address"
	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
	"github.com/imrishuroy/go-checkoutflow/internal/payment"
)

// writeError maps checkout errors onto HTTP responses.
func writeError(c *gin.Context, logger *log.Logger, err error) {
	var (
		addrErr   *address.InvalidError
		payErr    *payment.InvalidError
		submitErr *checkout.SubmitError
	)
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "submission_in_flight"})
	case errors.Is(err, checkout.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_state", "detail": err.Error()})
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": "empty_cart"})
	case errors.Is(err, checkout.ErrNoAddressSelected):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_address_selected"})
	case errors.Is(err, payment.ErrNoMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_payment_method"})
	case errors.Is(err, payment.ErrUnknownMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_payment_method"})
	case errors.Is(err, address.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "address_not_found"})
	case errors.Is(err, address.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_field"})
	case errors.As(err, &addrErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_address", "fields": addrErr.Fields})
	case errors.As(err, &payErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payment", "method": payErr.Method, "fields": payErr.Fields})
	case errors.As(err, &submitErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "order_failed",
			"message":   submitErr.Message,
			"retryable": true,
		})
	default:
		logger.Printf("[handlers] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
