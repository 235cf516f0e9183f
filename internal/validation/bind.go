package validation

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// BindAndValidate decodes the JSON body into out and validates it. On failure
// it writes the 400 response and returns the error so the handler can stop.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	return bind(c, out, v, false)
}

// BindOptional is BindAndValidate for endpoints whose body may be omitted.
// An empty body leaves out untouched and skips validation.
func BindOptional(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	return bind(c, out, v, true)
}

func bind(c *gin.Context, out interface{}, v *validatorv10.Validate, optional bool) error {
	if err := c.ShouldBindJSON(out); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "invalid_request_body",
			"msg":   err.Error(),
		})
		return err
	}
	if v == nil {
		return nil
	}
	if err := v.Struct(out); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": FromError(err),
		})
		return err
	}
	return nil
}
