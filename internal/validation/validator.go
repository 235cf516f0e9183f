package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

var (
	alphaSpaceRe = regexp.MustCompile(`^[A-Za-z ]+$`)
	// 10 digits, optionally prefixed by a 1-3 digit country code ("+91 ", "91-", "+1").
	phoneRe      = regexp.MustCompile(`^(\+?\d{1,3}[- ]?)?\d{10}$`)
	pincodeRe    = regexp.MustCompile(`^\d{6}$`)
	cardNumberRe = regexp.MustCompile(`^\d{13,19}$`)
	cardExpiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
)

// New returns a validator with the checkout field rules registered.
// Field names in reported errors are taken from json tags.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(jsonFieldName)

	mustRegister(v, "alphaspace", matches(alphaSpaceRe))
	mustRegister(v, "phone", matches(phoneRe))
	mustRegister(v, "pincode", matches(pincodeRe))
	mustRegister(v, "cardnumber", cardNumber)
	mustRegister(v, "cardexpiry", matches(cardExpiryRe))
	mustRegister(v, "cvv", matches(cvvRe))
	mustRegister(v, "accepted", accepted)

	return v
}

func mustRegister(v *validatorv10.Validate, tag string, fn validatorv10.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

func matches(re *regexp.Regexp) validatorv10.Func {
	return func(fl validatorv10.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// cardNumber ignores the spaces and dashes people type between digit groups.
func cardNumber(fl validatorv10.FieldLevel) bool {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(fl.Field().String())
	return cardNumberRe.MatchString(digits)
}

func accepted(fl validatorv10.FieldLevel) bool {
	return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
