package payment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-checkoutflow/internal/validation"
)

func newForm() *Form {
	return NewForm(validation.New(), []SavedCard{{ID: "card-1", Brand: "visa", Last4: "4242"}})
}

func TestValidate_NoMethod(t *testing.T) {
	_, err := newForm().Validate()
	assert.ErrorIs(t, err, ErrNoMethod)
}

func TestCard_SavedCardSkipsNewCardRules(t *testing.T) {
	f := newForm()
	fe, err := f.Set(Card{SavedCardID: "card-1"})
	require.NoError(t, err)
	assert.Empty(t, fe)

	sel, err := f.Validate()
	require.NoError(t, err)
	assert.Equal(t, MethodCard, sel.Method())
}

func TestCard_UnknownSavedCardRejected(t *testing.T) {
	f := newForm()
	fe, err := f.Set(Card{SavedCardID: "card-9"})
	require.NoError(t, err)
	assert.Contains(t, fe, "savedCardId")

	_, err = f.Validate()
	var ie *InvalidError
	require.True(t, errors.As(err, &ie))
}

func TestCard_NewCardRules(t *testing.T) {
	f := newForm()
	fe, err := f.Set(Card{Number: "4111", Expiry: "1/27", CVV: "12"})
	require.NoError(t, err)
	assert.Equal(t, "number must be 13 to 19 digits", fe["number"])
	assert.Equal(t, "expiry must be in MM/YY format", fe["expiry"])
	assert.Equal(t, "cvv must be 3 or 4 digits", fe["cvv"])
	assert.Equal(t, "holder is required", fe["holder"])

	fe, err = f.Set(Card{Number: "4111 1111 1111 1111", Expiry: "12/29", CVV: "123", Holder: "Asha Rao"})
	require.NoError(t, err)
	assert.Empty(t, fe)
	sel, err := f.Validate()
	require.NoError(t, err)
	assert.Equal(t, "card ending 1111", sel.Summary())
}

func TestEnumeratedVariants(t *testing.T) {
	f := newForm()

	fe, _ := f.Set(NetBanking{BankCode: "xyz"})
	assert.Contains(t, fe, "bankCode")
	fe, _ = f.Set(NetBanking{BankCode: "hdfc"})
	assert.Empty(t, fe)

	fe, _ = f.Set(Wallet{Provider: ""})
	assert.Equal(t, "provider is required", fe["provider"])
	fe, _ = f.Set(Wallet{Provider: "paytm"})
	assert.Empty(t, fe)

	fe, _ = f.Set(UPI{UPIID: "  "})
	assert.Contains(t, fe, "upiId")
	fe, _ = f.Set(UPI{UPIID: "asha@okaxis"})
	assert.Empty(t, fe)
}

func TestCOD_RequiresAgreement(t *testing.T) {
	f := newForm()
	require.NoError(t, f.Select(MethodCOD))

	_, err := f.Validate()
	var ie *InvalidError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "agreed must be accepted", ie.Fields["agreed"])

	_, err = f.Set(CashOnDelivery{Agreed: true})
	require.NoError(t, err)
	sel, err := f.Validate()
	require.NoError(t, err)
	assert.False(t, sel.Method().PaidUpfront())
}

func TestSwitchingVariantClearsPreviousErrorsAndInput(t *testing.T) {
	f := newForm()
	fe, _ := f.Set(Card{Number: "1"})
	require.NotEmpty(t, fe)
	require.NotEmpty(t, f.Errors())

	require.NoError(t, f.Select(MethodUPI))
	assert.Empty(t, f.Errors())
	assert.Equal(t, MethodUPI, f.Method())

	// coming back to card starts from an empty form
	require.NoError(t, f.Select(MethodCard))
	assert.Equal(t, Card{}, f.Active())
	assert.Empty(t, f.Errors())
}

func TestReselectingActiveVariantKeepsInput(t *testing.T) {
	f := newForm()
	_, _ = f.Set(UPI{UPIID: "asha@okaxis"})
	require.NoError(t, f.Select(MethodUPI))
	assert.Equal(t, UPI{UPIID: "asha@okaxis"}, f.Active())
}

func TestSelect_UnknownMethod(t *testing.T) {
	assert.ErrorIs(t, newForm().Select("bitcoin"), ErrUnknownMethod)
}

func TestRequest_Selection(t *testing.T) {
	sel, err := Request{Method: MethodUPI, UPI: &UPI{UPIID: "a@b"}}.Selection()
	require.NoError(t, err)
	assert.Equal(t, UPI{UPIID: "a@b"}, sel)

	// missing block gives the empty variant
	sel, err = Request{Method: MethodCOD}.Selection()
	require.NoError(t, err)
	assert.Equal(t, CashOnDelivery{}, sel)

	_, err = Request{Method: "cheque"}.Selection()
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestRedacted_DropsCardSecrets(t *testing.T) {
	r := Redacted(Card{Number: "4111 1111 1111 1111", Expiry: "12/30", CVV: "123", Holder: "Asha Verma"})
	require.NotNil(t, r.Card)
	assert.Equal(t, MethodCard, r.Method)
	assert.Empty(t, r.Card.Number)
	assert.Empty(t, r.Card.CVV)
	assert.Empty(t, r.Card.Expiry)
	assert.Equal(t, "Asha Verma", r.Card.Holder)

	r = Redacted(UPI{UPIID: "asha@upi"})
	sel, err := r.Selection()
	require.NoError(t, err)
	assert.Equal(t, UPI{UPIID: "asha@upi"}, sel)
}

func TestRestore_RevalidatesOnSubmit(t *testing.T) {
	f := newForm()
	sel, err := Redacted(Card{Number: "4111 1111 1111 1111", Expiry: "12/30", CVV: "123", Holder: "Asha"}).Selection()
	require.NoError(t, err)
	f.Restore(sel)
	assert.Equal(t, MethodCard, f.Method())
	assert.Empty(t, f.Errors())

	_, err = f.Validate()
	var ie *InvalidError
	require.True(t, errors.As(err, &ie))
	assert.Contains(t, ie.Fields, "number")
}
