package checkout

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/verdantlabs/pos-register/internal/domain/money"
)

var (
	// ErrEmptyCart is returned when payment is prepared or a sale committed
	// with no line items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInsufficientPayment is returned when cash tendered is less than the
	// sale total.
	ErrInsufficientPayment = errors.New("insufficient payment")
	// ErrUnknownMethod is returned for a payment method outside the accepted
	// set.
	ErrUnknownMethod = errors.New("unknown payment method")
)

// Method is the payment instrument chosen by the customer. Only cash involves
// tender handling at the register; electronic methods are captured out of
// band by the payment terminal and this core records the choice only.
type Method string

const (
	MethodCash   Method = "cash"
	MethodCredit Method = "credit"
	MethodDebit  Method = "debit"
	MethodPix    Method = "pix"
)

// ParseMethod validates a wire-format payment method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodCash, MethodCredit, MethodDebit, MethodPix:
		return m, nil
	default:
		return "", ErrUnknownMethod
	}
}

// Payment is the computed payment selection surfaced to the operator as a
// receipt preview before the final commit.
type Payment struct {
	Method         Method
	AmountTendered decimal.Decimal
	ChangeDue      decimal.Decimal
}

// ComputePayment derives the payment selection for a sale total.
//
// Cash requires a caller-supplied tender covering the total; change is the
// decimal-exact difference. Electronic methods ignore any supplied tender:
// tendered is pinned to the total and change to zero.
func ComputePayment(total decimal.Decimal, method Method, tendered decimal.Decimal) (Payment, error) {
	if method != MethodCash {
		return Payment{
			Method:         method,
			AmountTendered: total,
			ChangeDue:      decimal.Zero,
		}, nil
	}

	t, err := money.ValidateNonNegative(tendered)
	if err != nil {
		return Payment{}, err
	}
	if t.LessThan(total) {
		return Payment{}, ErrInsufficientPayment
	}

	return Payment{
		Method:         MethodCash,
		AmountTendered: t,
		ChangeDue:      t.Sub(total),
	}, nil
}
