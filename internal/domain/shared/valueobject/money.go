package valueobject

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	INR Currency = "INR"
)

// DefaultCurrency is the currency used when an order does not specify one
const DefaultCurrency = USD

// MoneyScale is the number of decimal places kept for every stored amount
const MoneyScale int32 = 2

var ErrNegativeAmount = errors.New("amount cannot be negative")

// ParseCurrency validates an ISO 4217 code. An empty code yields DefaultCurrency.
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency code %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// Round rounds an amount half-to-even at MoneyScale.
// Every derived monetary component is rounded independently with this rule,
// and totals are summed from rounded components so breakdowns add up exactly.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(MoneyScale)
}

// ApplyRate returns amount*rate rounded with Round
func ApplyRate(amount, rate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(rate))
}

// Sum adds amounts
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// RequireNonNegative returns ErrNegativeAmount when amount < 0
func RequireNonNegative(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}
