// README: Common money value object used across modules.
package types

import "fmt"

const DefaultCurrency = "USD"

type Money struct {
	Amount   float64 `json:"amount" validate:"gte=0"`
	Currency string  `json:"currency,omitempty"`
}

func USD(amount float64) Money {
	return Money{Amount: amount, Currency: DefaultCurrency}
}

// CurrencyOrDefault never returns an empty code.
func (m Money) CurrencyOrDefault() string {
	if m.Currency == "" {
		return DefaultCurrency
	}
	return m.Currency
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Amount, m.CurrencyOrDefault())
}
