package models

import "github.com/mmynk/splitease/internal/money"

// Debt says Debtor should pay Creditor Amount. Debts are computed per request
// and never persisted.
type Debt struct {
	Debtor   string
	Creditor string
	Amount   money.Amount
}
