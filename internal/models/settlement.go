package models

import "github.com/mmynk/splitease/internal/money"

// Settlement represents a direct payment that reduces what FromUser owes ToUser.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the optional group this settlement belongs to.
	GroupID string

	// FromUser is the identity who paid (debtor settling up).
	FromUser string

	// ToUser is the identity who received payment (creditor being paid).
	ToUser string

	// Amount is the payment amount. Overpaying flips the direction of the debt.
	Amount money.Amount

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// Note is an optional description for the settlement.
	Note string
}
