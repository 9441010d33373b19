package models

import "github.com/mmynk/splitease/internal/money"

// Expense records that Payer paid Amount on behalf of Participants.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is the human-readable label (e.g., "Dinner at Toit").
	Description string

	// Amount is the total paid.
	Amount money.Amount

	// Payer is the identity who paid. The payer does not have to be a participant.
	Payer string

	// Participants are the identities splitting the expense, de-duplicated, in
	// the order they were submitted.
	Participants []string

	// Shares are the exact per-participant amounts, computed once when the
	// expense is written. They always sum to Amount.
	Shares []Share

	// GroupID is the optional group this expense belongs to.
	GroupID string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Share is one participant's portion of an expense.
type Share struct {
	Participant string
	Amount      money.Amount
}

// EqualShares splits amount across participants using the equal-split policy.
func EqualShares(amount money.Amount, participants []string) ([]Share, error) {
	amounts, err := money.SplitEqually(amount, len(participants))
	if err != nil {
		return nil, err
	}
	shares := make([]Share, len(participants))
	for i, p := range participants {
		shares[i] = Share{Participant: p, Amount: amounts[i]}
	}
	return shares, nil
}
