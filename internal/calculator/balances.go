package calculator

import (
	"sort"

	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/money"
)

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	Payer  string
	Amount money.Amount
	Shares []ShareForBalance
}

// ShareForBalance is one participant's portion of an expense.
type ShareForBalance struct {
	Participant string
	Amount      money.Amount
}

// SettlementForBalance represents a settlement with the minimal information needed for balance calculations.
type SettlementForBalance struct {
	FromUser string // Who paid (debtor settling up)
	ToUser   string // Who received (creditor being paid)
	Amount   money.Amount
}

// MemberBalance represents the balance information for one identity.
type MemberBalance struct {
	Identity   string
	NetBalance money.Amount // Sum of the matrix column. Positive = owed money, Negative = owes money
	TotalPaid  money.Amount // Expenses paid plus settlements sent
	TotalOwed  money.Amount // Expense shares plus settlements received
}

// Counterparty is the balance between one identity and another.
type Counterparty struct {
	Identity string
	Amount   money.Amount // Positive = counterparty owes, Negative = counterparty is owed
}

// Balances is the pairwise balance matrix derived from a ledger snapshot.
//
// The matrix is kept antisymmetric: Owes(a, b) == -Owes(b, a).
type Balances struct {
	owes    map[string]map[string]money.Amount
	members map[string]*MemberBalance
}

func newBalances() *Balances {
	return &Balances{
		owes:    make(map[string]map[string]money.Amount),
		members: make(map[string]*MemberBalance),
	}
}

// Accumulate builds the pairwise balance matrix from expenses and settlements.
//
// Algorithm:
// - For each expense share whose participant is not the payer: participant owes payer the share
// - For each settlement: what FromUser owes ToUser is reduced by the amount (may flip sign)
// - Net balance per identity = sum of what everyone owes it (a column of the matrix)
func Accumulate(expenses []ExpenseForBalance, settlements []SettlementForBalance) *Balances {
	b := newBalances()

	for _, expense := range expenses {
		// Skip expenses without payer or shares (rejected at write time)
		if expense.Payer == "" || len(expense.Shares) == 0 {
			continue
		}

		payer := b.member(expense.Payer)
		payer.TotalPaid += expense.Amount

		for _, share := range expense.Shares {
			b.member(share.Participant).TotalOwed += share.Amount
			b.record(share.Participant, expense.Payer, share.Amount)
		}
	}

	for _, s := range settlements {
		if s.FromUser == "" || s.ToUser == "" {
			continue
		}
		// Payer's balance improves, receiver's balance decreases
		b.member(s.FromUser).TotalPaid += s.Amount
		b.member(s.ToUser).TotalOwed += s.Amount
		b.record(s.FromUser, s.ToUser, -s.Amount)
	}

	for debtor, row := range b.owes {
		for creditor, amount := range row {
			if amount > 0 {
				b.members[creditor].NetBalance += amount
				b.members[debtor].NetBalance -= amount
			}
		}
	}

	return b
}

// Verify checks the matrix against the ledger totals. On a well-formed ledger
// every identity's net equals TotalPaid - TotalOwed; a mismatch means an
// expense's shares did not add up to its amount.
func (b *Balances) Verify() error {
	var total money.Amount
	for _, identity := range b.Identities() {
		m := b.members[identity]
		fromTotals := m.TotalPaid - m.TotalOwed
		total += fromTotals
		if m.NetBalance != fromTotals {
			return models.ErrComputation("net balance of %s is %s but ledger totals give %s", identity, m.NetBalance, fromTotals)
		}
	}
	if total != 0 {
		return models.ErrComputation("net balances sum to %s, want 0.00", total)
	}
	return nil
}

// record adds amount to what debtor owes creditor and mirrors it.
func (b *Balances) record(debtor, creditor string, amount money.Amount) {
	if debtor == creditor {
		return
	}
	if _, exists := b.owes[debtor]; !exists {
		b.owes[debtor] = make(map[string]money.Amount)
	}
	if _, exists := b.owes[creditor]; !exists {
		b.owes[creditor] = make(map[string]money.Amount)
	}
	b.owes[debtor][creditor] += amount
	b.owes[creditor][debtor] -= amount
}

func (b *Balances) member(identity string) *MemberBalance {
	m, exists := b.members[identity]
	if !exists {
		m = &MemberBalance{Identity: identity}
		b.members[identity] = m
	}
	return m
}

// Owes returns the signed amount debtor owes creditor.
func (b *Balances) Owes(debtor, creditor string) money.Amount {
	return b.owes[debtor][creditor]
}

// Net returns the net balance of identity. Positive means it is owed overall.
func (b *Balances) Net(identity string) money.Amount {
	if m, exists := b.members[identity]; exists {
		return m.NetBalance
	}
	return 0
}

// Nets returns every identity's net balance.
func (b *Balances) Nets() map[string]money.Amount {
	nets := make(map[string]money.Amount, len(b.members))
	for identity, m := range b.members {
		nets[identity] = m.NetBalance
	}
	return nets
}

// Identities returns every identity seen in the ledger, sorted.
func (b *Balances) Identities() []string {
	ids := make([]string, 0, len(b.members))
	for identity := range b.members {
		ids = append(ids, identity)
	}
	sort.Strings(ids)
	return ids
}

// Members returns per-identity totals sorted by identity.
func (b *Balances) Members() []MemberBalance {
	out := make([]MemberBalance, 0, len(b.members))
	for _, identity := range b.Identities() {
		out = append(out, *b.members[identity])
	}
	return out
}

// RelativeTo returns identity's balance with every counterparty it has
// interacted with, sorted by counterparty.
func (b *Balances) RelativeTo(identity string) []Counterparty {
	row := b.owes[identity]
	others := make([]string, 0, len(row))
	for other := range row {
		others = append(others, other)
	}
	sort.Strings(others)

	out := make([]Counterparty, len(others))
	for i, other := range others {
		out[i] = Counterparty{Identity: other, Amount: b.owes[other][identity]}
	}
	return out
}
