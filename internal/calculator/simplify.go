package calculator

import (
	"container/heap"
	"sort"

	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/money"
)

// Simplify reduces net balances to a short list of payments that settle them.
//
// Greedy net settlement: creditors (net > dust) and debtors (net < -dust) are
// kept in max-heaps. The largest debtor pays the largest creditor the smaller of
// the two magnitudes until one side runs out. Ties are broken by identity so the
// output is deterministic. At most parties-1 debts are emitted.
//
// The greedy match is a heuristic; it does not always find the minimum number
// of transactions.
func Simplify(nets map[string]money.Amount) ([]models.Debt, error) {
	var total money.Amount
	debtors := &partyHeap{}
	creditors := &partyHeap{}

	for identity, net := range nets {
		total += net
		switch {
		case net > money.Dust:
			*creditors = append(*creditors, party{identity: identity, amount: net})
		case net < -money.Dust:
			*debtors = append(*debtors, party{identity: identity, amount: -net})
		}
	}
	if total != 0 {
		return nil, models.ErrComputation("net balances sum to %s, want 0.00", total)
	}

	heap.Init(debtors)
	heap.Init(creditors)

	var debts []models.Debt
	for debtors.Len() > 0 && creditors.Len() > 0 {
		debtor := heap.Pop(debtors).(party)
		creditor := heap.Pop(creditors).(party)

		amount := min(debtor.amount, creditor.amount)
		debts = append(debts, models.Debt{
			Debtor:   debtor.identity,
			Creditor: creditor.identity,
			Amount:   amount,
		})

		debtor.amount -= amount
		creditor.amount -= amount
		if debtor.amount > money.Dust {
			heap.Push(debtors, debtor)
		}
		if creditor.amount > money.Dust {
			heap.Push(creditors, creditor)
		}
	}

	// Whatever is left must be dust accumulated from parties dropped along the way.
	var residual money.Amount
	for _, p := range *debtors {
		residual += p.amount
	}
	for _, p := range *creditors {
		residual += p.amount
	}
	if limit := money.Dust * money.Amount(len(nets)); residual > limit {
		return nil, models.ErrComputation("%s left unsettled after simplification (limit %s)", residual, limit)
	}

	return debts, nil
}

// Pairwise lists every pairwise balance above dust without netting, one debt per
// ordered pair, sorted by debtor then creditor.
func Pairwise(b *Balances) []models.Debt {
	var debts []models.Debt
	for _, debtor := range b.Identities() {
		row := b.owes[debtor]
		creditors := make([]string, 0, len(row))
		for creditor, amount := range row {
			if amount > money.Dust {
				creditors = append(creditors, creditor)
			}
		}
		sort.Strings(creditors)
		for _, creditor := range creditors {
			debts = append(debts, models.Debt{
				Debtor:   debtor,
				Creditor: creditor,
				Amount:   row[creditor],
			})
		}
	}
	return debts
}

type party struct {
	identity string
	amount   money.Amount
}

// partyHeap is a max-heap on amount, then identity ascending.
type partyHeap []party

func (h partyHeap) Len() int { return len(h) }

func (h partyHeap) Less(i, j int) bool {
	if h[i].amount != h[j].amount {
		return h[i].amount > h[j].amount
	}
	return h[i].identity < h[j].identity
}

func (h partyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *partyHeap) Push(x any) { *h = append(*h, x.(party)) }

func (h *partyHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}
