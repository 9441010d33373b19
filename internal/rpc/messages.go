package rpc

import (
	"time"

	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/money"
	"github.com/mmynk/splitease/internal/service"
)

// Expense is the wire form of models.Expense.
type Expense struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	Amount       money.Amount `json:"amount"`
	Payer        string       `json:"payer"`
	Participants []string     `json:"participants"`
	Shares       []Share      `json:"shares"`
	GroupID      string       `json:"groupId,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type Share struct {
	Participant string       `json:"participant"`
	Amount      money.Amount `json:"amount"`
}

// Settlement is the wire form of models.Settlement.
type Settlement struct {
	ID        string       `json:"id"`
	FromUser  string       `json:"fromUser"`
	ToUser    string       `json:"toUser"`
	Amount    money.Amount `json:"amount"`
	GroupID   string       `json:"groupId,omitempty"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

type Debt struct {
	Debtor   string       `json:"debtor"`
	Creditor string       `json:"creditor"`
	Amount   money.Amount `json:"amount"`
}

type CreateExpenseRequest struct {
	Description  string       `json:"description"`
	Amount       money.Amount `json:"amount"`
	Payer        string       `json:"payer"`
	Participants []string     `json:"participants"`
	GroupID      string       `json:"groupId"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupID string `json:"groupId"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type CreateSettlementRequest struct {
	FromUser string       `json:"fromUser"`
	ToUser   string       `json:"toUser"`
	Amount   money.Amount `json:"amount"`
	GroupID  string       `json:"groupId"`
	Note     string       `json:"note"`
}

type CreateSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"groupId"`
}

type ListSettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

// GetDebtsRequest queries debts in a scope. Optimize defaults to true.
type GetDebtsRequest struct {
	GroupID  string `json:"groupId"`
	Optimize *bool  `json:"optimize,omitempty"`
}

// GetDebtsResponse always carries the full envelope; the RPC surface has no
// legacy clients.
type GetDebtsResponse struct {
	Mode     string                  `json:"mode"`
	Debts    []Debt                  `json:"debts"`
	Balances map[string]money.Amount `json:"balances"`
	Version  int64                   `json:"version"`
}

func toExpense(e *models.Expense) Expense {
	shares := make([]Share, len(e.Shares))
	for i, s := range e.Shares {
		shares[i] = Share{Participant: s.Participant, Amount: s.Amount}
	}
	return Expense{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount,
		Payer:        e.Payer,
		Participants: e.Participants,
		Shares:       shares,
		GroupID:      e.GroupID,
		CreatedAt:    time.Unix(e.CreatedAt, 0).UTC(),
	}
}

func toSettlement(s *models.Settlement) Settlement {
	return Settlement{
		ID:        s.ID,
		FromUser:  s.FromUser,
		ToUser:    s.ToUser,
		Amount:    s.Amount,
		GroupID:   s.GroupID,
		Note:      s.Note,
		CreatedAt: time.Unix(s.CreatedAt, 0).UTC(),
	}
}

func toDebtsResponse(report *service.DebtReport) *GetDebtsResponse {
	debts := make([]Debt, len(report.Debts))
	for i, d := range report.Debts {
		debts[i] = Debt{Debtor: d.Debtor, Creditor: d.Creditor, Amount: d.Amount}
	}
	balances := report.Balances
	if balances == nil {
		balances = map[string]money.Amount{}
	}
	return &GetDebtsResponse{
		Mode:     string(report.Mode),
		Debts:    debts,
		Balances: balances,
		Version:  report.Version,
	}
}
