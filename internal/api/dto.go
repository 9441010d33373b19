package api

import (
	"time"

	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/money"
	"github.com/mmynk/splitease/internal/service"
)

// Request bodies

type createExpenseRequest struct {
	Description  string       `json:"description"`
	Amount       money.Amount `json:"amount"`
	Payer        string       `json:"payer"`
	Participants []string     `json:"participants"`
	GroupID      string       `json:"groupId"`
}

type createSettlementRequest struct {
	FromUser string       `json:"fromUser"`
	ToUser   string       `json:"toUser"`
	Amount   money.Amount `json:"amount"`
	GroupID  string       `json:"groupId"`
	Note     string       `json:"note"`
}

type createGroupRequest struct {
	Name string `json:"name"`
}

type addFriendRequest struct {
	Name    string `json:"name"`
	GroupID string `json:"groupId"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Responses

type shareResponse struct {
	Participant string       `json:"participant"`
	Amount      money.Amount `json:"amount"`
}

type expenseResponse struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Amount       money.Amount    `json:"amount"`
	Payer        string          `json:"payer"`
	Participants []string        `json:"participants"`
	Shares       []shareResponse `json:"shares"`
	GroupID      string          `json:"groupId,omitempty"`
	CreatedAt    string          `json:"createdAt"`
}

type settlementResponse struct {
	ID        string       `json:"id"`
	FromUser  string       `json:"fromUser"`
	ToUser    string       `json:"toUser"`
	Amount    money.Amount `json:"amount"`
	GroupID   string       `json:"groupId,omitempty"`
	Note      string       `json:"note,omitempty"`
	CreatedAt string       `json:"createdAt"`
}

type debtResponse struct {
	Debtor   string       `json:"debtor"`
	Creditor string       `json:"creditor"`
	Amount   money.Amount `json:"amount"`
}

// debtEnvelope is the current debts shape. Older clients get a bare
// []debtResponse instead.
type debtEnvelope struct {
	Debts    []debtResponse          `json:"debts"`
	Balances map[string]money.Amount `json:"balances"`
}

type friendBalanceResponse struct {
	FriendName string       `json:"friendName"`
	Amount     money.Amount `json:"amount"`
}

type groupResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	CreatedAt string `json:"createdAt"`
}

type friendResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	GroupID   string `json:"groupId,omitempty"`
	CreatedAt string `json:"createdAt"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

func timestamp(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	shares := make([]shareResponse, len(e.Shares))
	for i, s := range e.Shares {
		shares[i] = shareResponse{Participant: s.Participant, Amount: s.Amount}
	}
	return expenseResponse{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount,
		Payer:        e.Payer,
		Participants: e.Participants,
		Shares:       shares,
		GroupID:      e.GroupID,
		CreatedAt:    timestamp(e.CreatedAt),
	}
}

func toSettlementResponse(s *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:        s.ID,
		FromUser:  s.FromUser,
		ToUser:    s.ToUser,
		Amount:    s.Amount,
		GroupID:   s.GroupID,
		Note:      s.Note,
		CreatedAt: timestamp(s.CreatedAt),
	}
}

func toDebtResponses(debts []models.Debt) []debtResponse {
	out := make([]debtResponse, len(debts))
	for i, d := range debts {
		out[i] = debtResponse{Debtor: d.Debtor, Creditor: d.Creditor, Amount: d.Amount}
	}
	return out
}

func toEnvelope(report *service.DebtReport) debtEnvelope {
	balances := report.Balances
	if balances == nil {
		balances = map[string]money.Amount{}
	}
	return debtEnvelope{Debts: toDebtResponses(report.Debts), Balances: balances}
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{ID: g.ID, Name: g.Name, Code: g.Code, CreatedAt: timestamp(g.CreatedAt)}
}

func toFriendResponse(f *models.Friend) friendResponse {
	return friendResponse{ID: f.ID, Name: f.Name, GroupID: f.GroupID, CreatedAt: timestamp(f.CreatedAt)}
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.DisplayName, CreatedAt: timestamp(u.CreatedAt)}
}

func toSessionResponse(s *service.Session) sessionResponse {
	return sessionResponse{User: toUserResponse(s.User), Token: s.Token}
}
