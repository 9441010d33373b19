package api

import (
	"net/http"

	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/service"
)

func scopeFrom(r *http.Request) models.Scope {
	return models.Scope{GroupID: r.URL.Query().Get("group_id")}
}

// groupOrScope prefers the group given in the body and falls back to ?group_id=.
func groupOrScope(r *http.Request, bodyGroupID string) string {
	if bodyGroupID != "" {
		return bodyGroupID
	}
	return scopeFrom(r).GroupID
}

func handleListExpenses(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		expenses, err := deps.Ledger.ListExpenses(r.Context(), scopeFrom(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		out := make([]expenseResponse, len(expenses))
		for i, e := range expenses {
			out[i] = toExpenseResponse(e)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleCreateExpense(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createExpenseRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		expense, err := deps.Ledger.CreateExpense(r.Context(), service.ExpenseInput{
			Description:  req.Description,
			Amount:       req.Amount,
			Payer:        req.Payer,
			Participants: req.Participants,
			GroupID:      groupOrScope(r, req.GroupID),
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
	}
}

func handleListSettlements(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settlements, err := deps.Ledger.ListSettlements(r.Context(), scopeFrom(r))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		out := make([]settlementResponse, len(settlements))
		for i, s := range settlements {
			out[i] = toSettlementResponse(s)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleCreateSettlement(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSettlementRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		settlement, err := deps.Ledger.CreateSettlement(r.Context(), service.SettlementInput{
			FromUser: req.FromUser,
			ToUser:   req.ToUser,
			Amount:   req.Amount,
			GroupID:  groupOrScope(r, req.GroupID),
			Note:     req.Note,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSettlementResponse(settlement))
	}
}
