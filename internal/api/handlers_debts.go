package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mmynk/splitease/internal/middleware"
)

// LegacyMediaType asks /api/debts for the bare-array shape.
const LegacyMediaType = "application/vnd.splitease.legacy+json"

type debtShape int

const (
	shapeEnvelope debtShape = iota
	shapeLegacy
)

// negotiateShape picks the debts response shape. An explicit format parameter
// wins, then the Accept header; otherwise optimized results use the envelope
// and pairwise results the legacy array.
func negotiateShape(r *http.Request, optimize bool) (debtShape, bool) {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "envelope":
		return shapeEnvelope, true
	case "legacy":
		return shapeLegacy, true
	case "":
	default:
		return 0, false
	}

	if strings.Contains(r.Header.Get("Accept"), LegacyMediaType) {
		return shapeLegacy, true
	}
	if optimize {
		return shapeEnvelope, true
	}
	return shapeLegacy, true
}

func handleGetDebts(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		optimize := true
		if v := r.URL.Query().Get("optimize"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "optimize must be true or false")
				return
			}
			optimize = b
		}

		shape, ok := negotiateShape(r, optimize)
		if !ok {
			writeError(w, http.StatusBadRequest, "format must be legacy or envelope")
			return
		}

		report, err := deps.Debts.GetDebts(r.Context(), scopeFrom(r), optimize)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		if shape == shapeLegacy {
			writeJSON(w, http.StatusOK, toDebtResponses(report.Debts))
			return
		}
		writeJSON(w, http.StatusOK, toEnvelope(report))
	}
}

// handleFriendBalances serves the per-friend view. name defaults to the
// signed-in user's display name.
func handleFriendBalances(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = middleware.GetDisplayName(r.Context())
		}

		balances, err := deps.Debts.FriendBalances(r.Context(), scopeFrom(r), name)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		out := make([]friendBalanceResponse, len(balances))
		for i, b := range balances {
			out[i] = friendBalanceResponse{FriendName: b.Name, Amount: b.Amount}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
