// Package api serves the SplitEase REST API.
package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mmynk/splitease/internal/auth"
	"github.com/mmynk/splitease/internal/metrics"
	"github.com/mmynk/splitease/internal/middleware"
	"github.com/mmynk/splitease/internal/service"
	"github.com/mmynk/splitease/internal/storage"
)

// Dependencies is everything the router needs. RateLimiter and RPC are optional.
type Dependencies struct {
	Store   storage.Store
	Ledger  *service.LedgerService
	Debts   *service.DebtService
	Groups  *service.GroupService
	Friends *service.FriendService
	Auth    *service.AuthService
	JWT     *auth.JWTManager
	Metrics *metrics.Metrics

	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	MaxBodyBytes   int64

	// RPC is mounted under RPCPath, next to the REST routes.
	RPCPath string
	RPC     http.Handler
}

// NewRouter builds the HTTP handler for the whole server.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(cors.Handler(corsOptions(deps.AllowedOrigins)))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Handler)
	}
	r.Use(limitBody(deps.MaxBodyBytes))
	r.Use(middleware.OptionalAuthHTTP(deps.JWT))

	r.Get("/health", handleHealth(deps))
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handleHealth(deps))

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", handleRegister(deps))
			r.Post("/login", handleLogin(deps))
			r.With(middleware.RequireAuthHTTP(deps.JWT)).Get("/me", handleMe(deps))
		})

		r.Get("/expenses", handleListExpenses(deps))
		r.Post("/expenses", handleCreateExpense(deps))

		r.Get("/settlements", handleListSettlements(deps))
		r.Post("/settlements", handleCreateSettlement(deps))

		r.Get("/debts", handleGetDebts(deps))
		r.Get("/debts/friends", handleFriendBalances(deps))

		r.Get("/friends", handleListFriends(deps))
		r.Post("/friends", handleAddFriend(deps))

		r.Get("/groups", handleListGroups(deps))
		r.Post("/groups", handleCreateGroup(deps))
		r.Get("/groups/{id}", handleGetGroup(deps))
		r.Delete("/groups/{id}", handleDeleteGroup(deps))
	})

	if deps.RPC != nil && deps.RPCPath != "" {
		r.Handle(strings.TrimSuffix(deps.RPCPath, "/")+"/*", deps.RPC)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			"Connect-Protocol-Version", "Connect-Timeout-Ms",
		},
		ExposedHeaders: []string{"Connect-Protocol-Version", "Connect-Timeout-Ms", "Retry-After"},
		MaxAge:         300,
	}
}
