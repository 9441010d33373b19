// Package rpc exposes the ledger over Connect, next to the REST API.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitease/internal/auth"
	"github.com/mmynk/splitease/internal/middleware"
	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/service"
)

// LedgerServiceName is the fully-qualified name of the ledger service.
const LedgerServiceName = "splitease.v1.LedgerService"

// Procedure paths.
const (
	CreateExpenseProcedure    = "/" + LedgerServiceName + "/CreateExpense"
	ListExpensesProcedure     = "/" + LedgerServiceName + "/ListExpenses"
	CreateSettlementProcedure = "/" + LedgerServiceName + "/CreateSettlement"
	ListSettlementsProcedure  = "/" + LedgerServiceName + "/ListSettlements"
	GetDebtsProcedure         = "/" + LedgerServiceName + "/GetDebts"
)

var errInternal = errors.New("internal server error")

// LedgerServer implements the ledger RPCs on top of the services.
type LedgerServer struct {
	ledger *service.LedgerService
	debts  *service.DebtService
}

// NewLedgerServer creates a LedgerServer.
func NewLedgerServer(ledger *service.LedgerService, debts *service.DebtService) *LedgerServer {
	return &LedgerServer{ledger: ledger, debts: debts}
}

// NewLedgerServiceHandler builds an HTTP handler serving every ledger
// procedure, and returns the path to mount it on.
func NewLedgerServiceHandler(srv *LedgerServer, jwtManager *auth.JWTManager, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(
			middleware.OptionalAuth(jwtManager),
			middleware.LoggingInterceptor(),
		),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateExpenseProcedure, connect.NewUnaryHandler(CreateExpenseProcedure, srv.CreateExpense, opts...))
	mux.Handle(ListExpensesProcedure, connect.NewUnaryHandler(ListExpensesProcedure, srv.ListExpenses, opts...))
	mux.Handle(CreateSettlementProcedure, connect.NewUnaryHandler(CreateSettlementProcedure, srv.CreateSettlement, opts...))
	mux.Handle(ListSettlementsProcedure, connect.NewUnaryHandler(ListSettlementsProcedure, srv.ListSettlements, opts...))
	mux.Handle(GetDebtsProcedure, connect.NewUnaryHandler(GetDebtsProcedure, srv.GetDebts, opts...))
	return "/" + LedgerServiceName + "/", mux
}

func (s *LedgerServer) CreateExpense(
	ctx context.Context,
	req *connect.Request[CreateExpenseRequest],
) (*connect.Response[CreateExpenseResponse], error) {
	expense, err := s.ledger.CreateExpense(ctx, service.ExpenseInput{
		Description:  req.Msg.Description,
		Amount:       req.Msg.Amount,
		Payer:        req.Msg.Payer,
		Participants: req.Msg.Participants,
		GroupID:      req.Msg.GroupID,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateExpenseResponse{Expense: toExpense(expense)}), nil
}

func (s *LedgerServer) ListExpenses(
	ctx context.Context,
	req *connect.Request[ListExpensesRequest],
) (*connect.Response[ListExpensesResponse], error) {
	expenses, err := s.ledger.ListExpenses(ctx, models.Scope{GroupID: req.Msg.GroupID})
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toExpense(e)
	}
	return connect.NewResponse(&ListExpensesResponse{Expenses: out}), nil
}

func (s *LedgerServer) CreateSettlement(
	ctx context.Context,
	req *connect.Request[CreateSettlementRequest],
) (*connect.Response[CreateSettlementResponse], error) {
	settlement, err := s.ledger.CreateSettlement(ctx, service.SettlementInput{
		FromUser: req.Msg.FromUser,
		ToUser:   req.Msg.ToUser,
		Amount:   req.Msg.Amount,
		GroupID:  req.Msg.GroupID,
		Note:     req.Msg.Note,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateSettlementResponse{Settlement: toSettlement(settlement)}), nil
}

func (s *LedgerServer) ListSettlements(
	ctx context.Context,
	req *connect.Request[ListSettlementsRequest],
) (*connect.Response[ListSettlementsResponse], error) {
	settlements, err := s.ledger.ListSettlements(ctx, models.Scope{GroupID: req.Msg.GroupID})
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toSettlement(st)
	}
	return connect.NewResponse(&ListSettlementsResponse{Settlements: out}), nil
}

func (s *LedgerServer) GetDebts(
	ctx context.Context,
	req *connect.Request[GetDebtsRequest],
) (*connect.Response[GetDebtsResponse], error) {
	optimize := true
	if req.Msg.Optimize != nil {
		optimize = *req.Msg.Optimize
	}

	report, err := s.debts.GetDebts(ctx, models.Scope{GroupID: req.Msg.GroupID}, optimize)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toDebtsResponse(report)), nil
}

// toConnectError maps domain errors onto Connect codes. Anything else is
// logged here and reaches the client without detail.
func toConnectError(err error) error {
	var (
		validation *models.ValidationError
		notFound   *models.NotFoundError
		conflict   *models.ConflictError
		unauth     *models.UnauthenticatedError
	)

	switch {
	case errors.As(err, &validation):
		return connect.NewError(connect.CodeInvalidArgument, validation)
	case errors.As(err, &notFound):
		return connect.NewError(connect.CodeNotFound, notFound)
	case errors.As(err, &conflict):
		return connect.NewError(connect.CodeAlreadyExists, conflict)
	case errors.As(err, &unauth):
		return connect.NewError(connect.CodeUnauthenticated, unauth)
	default:
		slog.Error("Ledger RPC failed", "error", err)
		return connect.NewError(connect.CodeInternal, errInternal)
	}
}
