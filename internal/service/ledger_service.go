package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/splitease/internal/events"
	"github.com/mmynk/splitease/internal/metrics"
	"github.com/mmynk/splitease/internal/middleware"
	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/money"
	"github.com/mmynk/splitease/internal/storage"
)

const (
	maxDescriptionLength = 200
	maxNoteLength        = 200
	maxParticipants      = 50
	maxIdentityLength    = 50
)

// ExpenseInput is a request to record an expense.
type ExpenseInput struct {
	Description  string
	Amount       money.Amount
	Payer        string
	Participants []string
	GroupID      string
}

// SettlementInput is a request to record a direct payment.
type SettlementInput struct {
	FromUser string
	ToUser   string
	Amount   money.Amount
	GroupID  string
	Note     string
}

// LedgerService validates and records expenses and settlements.
type LedgerService struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(store storage.Store, publisher events.Publisher, m *metrics.Metrics) *LedgerService {
	return &LedgerService{store: store, publisher: publisher, metrics: m}
}

// CreateExpense validates in, computes equal shares and persists the expense.
// When Payer is empty the authenticated user's display name is used.
func (s *LedgerService) CreateExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	slog.Info("CreateExpense request received",
		"payer", in.Payer,
		"amount", in.Amount,
		"participants_count", len(in.Participants),
		"group_id", in.GroupID,
	)

	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, models.ErrValidation("description is required")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return nil, models.ErrValidation("description must be at most %d characters", maxDescriptionLength)
	}
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}

	payer := strings.TrimSpace(in.Payer)
	if payer == "" {
		payer = middleware.GetDisplayName(ctx)
	}
	if err := validateIdentity("payer", payer); err != nil {
		return nil, err
	}

	participants, err := normalizeParticipants(in.Participants)
	if err != nil {
		return nil, err
	}

	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	shares, err := models.EqualShares(in.Amount, participants)
	if err != nil {
		return nil, models.ErrValidation("%v", err)
	}

	expense := &models.Expense{
		Description:  description,
		Amount:       in.Amount,
		Payer:        payer,
		Participants: participants,
		Shares:       shares,
		GroupID:      in.GroupID,
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	s.metrics.LedgerWrites.WithLabelValues("expense").Inc()

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", expense.GroupID)

	s.registerFriends(ctx, expense.GroupID, append([]string{payer}, participants...))
	s.publish(ctx, events.NewExpenseCreated(expense))

	return expense, nil
}

// ListExpenses returns the expenses in scope, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, scope models.Scope) ([]*models.Expense, error) {
	slog.Info("ListExpenses request received", "scope", scope.Key())

	expenses, err := s.store.ListExpenses(ctx, scope)
	if err != nil {
		slog.Error("ListExpenses failed", "scope", scope.Key(), "error", err)
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// CreateSettlement validates in and records the payment.
func (s *LedgerService) CreateSettlement(ctx context.Context, in SettlementInput) (*models.Settlement, error) {
	slog.Info("CreateSettlement request received",
		"from_user", in.FromUser,
		"to_user", in.ToUser,
		"amount", in.Amount,
		"group_id", in.GroupID,
	)

	from := strings.TrimSpace(in.FromUser)
	to := strings.TrimSpace(in.ToUser)
	if err := validateIdentity("fromUser", from); err != nil {
		return nil, err
	}
	if err := validateIdentity("toUser", to); err != nil {
		return nil, err
	}
	if from == to {
		return nil, models.ErrValidation("cannot settle with yourself")
	}
	if err := validateAmount(in.Amount); err != nil {
		return nil, err
	}
	note := strings.TrimSpace(in.Note)
	if utf8.RuneCountInString(note) > maxNoteLength {
		return nil, models.ErrValidation("note must be at most %d characters", maxNoteLength)
	}

	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		GroupID:  in.GroupID,
		FromUser: from,
		ToUser:   to,
		Amount:   in.Amount,
		Note:     note,
	}

	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("CreateSettlement failed", "error", err)
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}
	s.metrics.LedgerWrites.WithLabelValues("settlement").Inc()

	slog.Info("Settlement created", "settlement_id", settlement.ID, "group_id", settlement.GroupID)

	s.publish(ctx, events.NewSettlementCreated(settlement))

	return settlement, nil
}

// ListSettlements returns the settlements in scope, newest first.
func (s *LedgerService) ListSettlements(ctx context.Context, scope models.Scope) ([]*models.Settlement, error) {
	slog.Info("ListSettlements request received", "scope", scope.Key())

	settlements, err := s.store.ListSettlements(ctx, scope)
	if err != nil {
		slog.Error("ListSettlements failed", "scope", scope.Key(), "error", err)
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return settlements, nil
}

// checkGroup returns a NotFoundError when groupID is set but unknown.
func (s *LedgerService) checkGroup(ctx context.Context, groupID string) error {
	if groupID == "" {
		return nil
	}
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return nil
}

// registerFriends adds any unknown identities to the friend registry.
// Failures are logged and otherwise ignored; the expense is already committed.
func (s *LedgerService) registerFriends(ctx context.Context, groupID string, names []string) {
	added, err := s.store.AddFriends(ctx, groupID, names)
	if err != nil {
		slog.Warn("Failed to auto-register friends", "group_id", groupID, "error", err)
		return
	}
	if len(added) > 0 {
		slog.Info("Auto-registered friends", "group_id", groupID, "names", added)
	}
}

func (s *LedgerService) publish(ctx context.Context, event events.LedgerEvent) {
	publish(ctx, s.publisher, s.metrics, event)
}

// publish sends event and records the outcome. Publishing never fails the
// request that produced the event.
func publish(ctx context.Context, publisher events.Publisher, m *metrics.Metrics, event events.LedgerEvent) {
	if err := publisher.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish ledger event", "type", event.Type, "id", event.ID, "error", err)
		m.EventsPublished.WithLabelValues(event.Type, "error").Inc()
		return
	}
	m.EventsPublished.WithLabelValues(event.Type, "ok").Inc()
}

func validateAmount(amount money.Amount) error {
	if amount <= 0 {
		return models.ErrValidation("amount must be positive")
	}
	if amount > money.MaxExpense {
		return models.ErrValidation("amount must be at most %s", money.MaxExpense)
	}
	return nil
}

func validateIdentity(field, name string) error {
	if name == "" {
		return models.ErrValidation("%s is required", field)
	}
	if utf8.RuneCountInString(name) > maxIdentityLength {
		return models.ErrValidation("%s must be at most %d characters", field, maxIdentityLength)
	}
	return nil
}

// normalizeParticipants trims names, rejects blanks and drops duplicates while
// keeping the submitted order.
func normalizeParticipants(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, models.ErrValidation("at least one participant is required")
	}

	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if err := validateIdentity("participant", name); err != nil {
			return nil, err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}

	if len(out) > maxParticipants {
		return nil, models.ErrValidation("at most %d participants are allowed", maxParticipants)
	}
	return out, nil
}
