// Package expenses records operating costs counted against profit.
package expenses

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

const dateLayout = "2006-01-02"

// CreateExpenseInput is an expense as entered by staff. ExpenseDate uses the YYYY-MM-DD layout.
type CreateExpenseInput struct {
	ExpenseDate string          `json:"expense_date" validate:"required,datetime=2006-01-02"`
	Category    string          `json:"category" validate:"required,max=100"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=500"`
	PaymentMode string          `json:"payment_mode" validate:"max=50"`
	Vendor      string          `json:"vendor" validate:"max=200"`
	Actor       string          `json:"-"`
}

// ListRequest filters expenses by expense date.
type ListRequest struct {
	From time.Time
	To   time.Time
}

// Service manages expenses.
type Service struct {
	store    store.Store
	logger   *slog.Logger
	audit    shared.AuditPort
	notifier shared.ChangeNotifier
	now      func() time.Time
}

// NewService constructs the expense service. logger, audit and notifier may be nil.
func NewService(st store.Store, logger *slog.Logger, audit shared.AuditPort, notifier shared.ChangeNotifier) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		logger:   logger,
		audit:    audit,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Create validates and stores an expense.
func (s *Service) Create(ctx context.Context, input CreateExpenseInput) (store.Expense, error) {
	date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(input.ExpenseDate), time.UTC)
	if err != nil {
		return store.Expense{}, shared.Validationf("expense date must use %s", dateLayout)
	}
	if strings.TrimSpace(input.Category) == "" {
		return store.Expense{}, shared.Validationf("category required")
	}
	if !input.Amount.IsPositive() {
		return store.Expense{}, shared.Validationf("amount must be positive")
	}
	expense := store.Expense{
		ID:          uuid.NewString(),
		ExpenseDate: date,
		Category:    strings.TrimSpace(input.Category),
		Amount:      input.Amount,
		Description: input.Description,
		PaymentMode: input.PaymentMode,
		Vendor:      input.Vendor,
		CreatedAt:   s.now(),
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return shared.StoreError("expenses.insert", tx.InsertExpense(ctx, expense))
	})
	if err != nil {
		return store.Expense{}, err
	}
	s.record(ctx, input.Actor, "expenses:create", expense.ID, map[string]any{
		"category": expense.Category,
		"amount":   expense.Amount.String(),
	})
	s.notify(ctx, expense.ID)
	return expense, nil
}

// List returns expenses newest first.
func (s *Service) List(ctx context.Context, req ListRequest) ([]store.Expense, error) {
	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		return nil, shared.Validationf("period end before start")
	}
	expenses, err := s.store.ListExpenses(ctx, store.PeriodFilter{From: req.From, To: req.To})
	if err != nil {
		return nil, shared.StoreError("expenses.list", err)
	}
	return expenses, nil
}

// Delete removes an expense.
func (s *Service) Delete(ctx context.Context, id, actor string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return shared.StoreError("expenses.delete", tx.DeleteExpense(ctx, id))
	})
	if err != nil {
		return err
	}
	s.record(ctx, actor, "expenses:delete", id, nil)
	s.notify(ctx, id)
	return nil
}

// Total sums the amounts of the given expenses.
func Total(expenses []store.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

func (s *Service) record(ctx context.Context, actor, action, id string, meta map[string]any) {
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{Actor: actor, Action: action, Entity: "expense", EntityID: id, Meta: meta, At: s.now()}); err != nil {
			s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
		}
	}
}

func (s *Service) notify(ctx context.Context, id string) {
	if s.notifier != nil {
		s.notifier.NotifyChange(ctx, shared.ChangeEvent{Kind: shared.ChangeExpense, EntityID: id})
	}
}
