package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"expensetracker/internal/cache"
	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/events"
	"expensetracker/internal/model"
	"expensetracker/internal/repository"
)

const expenseCacheTTL = 5 * time.Minute

// ExpenseOptions configures the spending-limit check.
type ExpenseOptions struct {
	MonthlyLimit   decimal.Decimal
	CurrencySymbol string
	// Now defaults to time.Now. The current month is taken from it.
	Now func() time.Time
}

// CreateResult reports the month's running total after an insert.
type CreateResult struct {
	Expense       *model.Expense
	MonthlyTotal  decimal.Decimal
	LimitExceeded bool
	Message       string
}

// MonthlySummary is the spending of one calendar month against the limit.
type MonthlySummary struct {
	Month         time.Month
	Year          int
	Total         decimal.Decimal
	Limit         decimal.Decimal
	LimitExceeded bool
}

// ExpenseService handles expense operations.
type ExpenseService interface {
	List(ctx context.Context) ([]model.Expense, error)
	Create(ctx context.Context, expense *model.Expense) (*CreateResult, error)
	Get(ctx context.Context, id uint) (*model.Expense, error)
	Update(ctx context.Context, id uint, changes model.Expense) (*model.Expense, error)
	Delete(ctx context.Context, id uint) error
	MonthlyTotal(ctx context.Context, month time.Month, year int) (*MonthlySummary, error)
	CurrentPeriod() (time.Month, int)
}

type expenseService struct {
	repo      repository.ExpenseRepository
	cache     *cache.Client
	publisher events.Publisher
	log       *zap.Logger
	opts      ExpenseOptions
}

// NewExpenseService creates a new expense service. cache may be nil.
func NewExpenseService(
	repo repository.ExpenseRepository,
	cache *cache.Client,
	publisher events.Publisher,
	log *zap.Logger,
	opts ExpenseOptions,
) ExpenseService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &expenseService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		log:       log,
		opts:      opts,
	}
}

func (s *expenseService) cacheKey(id uint) string {
	return fmt.Sprintf("expense:%d", id)
}

func (s *expenseService) CurrentPeriod() (time.Month, int) {
	now := s.opts.Now()
	return now.Month(), now.Year()
}

func (s *expenseService) List(ctx context.Context) ([]model.Expense, error) {
	expenses, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Create stores the expense, then checks this month's total against the limit.
// Exceeding the limit never fails the insert.
func (s *expenseService) Create(ctx context.Context, expense *model.Expense) (*CreateResult, error) {
	expense.ID = 0
	expense.Amount = expense.Amount.Round(model.AmountScale)
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	month, year := s.CurrentPeriod()
	total, err := s.repo.MonthlyTotal(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("monthly total: %w", err)
	}

	result := &CreateResult{
		Expense:       expense,
		MonthlyTotal:  total,
		LimitExceeded: total.GreaterThan(s.opts.MonthlyLimit),
	}
	amount := s.opts.CurrencySymbol + total.StringFixed(2)
	if result.LimitExceeded {
		result.Message = "⚠️ Warning: Monthly spending limit exceeded! Current total: " + amount
		s.alert(ctx, expense.ID, month, year, total)
	} else {
		result.Message = "Expense added successfully! Current total: " + amount
	}
	return result, nil
}

func (s *expenseService) alert(ctx context.Context, expenseID uint, month time.Month, year int, total decimal.Decimal) {
	s.log.Warn("monthly limit exceeded",
		zap.Uint("expense_id", expenseID),
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.String("total", total.String()),
		zap.String("limit", s.opts.MonthlyLimit.String()),
	)
	err := s.publisher.PublishLimitExceeded(ctx, events.LimitExceeded{
		ExpenseID:  expenseID,
		Month:      month,
		Year:       year,
		Total:      total,
		Limit:      s.opts.MonthlyLimit,
		OccurredAt: s.opts.Now(),
	})
	if err != nil {
		s.log.Warn("publish limit alert failed", zap.Uint("expense_id", expenseID), zap.Error(err))
	}
}

// Get returns the expense or apperrors.ErrExpenseNotFound.
func (s *expenseService) Get(ctx context.Context, id uint) (*model.Expense, error) {
	var cached model.Expense
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	expense, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, s.cacheKey(id), expense, expenseCacheTTL)
	return expense, nil
}

// Update replaces title, category, amount and date of an existing expense.
func (s *expenseService) Update(ctx context.Context, id uint, changes model.Expense) (*model.Expense, error) {
	expense, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	changes.Amount = changes.Amount.Round(model.AmountScale)
	expense.Apply(changes)
	if err := s.repo.Update(ctx, expense); err != nil {
		return nil, fmt.Errorf("update expense %d: %w", id, err)
	}
	s.cache.Delete(ctx, s.cacheKey(id))
	return expense, nil
}

// Delete removes the expense whether or not it exists.
func (s *expenseService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

func (s *expenseService) MonthlyTotal(ctx context.Context, month time.Month, year int) (*MonthlySummary, error) {
	if month < time.January || month > time.December {
		return nil, apperrors.ErrInvalidMonth
	}
	total, err := s.repo.MonthlyTotal(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("monthly total: %w", err)
	}
	return &MonthlySummary{
		Month:         month,
		Year:          year,
		Total:         total,
		Limit:         s.opts.MonthlyLimit,
		LimitExceeded: total.GreaterThan(s.opts.MonthlyLimit),
	}, nil
}

func (s *expenseService) find(ctx context.Context, id uint) (*model.Expense, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("find expense %d: %w", id, err)
	}
	return expense, nil
}
