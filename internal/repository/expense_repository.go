package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"expensetracker/internal/model"
)

// ExpenseRepository defines expense persistence operations.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	Update(ctx context.Context, expense *model.Expense) error
	FindByID(ctx context.Context, id uint) (*model.Expense, error)
	List(ctx context.Context) ([]model.Expense, error)
	Delete(ctx context.Context, id uint) error
	MonthlyTotal(ctx context.Context, month time.Month, year int) (decimal.Decimal, error)
}

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository.
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

// Create inserts a new expense and assigns its ID.
func (r *expenseRepository) Create(ctx context.Context, expense *model.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

// Update saves every column of an existing expense.
func (r *expenseRepository) Update(ctx context.Context, expense *model.Expense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}

// FindByID finds an expense by ID.
func (r *expenseRepository) FindByID(ctx context.Context, id uint) (*model.Expense, error) {
	var expense model.Expense
	if err := r.db.WithContext(ctx).First(&expense, id).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

// List returns all expenses in primary-key order.
func (r *expenseRepository) List(ctx context.Context) ([]model.Expense, error) {
	expenses := make([]model.Expense, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

// Delete removes the expense if present. Missing rows are not an error.
func (r *expenseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Expense{}, id).Error
}

// MonthlyTotal sums amount over expenses dated within the given month. It is zero when nothing matches.
// SQLite keeps decimal columns as REAL, so the sum is rounded back to the column scale.
func (r *expenseRepository) MonthlyTotal(ctx context.Context, month time.Month, year int) (decimal.Decimal, error) {
	start, end := model.MonthRange(month, year)

	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&model.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("date >= ? AND date < ?", start, end).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total.Round(model.AmountScale), nil
}
