package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"expensetracker/internal/db/dbtest"
	"expensetracker/internal/model"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(dbtest.Open(t))

	user := &model.User{Username: "alice", PasswordHash: "hash-1"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = repo.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = repo.Create(ctx, &model.User{Username: "alice", PasswordHash: "hash-2"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	kept, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", kept.PasswordHash)
}

func TestExpenseRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewExpenseRepository(dbtest.Open(t))

	expense := &model.Expense{
		Title:    "Groceries",
		Category: "Food",
		Amount:   decimal.RequireFromString("42.75"),
		Date:     model.NewDate(2025, time.October, 3),
	}
	require.NoError(t, repo.Create(ctx, expense))
	require.NotZero(t, expense.ID)

	found, err := repo.FindByID(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", found.Title)
	assert.Equal(t, "Food", found.Category)
	assert.True(t, found.Amount.Equal(expense.Amount), "amount %s", found.Amount)
	assert.Equal(t, "2025-10-03", found.Date.String())

	found.Apply(model.Expense{Title: "Rent", Category: "Housing", Amount: decimal.NewFromInt(900), Date: model.NewDate(2025, time.October, 1)})
	require.NoError(t, repo.Update(ctx, found))

	updated, err := repo.FindByID(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rent", updated.Title)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(900)))

	second := &model.Expense{Title: "Bus", Category: "Transport", Amount: decimal.NewFromInt(2), Date: model.NewDate(2025, time.October, 4)}
	require.NoError(t, repo.Create(ctx, second))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, expense.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	require.NoError(t, repo.Delete(ctx, expense.ID))
	require.NoError(t, repo.Delete(ctx, expense.ID))
	_, err = repo.FindByID(ctx, expense.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestExpenseRepository_ListEmpty(t *testing.T) {
	all, err := NewExpenseRepository(dbtest.Open(t)).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestExpenseRepository_MonthlyTotal(t *testing.T) {
	ctx := context.Background()
	repo := NewExpenseRepository(dbtest.Open(t))

	total, err := repo.MonthlyTotal(ctx, time.October, 2025)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	for _, e := range []model.Expense{
		{Title: "first day", Amount: decimal.NewFromInt(100), Date: model.NewDate(2025, time.October, 1)},
		{Title: "last day", Amount: decimal.NewFromInt(250), Date: model.NewDate(2025, time.October, 31)},
		{Title: "refund", Amount: decimal.NewFromInt(-50), Date: model.NewDate(2025, time.October, 15)},
		{Title: "previous month", Amount: decimal.NewFromInt(1000), Date: model.NewDate(2025, time.September, 30)},
		{Title: "next month", Amount: decimal.NewFromInt(1000), Date: model.NewDate(2025, time.November, 1)},
		{Title: "same month other year", Amount: decimal.NewFromInt(1000), Date: model.NewDate(2024, time.October, 10)},
	} {
		e := e
		require.NoError(t, repo.Create(ctx, &e))
	}

	total, err = repo.MonthlyTotal(ctx, time.October, 2025)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(300)), "total %s", total)

	total, err = repo.MonthlyTotal(ctx, time.December, 2025)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestExpenseRepository_MonthlyTotalExactCents(t *testing.T) {
	ctx := context.Background()
	repo := NewExpenseRepository(dbtest.Open(t))
	october := model.NewDate(2025, time.October, 1)

	for _, amount := range []string{"0.10", "0.20"} {
		require.NoError(t, repo.Create(ctx, &model.Expense{Title: "cents", Amount: decimal.RequireFromString(amount), Date: october}))
	}
	total, err := repo.MonthlyTotal(ctx, time.October, 2025)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("0.30")), "total %s", total)

	for i := 0; i < 7; i++ {
		require.NoError(t, repo.Create(ctx, &model.Expense{Title: "dime", Amount: decimal.RequireFromString("0.10"), Date: october}))
	}
	total, err = repo.MonthlyTotal(ctx, time.October, 2025)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(1)), "total %s", total)
}

func TestExpenseRepository_UndatedExpense(t *testing.T) {
	ctx := context.Background()
	gormDB := dbtest.Open(t)
	repo := NewExpenseRepository(gormDB)

	undated := model.Expense{Title: "no date", Amount: decimal.NewFromInt(5)}
	require.NoError(t, repo.Create(ctx, &undated))

	found, err := repo.FindByID(ctx, undated.ID)
	require.NoError(t, err)
	assert.True(t, found.Date.IsZero())

	var nullDates int64
	require.NoError(t, gormDB.Model(&model.Expense{}).Where("date IS NULL").Count(&nullDates).Error)
	assert.Equal(t, int64(1), nullDates)

	total, err := repo.MonthlyTotal(ctx, time.January, 1)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}
