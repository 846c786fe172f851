package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places stored for an amount.
const AmountScale = 2

// Expense is a single spending record. Amount is not constrained in sign.
// A zero Date is stored as NULL.
type Expense struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	Title     string          `json:"title" gorm:"size:255;not null"`
	Category  string          `json:"category" gorm:"size:100;not null;index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Date      Date            `json:"date" gorm:"type:date;index"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Apply overwrites the editable fields with those of src. ID is kept.
func (e *Expense) Apply(src Expense) {
	e.Title = src.Title
	e.Category = src.Category
	e.Amount = src.Amount
	e.Date = src.Date
}
