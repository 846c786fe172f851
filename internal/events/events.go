package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LimitExceeded is emitted when an insert pushes the month's spending above the limit.
type LimitExceeded struct {
	ExpenseID  uint            `json:"expense_id"`
	Month      time.Month      `json:"month"`
	Year       int             `json:"year"`
	Total      decimal.Decimal `json:"total"`
	Limit      decimal.Decimal `json:"limit"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher delivers domain events to interested consumers.
type Publisher interface {
	PublishLimitExceeded(ctx context.Context, event LimitExceeded) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) PublishLimitExceeded(context.Context, LimitExceeded) error { return nil }
