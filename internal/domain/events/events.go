package events

import "context"

const (
	TypeTransactionPosted       = "transaction.posted"
	TypeTransactionFailed       = "transaction.failed"
	TypeCollateralStatusChanged = "collateral.status_changed"
)

// Event is published after the owning database transaction commits.
type Event struct {
	Type    string
	Key     string // partition key, usually the account or collateral id
	Payload any
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type CollateralStatusChanged struct {
	CollateralID string `json:"collateral_id"`
	UserID       string `json:"user_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	Reason       string `json:"reason,omitempty"`
}
