package collateral

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusReleased  Status = "released"
	StatusDefaulted Status = "defaulted"
)

var (
	ErrNotFound          = errors.New("collateral not found")
	ErrInvalidTransition = errors.New("invalid collateral status transition")
	ErrNotApproved       = errors.New("collateral is not approved")
	ErrLoanLimitExceeded = errors.New("loan amount exceeds collateral loan limit")
	ErrOverpayment       = errors.New("payment exceeds outstanding principal")
	ErrOwnerMismatch     = errors.New("collateral belongs to another user")
	ErrInvalidStatus     = errors.New("invalid collateral status")
	ErrInvalidDetails    = errors.New("collateral name is required")
	ErrInvalidTerms      = errors.New("loan limit must be positive, interest non-negative and due date in the future")
	ErrInvalidImage      = errors.New("invalid collateral image")
)

// ValuationSnapshot records what the valuation gateway returned for the item.
type ValuationSnapshot struct {
	Provider       string          `json:"provider"`
	Success        bool            `json:"success"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	LoanAmount     decimal.Decimal `json:"loan_amount"`
	Confidence     float64         `json:"confidence"`
	Item           map[string]any  `json:"item,omitempty"`
	Decision       string          `json:"decision"`
	EvaluatedAt    time.Time       `json:"evaluated_at"`
}

// Review is a manual decision by staff.
type Review struct {
	ReviewerID string    `json:"reviewer_id,omitempty"`
	Note       string    `json:"note,omitempty"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// Metadata holds the known variants; Annotations is the open extension point.
type Metadata struct {
	Valuation   *ValuationSnapshot `json:"valuation,omitempty"`
	Review      *Review            `json:"review,omitempty"`
	Annotations map[string]string  `json:"annotations,omitempty"`
}

type Collateral struct {
	ID              string          `gorm:"primaryKey;size:32" json:"id"`
	UserID          string          `gorm:"size:32;index:idx_collaterals_user;not null" json:"user_id"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Status          Status          `gorm:"size:16;index:idx_collaterals_status_due;not null;default:'pending'" json:"status"`
	LoanAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"loan_amount"`
	LoanLimit       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"loan_limit"`
	AmountRepaid    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount_repaid"`
	Interest        decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0" json:"interest"`
	DueDate         *time.Time      `gorm:"index:idx_collaterals_status_due" json:"due_date,omitempty"`
	ImagePaths      []string        `gorm:"type:text;serializer:json" json:"image_paths"`
	Metadata        Metadata        `gorm:"type:text;serializer:json" json:"metadata"`
	RejectionReason string          `gorm:"size:255" json:"rejection_reason,omitempty"`
	StatusUpdatedAt time.Time       `json:"status_updated_at"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Collateral) TableName() string { return "collaterals" }

// Terms are the loan conditions set on approval.
type Terms struct {
	LoanLimit decimal.Decimal
	Interest  decimal.Decimal
	DueDate   time.Time
}

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusReleased, StatusDefaulted},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusReleased, StatusDefaulted:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusReleased || s == StatusDefaulted
}

func (c *Collateral) transition(to Status, now time.Time) error {
	if !CanTransition(c.Status, to) {
		return ErrInvalidTransition
	}
	c.Status = to
	c.StatusUpdatedAt = now
	return nil
}

func (c *Collateral) Approve(t Terms, now time.Time) error {
	if err := c.transition(StatusApproved, now); err != nil {
		return err
	}
	due := t.DueDate.UTC()
	c.LoanLimit = t.LoanLimit
	c.Interest = t.Interest
	c.DueDate = &due
	return nil
}

func (c *Collateral) Reject(reason string, now time.Time) error {
	if err := c.transition(StatusRejected, now); err != nil {
		return err
	}
	c.RejectionReason = reason
	return nil
}

// Outstanding is the disbursed principal not yet repaid.
func (c *Collateral) Outstanding() decimal.Decimal {
	return c.LoanAmount.Sub(c.AmountRepaid)
}

func (c *Collateral) requireApproved() error {
	if c.Status.Terminal() {
		return ErrInvalidTransition
	}
	if c.Status != StatusApproved {
		return ErrNotApproved
	}
	return nil
}

// RecordDisbursement adds principal drawn against this item, bounded by
// LoanLimit. No principal may be drawn once the due date has passed.
func (c *Collateral) RecordDisbursement(amount decimal.Decimal, now time.Time) error {
	if err := c.requireApproved(); err != nil {
		return err
	}
	if c.DueDate != nil && now.After(*c.DueDate) {
		return ErrInvalidTransition
	}
	if c.LoanAmount.Add(amount).GreaterThan(c.LoanLimit) {
		return ErrLoanLimitExceeded
	}
	c.LoanAmount = c.LoanAmount.Add(amount)
	return nil
}

// RecordPayment accumulates repayment and releases the item once the principal is covered.
func (c *Collateral) RecordPayment(amount decimal.Decimal, now time.Time) (released bool, err error) {
	if err := c.requireApproved(); err != nil {
		return false, err
	}
	if amount.GreaterThan(c.Outstanding()) {
		return false, ErrOverpayment
	}
	c.AmountRepaid = c.AmountRepaid.Add(amount)
	if c.LoanAmount.IsPositive() && c.AmountRepaid.GreaterThanOrEqual(c.LoanAmount) {
		if err := c.transition(StatusReleased, now); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ReverseDisbursement undoes principal drawn. Repaid principal cannot exceed what remains.
func (c *Collateral) ReverseDisbursement(amount decimal.Decimal) error {
	if err := c.requireApproved(); err != nil {
		return err
	}
	next := c.LoanAmount.Sub(amount)
	if next.LessThan(c.AmountRepaid) {
		return ErrInvalidTransition
	}
	c.LoanAmount = next
	return nil
}

func (c *Collateral) ReversePayment(amount decimal.Decimal) error {
	if err := c.requireApproved(); err != nil {
		return err
	}
	next := c.AmountRepaid.Sub(amount)
	if next.IsNegative() {
		return ErrInvalidTransition
	}
	c.AmountRepaid = next
	return nil
}

// Extend pushes the due date forward and returns the previous and new dates.
func (c *Collateral) Extend(days int) (prev, next time.Time, err error) {
	if err := c.requireApproved(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if c.DueDate == nil {
		return time.Time{}, time.Time{}, ErrInvalidTransition
	}
	prev = *c.DueDate
	next = prev.AddDate(0, 0, days)
	c.DueDate = &next
	return prev, next, nil
}

// Overdue reports an approved item past its due date with principal still owed.
func (c *Collateral) Overdue(now time.Time) bool {
	return c.Status == StatusApproved &&
		c.DueDate != nil &&
		now.After(*c.DueDate) &&
		c.Outstanding().IsPositive()
}

func (c *Collateral) MarkDefaulted(now time.Time) error {
	if !c.Overdue(now) {
		return ErrInvalidTransition
	}
	return c.transition(StatusDefaulted, now)
}

// UpdateDetails edits descriptive fields while the item awaits a decision.
func (c *Collateral) UpdateDetails(name, description *string, images []string) error {
	if c.Status != StatusPending {
		return ErrInvalidTransition
	}
	if name != nil {
		c.Name = *name
	}
	if description != nil {
		c.Description = *description
	}
	if images != nil {
		c.ImagePaths = images
	}
	return nil
}
