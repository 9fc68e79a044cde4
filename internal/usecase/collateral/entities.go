package collateral

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lendledger/internal/domain/collateral"
	"lendledger/internal/usecase/paging"
)

type SubmitInput struct {
	UserID      string
	Name        string
	Description string
	// Images are stored references, http(s) URLs or data: URIs.
	Images      []string
	Uploads     []collateral.Image
	Annotations map[string]string
}

type ApproveInput struct {
	CollateralID string
	ReviewerID   string
	LoanLimit    decimal.Decimal
	Interest     decimal.Decimal
	DueDate      time.Time
	Note         string
}

type RejectInput struct {
	CollateralID string
	ReviewerID   string
	Reason       string
}

type UpdateInput struct {
	CollateralID string
	Name         *string
	Description  *string
	Images       []string
}

type ListInput struct {
	UserID string
	Status collateral.Status
	Page   paging.Request
}

type CollateralDTO struct {
	ID              string              `json:"id"`
	UserID          string              `json:"user_id"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Status          string              `json:"status"`
	LoanAmount      string              `json:"loan_amount"`
	LoanLimit       string              `json:"loan_limit"`
	AmountRepaid    string              `json:"amount_repaid"`
	Outstanding     string              `json:"outstanding"`
	Interest        string              `json:"interest"`
	DueDate         *time.Time          `json:"due_date,omitempty"`
	ImagePaths      []string            `json:"image_paths"`
	Metadata        collateral.Metadata `json:"metadata"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
	StatusUpdatedAt time.Time           `json:"status_updated_at"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toDTO(c *collateral.Collateral) CollateralDTO {
	images := c.ImagePaths
	if images == nil {
		images = []string{}
	}
	return CollateralDTO{
		ID:              c.ID,
		UserID:          c.UserID,
		Name:            c.Name,
		Description:     c.Description,
		Status:          string(c.Status),
		LoanAmount:      c.LoanAmount.StringFixed(2),
		LoanLimit:       c.LoanLimit.StringFixed(2),
		AmountRepaid:    c.AmountRepaid.StringFixed(2),
		Outstanding:     c.Outstanding().StringFixed(2),
		Interest:        c.Interest.StringFixed(4),
		DueDate:         c.DueDate,
		ImagePaths:      images,
		Metadata:        c.Metadata,
		RejectionReason: c.RejectionReason,
		StatusUpdatedAt: c.StatusUpdatedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

type QuoteInput struct {
	UserID      string
	Name        string
	Description string
	Images      []string
}

// QuoteDTO is a valuation plus the policy decision for an item that was
// never stored.
type QuoteDTO struct {
	UserID         string         `json:"user_id"`
	Name           string         `json:"name"`
	Provider       string         `json:"provider"`
	Success        bool           `json:"success"`
	EstimatedValue string         `json:"estimated_value"`
	LoanAmount     string         `json:"loan_amount"`
	Confidence     float64        `json:"confidence"`
	Item           map[string]any `json:"item,omitempty"`
	Accepted       bool           `json:"accepted"`
	Reason         string         `json:"reason,omitempty"`
	LoanLimit      string         `json:"loan_limit,omitempty"`
	Interest       string         `json:"interest,omitempty"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
}

// SweepResult reports one pass of the due-date sweep.
type SweepResult struct {
	Scanned   int      `json:"scanned"`
	Defaulted []string `json:"defaulted"`
	Skipped   int      `json:"skipped"`
	Errors    int      `json:"errors"`
}

// PendingError is returned when the item was stored but the valuation
// service could not be reached; the item stays pending.
type PendingError struct {
	CollateralID string
	Err          error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("collateral %s left pending: %v", e.CollateralID, e.Err)
}

func (e *PendingError) Unwrap() error { return e.Err }
