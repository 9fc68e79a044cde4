package valuation

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUpstream wraps any failure reaching or understanding the valuation service.
var ErrUpstream = errors.New("valuation service unavailable")

// Photo is either inline bytes or a reference the gateway can fetch.
type Photo struct {
	Name        string
	ContentType string
	Data        []byte
	URL         string
}

type Request struct {
	ItemTitle   string
	Description string
	Photos      []Photo
}

type Result struct {
	Success        bool
	EstimatedValue decimal.Decimal
	LoanAmount     decimal.Decimal
	Confidence     float64
	Item           map[string]any
}

// Gateway is the external valuation collaborator. The implementation is picked at startup.
type Gateway interface {
	Name() string
	Evaluate(ctx context.Context, req Request) (*Result, error)
}
