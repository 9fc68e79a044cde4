package valuation

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"lendledger/internal/domain/valuation"
)

type catalogEntry struct {
	keyword    string
	category   string
	value      int64
	loan       int64
	confidence float64
}

// Keywords are matched in order against the lowercased title, then the description.
var catalog = []catalogEntry{
	{"teddy bear", "toy", 10, 0, 0.92},
	{"plush", "toy", 15, 0, 0.85},
	{"rolex", "watch", 6500, 4550, 0.81},
	{"watch", "watch", 1200, 840, 0.74},
	{"ring", "jewelry", 1500, 1050, 0.7},
	{"necklace", "jewelry", 900, 630, 0.68},
	{"laptop", "electronics", 900, 630, 0.83},
	{"camera", "electronics", 700, 490, 0.8},
	{"phone", "electronics", 500, 350, 0.8},
	{"guitar", "instrument", 600, 420, 0.76},
	{"bicycle", "sports", 400, 280, 0.72},
}

// MockGateway is a deterministic stand-in for the valuation service.
type MockGateway struct{}

func NewMockGateway() *MockGateway { return &MockGateway{} }

func (*MockGateway) Name() string { return "mock" }

func (*MockGateway) Evaluate(ctx context.Context, req valuation.Request) (*valuation.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e := lookup(req.ItemTitle)
	if e == nil {
		e = lookup(req.Description)
	}
	if e == nil {
		e = &catalogEntry{category: "general", value: 100, loan: 70, confidence: 0.5}
	}
	return &valuation.Result{
		Success:        true,
		EstimatedValue: decimal.NewFromInt(e.value),
		LoanAmount:     decimal.NewFromInt(e.loan),
		Confidence:     e.confidence,
		Item: map[string]any{
			"name":     req.ItemTitle,
			"category": e.category,
			"photos":   len(req.Photos),
		},
	}, nil
}

func lookup(text string) *catalogEntry {
	text = strings.ToLower(text)
	if text == "" {
		return nil
	}
	for i := range catalog {
		if strings.Contains(text, catalog[i].keyword) {
			return &catalog[i]
		}
	}
	return nil
}
