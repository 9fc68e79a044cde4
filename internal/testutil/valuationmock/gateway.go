package valuationmock

import (
	"context"
	"errors"

	"lendledger/internal/domain/valuation"
)

var _ valuation.Gateway = (*Gateway)(nil)

var errUnimplemented = errors.New("valuationmock: method not implemented")

// Gateway records every request it receives.
type Gateway struct {
	NameValue  string
	EvaluateFn func(ctx context.Context, req valuation.Request) (*valuation.Result, error)
	Requests   []valuation.Request
}

func (g *Gateway) Name() string {
	if g.NameValue == "" {
		return "stub"
	}
	return g.NameValue
}

func (g *Gateway) Evaluate(ctx context.Context, req valuation.Request) (*valuation.Result, error) {
	g.Requests = append(g.Requests, req)
	if g.EvaluateFn != nil {
		return g.EvaluateFn(ctx, req)
	}
	return nil, errUnimplemented
}
