package valuation

import (
	"context"
	"fmt"

	"lendledger/internal/config"
	"lendledger/internal/domain/valuation"
)

// New builds the gateway named by valuation.provider.
func New(ctx context.Context, cfg config.ValuationConfig) (valuation.Gateway, error) {
	switch cfg.Provider {
	case "mock", "":
		return NewMockGateway(), nil
	case "http":
		p := cfg.HTTP.Paths
		return NewHTTPGateway(cfg.HTTP.URL, cfg.HTTP.Timeout, Paths{
			Success:        p.Success,
			EstimatedValue: p.EstimatedValue,
			LoanAmount:     p.LoanAmount,
			Confidence:     p.Confidence,
			Item:           p.Item,
		}), nil
	case "gemini":
		return NewGeminiGateway(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	}
	return nil, fmt.Errorf("unknown valuation provider %q", cfg.Provider)
}
