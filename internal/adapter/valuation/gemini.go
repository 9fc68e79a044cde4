package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"lendledger/internal/domain/valuation"
)

const geminiPrompt = `You are an appraiser for a pawn-style lending platform.
Estimate the resale value in USD of the item shown in the photos and the loan amount you
would advance against it. Return loanAmount 0 for items that should not back a loan.
Item title: %s
Description: %s`

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGateway asks a Gemini model for a structured valuation.
type GeminiGateway struct {
	models contentGenerator
	model  string
}

func NewGeminiGateway(ctx context.Context, apiKey, model string) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGateway{models: client.Models, model: model}, nil
}

func (*GeminiGateway) Name() string { return "gemini" }

var valuationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"success":        {Type: genai.TypeBoolean},
		"estimatedValue": {Type: genai.TypeNumber},
		"loanAmount":     {Type: genai.TypeNumber},
		"confidence":     {Type: genai.TypeNumber, Description: "0 to 1"},
		"item": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name":      {Type: genai.TypeString},
				"category":  {Type: genai.TypeString},
				"condition": {Type: genai.TypeString},
				"brand":     {Type: genai.TypeString},
			},
		},
	},
	Required: []string{"success", "estimatedValue", "loanAmount", "confidence"},
}

type geminiAnswer struct {
	Success        bool           `json:"success"`
	EstimatedValue float64        `json:"estimatedValue"`
	LoanAmount     float64        `json:"loanAmount"`
	Confidence     float64        `json:"confidence"`
	Item           map[string]any `json:"item"`
}

func (g *GeminiGateway) Evaluate(ctx context.Context, req valuation.Request) (*valuation.Result, error) {
	parts := []*genai.Part{{Text: fmt.Sprintf(geminiPrompt, req.ItemTitle, req.Description)}}
	var refs []string
	for _, p := range req.Photos {
		if len(p.Data) > 0 {
			ct := p.ContentType
			if ct == "" {
				ct = "image/jpeg"
			}
			parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: ct, Data: p.Data}})
			continue
		}
		if p.URL != "" {
			refs = append(refs, p.URL)
		}
	}
	if len(refs) > 0 {
		parts = append(parts, &genai.Part{Text: "Photo references: " + strings.Join(refs, ", ")})
	}

	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   valuationSchema,
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", valuation.ErrUpstream, err)
	}
	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty model response", valuation.ErrUpstream)
	}
	var ans geminiAnswer
	if err := json.Unmarshal([]byte(text), &ans); err != nil {
		return nil, fmt.Errorf("%w: decode model response: %v", valuation.ErrUpstream, err)
	}
	return &valuation.Result{
		Success:        ans.Success,
		EstimatedValue: decimal.NewFromFloat(ans.EstimatedValue).Round(2),
		LoanAmount:     decimal.NewFromFloat(ans.LoanAmount).Round(2),
		Confidence:     ans.Confidence,
		Item:           ans.Item,
	}, nil
}
