package valuation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"lendledger/internal/domain/valuation"
)

// Paths locate the result fields in the service's JSON response.
type Paths struct {
	Success        string
	EstimatedValue string
	LoanAmount     string
	Confidence     string
	Item           string
}

func DefaultPaths() Paths {
	return Paths{
		Success:        "$.success",
		EstimatedValue: "$.estimatedValue",
		LoanAmount:     "$.loanAmount",
		Confidence:     "$.confidence",
		Item:           "$.item",
	}
}

// HTTPGateway posts item photos as multipart/form-data to a remote valuation service.
type HTTPGateway struct {
	url    string
	client *http.Client
	paths  Paths
}

func NewHTTPGateway(url string, timeout time.Duration, paths Paths) *HTTPGateway {
	return &HTTPGateway{url: url, client: &http.Client{Timeout: timeout}, paths: paths}
}

func (*HTTPGateway) Name() string { return "http" }

func (g *HTTPGateway) Evaluate(ctx context.Context, req valuation.Request) (*valuation.Result, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", valuation.ErrUpstream, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", valuation.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", valuation.ErrUpstream, resp.StatusCode)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", valuation.ErrUpstream, err)
	}
	return g.parse(doc)
}

func encodeForm(req valuation.Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("itemTitle", req.ItemTitle)
	_ = w.WriteField("description", req.Description)
	for i, p := range req.Photos {
		if p.URL != "" && len(p.Data) == 0 {
			_ = w.WriteField("photoUrls", p.URL)
			continue
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("photo_%d.jpg", i)
		}
		ct := p.ContentType
		if ct == "" {
			ct = "image/jpeg"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photos"; filename=%q`, name))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(p.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (g *HTTPGateway) parse(doc any) (*valuation.Result, error) {
	success, err := get(g.paths.Success, doc)
	if err != nil {
		return nil, err
	}
	ok, _ := success.(bool)
	out := &valuation.Result{Success: ok, EstimatedValue: decimal.Zero, LoanAmount: decimal.Zero}

	if v, err := get(g.paths.EstimatedValue, doc); err == nil {
		if out.EstimatedValue, err = toDecimal(v); err != nil {
			return nil, err
		}
	}
	if v, err := get(g.paths.LoanAmount, doc); err == nil {
		if out.LoanAmount, err = toDecimal(v); err != nil {
			return nil, err
		}
	}
	if v, err := get(g.paths.Confidence, doc); err == nil {
		if f, ok := v.(float64); ok {
			out.Confidence = f
		}
	}
	if v, err := get(g.paths.Item, doc); err == nil {
		if m, ok := v.(map[string]any); ok {
			out.Item = m
		}
	}
	return out, nil
}

func get(path string, doc any) (any, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", valuation.ErrUpstream, path, err)
	}
	// jsonpath may return a one-element list for filter expressions
	if list, ok := v.([]any); ok && len(list) > 0 {
		v = list[0]
	}
	return v, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		d, err := decimal.NewFromString(x)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: bad amount %q", valuation.ErrUpstream, x)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("%w: unexpected amount type %T", valuation.ErrUpstream, v)
}
