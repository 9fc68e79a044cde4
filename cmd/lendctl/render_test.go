package main

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	ucAccount "lendledger/internal/usecase/account"
	ucCollateral "lendledger/internal/usecase/collateral"
	ucTransaction "lendledger/internal/usecase/transaction"
)

// parsed is the structure of a rendered report: headings in order, table
// header rows (lower-cased) and body rows as plain cell text.
type parsed struct {
	headings []string
	headers  [][]string
	rows     [][]string
	items    []string
}

func parse(t *testing.T, md string) parsed {
	t.Helper()
	src := []byte(md)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(src))

	var out parsed
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			out.headings = append(out.headings, plain(n, src))
			return ast.WalkSkipChildren, nil
		case ast.KindListItem:
			out.items = append(out.items, plain(n, src))
			return ast.WalkSkipChildren, nil
		case extast.KindTableHeader:
			var row []string
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				row = append(row, strings.ToLower(plain(c, src)))
			}
			out.headers = append(out.headers, row)
			return ast.WalkSkipChildren, nil
		case extast.KindTableRow:
			var row []string
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				row = append(row, plain(c, src))
			}
			out.rows = append(out.rows, row)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return out
}

func plain(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if tx, ok := c.(*ast.Text); ok && entering {
			sb.Write(tx.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func TestSummaryMarkdown(t *testing.T) {
	got := parse(t, summaryMarkdown(&ucTransaction.SummaryDTO{
		UserID: "u1",
		Buckets: []ucTransaction.SummaryBucket{
			{Type: "DEPOSIT", Status: "completed", Count: 2, Total: "1750.00"},
			{Type: "LOAN", Status: "failed", Count: 1, Total: "800.00"},
		},
		TotalCount: 3,
		Net:        map[string]string{"LOAN": "0.00", "DEPOSIT": "1750.00"},
		NetDisplay: map[string]string{"LOAN": "$0.00", "DEPOSIT": "$1,750.00"},
	}))

	if want := []string{"Ledger summary for u1", "Entries (3)", "Net"}; !reflect.DeepEqual(got.headings, want) {
		t.Errorf("headings = %v, want %v", got.headings, want)
	}
	if want := [][]string{{"type", "status", "count", "total"}, {"type", "net"}}; !reflect.DeepEqual(got.headers, want) {
		t.Errorf("headers = %v, want %v", got.headers, want)
	}
	want := [][]string{
		{"DEPOSIT", "completed", "2", "1750.00"},
		{"LOAN", "failed", "1", "800.00"},
		{"DEPOSIT", "$1,750.00"},
		{"LOAN", "$0.00"},
	}
	if !reflect.DeepEqual(got.rows, want) {
		t.Errorf("rows = %v\nwant %v", got.rows, want)
	}
}

func TestSummaryMarkdown_Empty(t *testing.T) {
	got := parse(t, summaryMarkdown(&ucTransaction.SummaryDTO{UserID: "u1"}))
	if len(got.rows) != 0 || len(got.headers) != 0 {
		t.Errorf("empty summary should have no tables, got %v %v", got.headers, got.rows)
	}
	if want := []string{"Ledger summary for u1", "Entries (0)"}; !reflect.DeepEqual(got.headings, want) {
		t.Errorf("headings = %v, want %v", got.headings, want)
	}
}

func TestBalanceMarkdown(t *testing.T) {
	got := parse(t, balanceMarkdown(&ucAccount.BalanceDTO{
		AccountNumber:     "ACC-1",
		LoanBalance:       "450.00",
		InvestmentBalance: "1750.00",
		LoanDisplay:       "$450.00",
		InvestmentDisplay: "$1,750.00",
	}))
	if want := [][]string{{"balance", "amount", "display"}}; !reflect.DeepEqual(got.headers, want) {
		t.Errorf("headers = %v, want %v", got.headers, want)
	}
	want := [][]string{
		{"loan", "450.00", "$450.00"},
		{"investment", "1750.00", "$1,750.00"},
	}
	if !reflect.DeepEqual(got.rows, want) {
		t.Errorf("rows = %v\nwant %v", got.rows, want)
	}
	if len(got.headings) != 1 || got.headings[0] != "Account ACC-1" {
		t.Errorf("headings = %v", got.headings)
	}
}

func TestSweepMarkdown(t *testing.T) {
	got := parse(t, sweepMarkdown(&ucCollateral.SweepResult{Scanned: 3, Defaulted: []string{"c1"}, Skipped: 1, Errors: 1}))
	want := []string{"scanned: 3", "defaulted: 1", "skipped: 1", "errors: 1", "c1"}
	if !reflect.DeepEqual(got.items, want) {
		t.Errorf("items = %v, want %v", got.items, want)
	}

	got = parse(t, sweepMarkdown(&ucCollateral.SweepResult{}))
	if len(got.headings) != 1 {
		t.Errorf("no defaulted section expected, headings = %v", got.headings)
	}
}

func TestWriteMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		render  func(string) (string, error)
		wantOut string
		wantErr string
	}{
		{
			name:    "rendered",
			render:  func(s string) (string, error) { return "styled:" + s, nil },
			wantOut: "styled:# Title\n",
		},
		{
			name:    "falls back to raw markdown",
			render:  func(string) (string, error) { return "", errors.New("no terminal style") },
			wantOut: "# Title\n",
			wantErr: "Error rendering markdown: no terminal style\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			writeMarkdown(&out, &errOut, "# Title\n", tt.render)
			if out.String() != tt.wantOut {
				t.Errorf("out = %q, want %q", out.String(), tt.wantOut)
			}
			if errOut.String() != tt.wantErr {
				t.Errorf("stderr = %q, want %q", errOut.String(), tt.wantErr)
			}
		})
	}
}
