package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/glamour"
	md "github.com/nao1215/markdown"

	ucAccount "lendledger/internal/usecase/account"
	ucCollateral "lendledger/internal/usecase/collateral"
	ucTransaction "lendledger/internal/usecase/transaction"
)

func printMarkdown(doc string) {
	writeMarkdown(os.Stdout, os.Stderr, doc, func(doc string) (string, error) {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return "", fmt.Errorf("creating markdown renderer: %w", err)
		}
		return r.Render(doc)
	})
}

// writeMarkdown prints the rendered document, or the raw markdown when
// rendering fails.
func writeMarkdown(out, errOut io.Writer, doc string, render func(string) (string, error)) {
	rendered, err := render(doc)
	if err != nil {
		fmt.Fprintf(errOut, "Error rendering markdown: %v\n", err)
		fmt.Fprint(out, doc)
		return
	}
	fmt.Fprint(out, rendered)
}

func balanceMarkdown(b *ucAccount.BalanceDTO) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Account %s", b.AccountNumber))
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"Balance", "Amount", "Display"},
		Rows: [][]string{
			{"loan", b.LoanBalance, b.LoanDisplay},
			{"investment", b.InvestmentBalance, b.InvestmentDisplay},
		},
	})
	return doc.String()
}

func summaryMarkdown(s *ucTransaction.SummaryDTO) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Ledger summary for %s", s.UserID))
	doc.H2(fmt.Sprintf("Entries (%d)", s.TotalCount))
	if len(s.Buckets) > 0 {
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight},
			Header:    []string{"Type", "Status", "Count", "Total"},
			Rows:      [][]string{},
		}
		for _, b := range s.Buckets {
			table.Rows = append(table.Rows, []string{b.Type, b.Status, fmt.Sprint(b.Count), b.Total})
		}
		doc.Table(table)
	}

	if len(s.Net) > 0 {
		types := make([]string, 0, len(s.Net))
		for t := range s.Net {
			types = append(types, t)
		}
		sort.Strings(types)

		doc.H2("Net")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
			Header:    []string{"Type", "Net"},
			Rows:      [][]string{},
		}
		for _, t := range types {
			table.Rows = append(table.Rows, []string{t, s.NetDisplay[t]})
		}
		doc.Table(table)
	}
	return doc.String()
}

func sweepMarkdown(r *ucCollateral.SweepResult) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Overdue sweep")
	doc.BulletList(
		fmt.Sprintf("scanned: %d", r.Scanned),
		fmt.Sprintf("defaulted: %d", len(r.Defaulted)),
		fmt.Sprintf("skipped: %d", r.Skipped),
		fmt.Sprintf("errors: %d", r.Errors),
	)
	if len(r.Defaulted) > 0 {
		doc.H2("Defaulted")
		ids := make([]string, 0, len(r.Defaulted))
		for _, id := range r.Defaulted {
			ids = append(ids, md.Code(id))
		}
		doc.BulletList(ids...)
	}
	return doc.String()
}
