package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/etfx"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
)

// MergedHoldings is the number of merged holdings shown in a portfolio analysis.
const MergedHoldings = 20

// PortfolioMarkdown renders the allocations of the portfolio builder and, if
// not nil, the last comparison.
func PortfolioMarkdown(allocations []etfx.Allocation, summary *etfx.PortfolioSummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio Builder")
	if len(allocations) == 0 {
		doc.PlainText("The portfolio is empty. Add ETFs and set a dollar amount for each.")
		return doc.String()
	}

	total := decimal.Zero
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight},
		Header:    []string{"ETF", "Name", "Dollars"},
	}
	for _, a := range allocations {
		total = total.Add(a.Dollars)
		table.Rows = append(table.Rows, []string{md.Bold(a.Symbol), a.Name, Dollars(a.Dollars)})
	}
	table.Rows = append(table.Rows, []string{md.Bold("Total"), "", md.Bold(Dollars(total))})
	doc.Table(table)

	if summary == nil {
		return doc.String()
	}

	doc.H2("Portfolio Analysis")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Weighted Avg Expense Ratio"), md.Bold(ExpenseRatio(summary.WeightedExpenseRatio))},
	})

	if len(summary.Breakdown) > 0 {
		doc.H3("Allocation Breakdown")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"ETF", "Dollars", "Weight", "Expense Ratio"},
		}
		for _, item := range summary.Breakdown {
			weight := "0.00%"
			if item.WeightPercent != nil {
				weight = Weight(*item.WeightPercent)
			}
			table.Rows = append(table.Rows, []string{item.Symbol, Dollars(item.Dollars), weight, ExpenseRatio(item.ExpenseRatio)})
		}
		doc.Table(table)
	}

	if len(summary.MergedHoldings) > 0 {
		holdings := summary.MergedHoldings
		if len(holdings) > MergedHoldings {
			holdings = holdings[:MergedHoldings]
		}
		doc.H3(fmt.Sprintf("Top %d Merged Holdings", len(holdings)))
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
			Header:    []string{"Holding", "Weight"},
		}
		for _, h := range holdings {
			table.Rows = append(table.Rows, []string{h.Label(), mergedWeight(h)})
		}
		doc.Table(table)
	}
	return doc.String()
}

// mergedWeight prefers the weight in percentage points over the combined
// weight fraction.
func mergedWeight(h etfx.MergedHolding) string {
	switch {
	case h.Weight != nil:
		return Weight(*h.Weight)
	case h.CombinedWeight != nil:
		return Weight(h.CombinedWeight.Mul(hundred))
	}
	return NA
}
