package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/etfx"
	md "github.com/nao1215/markdown"
)

// Number of rows shown in each section of an ETF card.
const (
	TopHoldings     = 10
	TopSectors      = 5
	RecentDividends = 4
)

// ComparisonMarkdown renders the ETF comparator: an overview table, then one
// section per ETF.
func ComparisonMarkdown(etfs []etfx.SelectedETF) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("ETF Comparison")
	if len(etfs) == 0 {
		doc.PlainText("No ETF selected. Search for ETFs and add them to compare.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"ETF", "Name", "Expense Ratio", "Most Recent Dividend"},
	}
	for _, etf := range etfs {
		var er = ExpenseRatio(nil)
		dividend := NA
		if etf.Detail != nil {
			er = ExpenseRatio(etf.Detail.ExpenseRatio)
			if amount, ok := etf.Detail.MostRecentDividend(); ok {
				dividend = DividendAmount(amount)
			}
		}
		table.Rows = append(table.Rows, []string{md.Bold(etf.Symbol), etf.Name, er, dividend})
	}
	doc.Table(table)

	for _, etf := range etfs {
		renderCard(doc, etf)
	}
	return doc.String()
}

// renderCard renders the detailed section of one ETF.
func renderCard(doc *md.Markdown, etf etfx.SelectedETF) {
	doc.H2(fmt.Sprintf("%s - %s", etf.Symbol, etf.Name))
	d := etf.Detail
	if d == nil {
		doc.PlainText("No data available.")
		return
	}

	if holdings := d.Top(TopHoldings); len(holdings) > 0 {
		doc.H3(fmt.Sprintf("Top %d Holdings", TopHoldings))
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
			Header:    []string{"Holding", "Weight"},
		}
		for _, h := range holdings {
			w := NA
			if !h.Weight.IsZero() {
				w = Weight(h.Weight)
			}
			table.Rows = append(table.Rows, []string{h.Label(), w})
		}
		doc.Table(table)
	}

	if sectors := d.TopSectors(TopSectors); len(sectors) > 0 {
		doc.H3("Sector Allocation")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
			Header:    []string{"Sector", "Weight"},
		}
		for _, s := range sectors {
			table.Rows = append(table.Rows, []string{s.Name, Fraction(s.Weight)})
		}
		doc.Table(table)
	}

	if dividends := d.RecentDividends(RecentDividends); len(dividends) > 0 {
		doc.H3("Recent Dividends")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
			Header:    []string{"Date", "Amount"},
		}
		for _, div := range dividends {
			table.Rows = append(table.Rows, []string{Date(div.Date), DividendAmount(div.Amount)})
		}
		doc.Table(table)
	}
}
