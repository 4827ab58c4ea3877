package renderer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/etnz/etfx"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
)

// IntersectionMarkdown renders the intersection analysis of the selected ETFs.
func IntersectionMarkdown(etfs []etfx.SelectedETF, x etfx.Intersection) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("ETF Intersection")
	if len(etfs) < 2 {
		doc.PlainText("Add at least 2 ETFs to analyze their shared holdings.")
		return doc.String()
	}

	symbols := make([]string, 0, len(etfs))
	for _, etf := range etfs {
		symbols = append(symbols, etf.Symbol)
	}
	invested := etfx.BaseAllocation.Mul(decimal.NewFromInt(int64(len(etfs))))
	doc.PlainText(fmt.Sprintf("Selected ETFs (%d): %s, assuming $%s invested in each.",
		len(etfs), strings.Join(symbols, ", "), etfx.BaseAllocation))

	if len(x.Missing) > 0 {
		doc.PlainText(md.Italic(fmt.Sprintf("No data for %s, ignored in the analysis.", strings.Join(x.Missing, ", "))))
	}

	if len(x.Shared) == 0 {
		doc.PlainText("No shared holdings found among the selected ETFs.")
		return doc.String()
	}

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Shared Holdings"), md.Bold(fmt.Sprint(len(x.Shared)))},
		Rows: [][]string{
			{"Overlapping Value", Dollars(x.Total())},
			{"Total Invested", Dollars(invested)},
		},
	})

	doc.H2("Overlap by ETF Group")
	regions := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight},
		Header:    []string{"ETFs", "Holdings", "Weighted Value"},
	}
	for _, r := range x.Regions() {
		regions.Rows = append(regions.Rows, []string{r.Key, fmt.Sprint(len(r.Holdings)), Dollars(r.Total)})
	}
	doc.Table(regions)

	doc.H2("Shared Holdings")
	alignment := []md.TableAlignment{md.AlignLeft, md.AlignLeft}
	header := []string{"Company", "Shared By"}
	for _, s := range symbols {
		alignment = append(alignment, md.AlignRight)
		header = append(header, s+" Weight")
	}
	alignment = append(alignment, md.AlignRight)
	header = append(header, fmt.Sprintf("Weighted Value ($%s each)", etfx.BaseAllocation))

	table := md.TableSet{Alignment: alignment, Header: header}
	for _, sh := range x.Shared {
		row := []string{sh.Name, sh.Key}
		for _, s := range symbols {
			w, ok := sh.Weights[s]
			if !ok {
				row = append(row, NA)
				continue
			}
			row = append(row, Weight(w.Weight))
		}
		row = append(row, Dollars(sh.WeightedValue))
		table.Rows = append(table.Rows, row)
	}
	doc.Table(table)

	return doc.String()
}
