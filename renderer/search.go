package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/etfx"
	md "github.com/nao1215/markdown"
)

// SearchMarkdown renders the results of an ETF search.
func SearchMarkdown(query string, results []etfx.ETFSummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Search results for %q", query))
	if len(results) == 0 {
		doc.PlainText("No ETF found.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft},
		Header:    []string{"Symbol", "Name"},
	}
	for _, r := range results {
		table.Rows = append(table.Rows, []string{md.Bold(r.Symbol), r.Name})
	}
	doc.Table(table)
	return doc.String()
}
