package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/etfx"
	"github.com/etnz/etfx/renderer"
	"github.com/google/subcommands"
)

// selectAll adds symbols to sel, reporting on stderr those that cannot be added.
func selectAll(ctx context.Context, a *app, sel *etfx.Selection, symbols []string) {
	for _, symbol := range symbols {
		etf := resolve(ctx, a, symbol)
		if err := sel.Add(ctx, etf, a.svc); err != nil {
			a.log.Debug().Err(err).Str("symbol", etf.Symbol).Msg("add failed")
			fmt.Fprintln(os.Stderr, etfx.AddMessage(etf.Symbol))
		}
	}
}

type compareCmd struct{}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "compare the ETFs of the comparator" }
func (*compareCmd) Usage() string {
	return `etfx compare [<symbol>...]

Show the expense ratio, top holdings, top sectors and recent dividends of the
ETFs in the comparator. Symbols given are added to the comparator first.
`
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {}

func (c *compareCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app) subcommands.ExitStatus {
		selectAll(ctx, a, a.ws.Comparator, f.Args())
		printMarkdown(renderer.ComparisonMarkdown(a.ws.Comparator.ETFs()))
		return subcommands.ExitSuccess
	})
}

type intersectCmd struct {
	json bool
}

func (*intersectCmd) Name() string { return "intersect" }
func (*intersectCmd) Synopsis() string {
	return "show the holdings shared by the ETFs of the intersection analyzer"
}
func (*intersectCmd) Usage() string {
	return `etfx intersect [-json] [<symbol>...]

Show the holdings shared by the ETFs of the intersection analyzer, assuming
$100 invested in each. Symbols given are added to the analyzer first.
`
}

func (c *intersectCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the analysis as JSON")
}

func (c *intersectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app) subcommands.ExitStatus {
		sel := a.ws.Analyzer
		selectAll(ctx, a, sel, f.Args())
		x := sel.Intersect()
		if c.json {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(x); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
			return subcommands.ExitSuccess
		}
		printMarkdown(renderer.IntersectionMarkdown(sel.ETFs(), x))
		return subcommands.ExitSuccess
	})
}
