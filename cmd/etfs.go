package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/etfx"
	"github.com/etnz/etfx/client"
	"github.com/etnz/etfx/renderer"
	"github.com/google/subcommands"
)

type searchCmd struct {
	max int
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search ETFs by ticker or name" }
func (*searchCmd) Usage() string {
	return `etfx search [-max <n>] <query>

Search the ETF service by ticker or by part of the fund's name.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.max, "max", client.DefaultMaxResults, "maximum number of results")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.TrimSpace(strings.Join(f.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "Error: a query is required.")
		return subcommands.ExitUsageError
	}
	svc := newClient(newLogger())
	results, err := svc.Search(ctx, query, c.max)
	if err != nil {
		fmt.Fprintln(os.Stderr, etfx.UserMessage(err))
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.SearchMarkdown(query, results))
	return subcommands.ExitSuccess
}

// toolFlag is the -tool flag shared by the commands editing a tool.
type toolFlag struct {
	name string
}

func (t *toolFlag) SetFlags(f *flag.FlagSet, def string) {
	f.StringVar(&t.name, "tool", def, "the tool: comparator, intersection or portfolio")
}

func (t *toolFlag) Tool() (etfx.Tool, error) { return etfx.ParseTool(t.name) }

type addCmd struct {
	toolFlag
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add ETFs to a tool" }
func (*addCmd) Usage() string {
	return `etfx add [-tool <tool>] <symbol>...

Add ETFs to the comparator (default), the intersection analyzer or the
portfolio builder. The detail of each ETF is fetched once, when added.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) { c.toolFlag.SetFlags(f, "comparator") }

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required.")
		return subcommands.ExitUsageError
	}
	tool, err := c.Tool()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return withApp(func(a *app) subcommands.ExitStatus {
		status := subcommands.ExitSuccess
		for _, symbol := range f.Args() {
			etf := resolve(ctx, a, symbol)
			if err := add(ctx, a, tool, etf); err != nil {
				a.log.Debug().Err(err).Str("symbol", etf.Symbol).Msg("add failed")
				fmt.Fprintln(os.Stderr, etfx.AddMessage(etf.Symbol))
				status = subcommands.ExitFailure
				continue
			}
			fmt.Printf("Added %s to %s\n", etf.Symbol, c.name)
		}
		return status
	})
}

func add(ctx context.Context, a *app, tool etfx.Tool, etf etfx.ETFSummary) error {
	if tool == etfx.Portfolio {
		return a.ws.Builder.Add(etf)
	}
	sel, err := a.ws.Selection(tool)
	if err != nil {
		return err
	}
	return sel.Add(ctx, etf, a.svc)
}

// resolve returns the summary of symbol with the name found by a search, the
// name is left empty if the search fails.
func resolve(ctx context.Context, a *app, symbol string) etfx.ETFSummary {
	etf := etfx.NewSummary(symbol, "")
	results, err := a.svc.Search(ctx, etf.Symbol, client.DefaultMaxResults)
	if err != nil {
		a.log.Debug().Err(err).Str("symbol", etf.Symbol).Msg("cannot resolve ETF name")
		return etf
	}
	for _, r := range results {
		if r.Symbol == etf.Symbol {
			return r
		}
	}
	return etf
}

type removeCmd struct {
	toolFlag
}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove ETFs from a tool" }
func (*removeCmd) Usage() string {
	return `etfx remove [-tool <tool>] <symbol>...

Remove ETFs from the comparator (default), the intersection analyzer or the
portfolio builder.
`
}

func (c *removeCmd) SetFlags(f *flag.FlagSet) { c.toolFlag.SetFlags(f, "comparator") }

func (c *removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required.")
		return subcommands.ExitUsageError
	}
	tool, err := c.Tool()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return withApp(func(a *app) subcommands.ExitStatus {
		for _, symbol := range f.Args() {
			if err := remove(a, tool, symbol); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing %s: %v\n", symbol, err)
				return subcommands.ExitFailure
			}
		}
		return subcommands.ExitSuccess
	})
}

func remove(a *app, tool etfx.Tool, symbol string) error {
	if tool == etfx.Portfolio {
		return a.ws.Builder.Remove(symbol)
	}
	sel, err := a.ws.Selection(tool)
	if err != nil {
		return err
	}
	return sel.Remove(symbol)
}

type resetCmd struct {
	toolFlag
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "empty a tool and remove its saved state" }
func (*resetCmd) Usage() string {
	return `etfx reset -tool <tool>

Remove every ETF of a tool, and its saved state.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) { c.toolFlag.SetFlags(f, "") }

func (c *resetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tool, err := c.Tool()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return withApp(func(a *app) subcommands.ExitStatus {
		if tool == etfx.Portfolio {
			err = a.ws.Builder.Reset()
		} else {
			var sel *etfx.Selection
			if sel, err = a.ws.Selection(tool); err == nil {
				err = sel.Reset()
			}
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("%s reset\n", c.name)
		return subcommands.ExitSuccess
	})
}
