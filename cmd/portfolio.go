package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/etfx"
	"github.com/etnz/etfx/renderer"
	"github.com/google/subcommands"
)

// portfolioCmd is the top-level command for the portfolio builder.
type portfolioCmd struct{}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "build a portfolio of ETFs and analyze it" }
func (*portfolioCmd) Usage() string {
	return `etfx portfolio <subcommand> <options>

Build a portfolio by allocating dollar amounts to ETFs, then have the ETF
service analyze it.
`
}
func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {}

func (c *portfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, "portfolio")
	commander.Register(&allocAddCmd{}, "")
	commander.Register(&allocSetCmd{}, "")
	commander.Register(&allocRemoveCmd{}, "")
	commander.Register(&portfolioShowCmd{}, "")
	commander.Register(&portfolioAnalyzeCmd{}, "")
	commander.Register(&portfolioResetCmd{}, "")
	return commander.Execute(ctx, args...)
}

type allocAddCmd struct {
	dollars string
}

func (*allocAddCmd) Name() string     { return "add" }
func (*allocAddCmd) Synopsis() string { return "add ETFs to the portfolio" }
func (*allocAddCmd) Usage() string {
	return `etfx portfolio add [-dollars <amount>] <symbol>...

Add ETFs to the portfolio, with no money allocated unless -dollars is given.
`
}
func (c *allocAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dollars, "dollars", "", "amount allocated to each ETF added")
}

func (c *allocAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one symbol is required.")
		return subcommands.ExitUsageError
	}
	return withApp(func(a *app) subcommands.ExitStatus {
		for _, symbol := range f.Args() {
			etf := resolve(ctx, a, symbol)
			if err := a.ws.Builder.Add(etf); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
			if c.dollars == "" {
				continue
			}
			if err := a.ws.Builder.SetDollars(etf.Symbol, c.dollars); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
		}
		printMarkdown(renderer.PortfolioMarkdown(a.ws.Builder.Allocations(), nil))
		return subcommands.ExitSuccess
	})
}

type allocSetCmd struct{}

func (*allocSetCmd) Name() string     { return "set" }
func (*allocSetCmd) Synopsis() string { return "set the dollars allocated to an ETF" }
func (*allocSetCmd) Usage() string {
	return `etfx portfolio set <symbol> <dollars>

Set the dollar amount allocated to an ETF of the portfolio. An amount that is
not a number counts as zero.
`
}
func (c *allocSetCmd) SetFlags(f *flag.FlagSet) {}

func (c *allocSetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: expecting a symbol and an amount.")
		return subcommands.ExitUsageError
	}
	return withApp(func(a *app) subcommands.ExitStatus {
		if err := a.ws.Builder.SetDollars(f.Arg(0), f.Arg(1)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.PortfolioMarkdown(a.ws.Builder.Allocations(), nil))
		return subcommands.ExitSuccess
	})
}

type allocRemoveCmd struct{}

func (*allocRemoveCmd) Name() string     { return "remove" }
func (*allocRemoveCmd) Synopsis() string { return "remove ETFs from the portfolio" }
func (*allocRemoveCmd) Usage() string {
	return `etfx portfolio remove <symbol>...
`
}
func (c *allocRemoveCmd) SetFlags(f *flag.FlagSet) {}

func (c *allocRemoveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app) subcommands.ExitStatus {
		for _, symbol := range f.Args() {
			if err := a.ws.Builder.Remove(symbol); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
		}
		printMarkdown(renderer.PortfolioMarkdown(a.ws.Builder.Allocations(), nil))
		return subcommands.ExitSuccess
	})
}

type portfolioShowCmd struct{}

func (*portfolioShowCmd) Name() string     { return "show" }
func (*portfolioShowCmd) Synopsis() string { return "show the allocations and the last analysis" }
func (*portfolioShowCmd) Usage() string {
	return `etfx portfolio show
`
}
func (c *portfolioShowCmd) SetFlags(f *flag.FlagSet) {}

func (c *portfolioShowCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app) subcommands.ExitStatus {
		printMarkdown(renderer.PortfolioMarkdown(a.ws.Builder.Allocations(), a.ws.Builder.Summary()))
		return subcommands.ExitSuccess
	})
}

type portfolioAnalyzeCmd struct{}

func (*portfolioAnalyzeCmd) Name() string     { return "analyze" }
func (*portfolioAnalyzeCmd) Synopsis() string { return "have the ETF service analyze the portfolio" }
func (*portfolioAnalyzeCmd) Usage() string {
	return `etfx portfolio analyze

Send the allocations with a positive amount to the ETF service, and show its
analysis: weighted expense ratio, allocation breakdown and merged holdings.
`
}
func (c *portfolioAnalyzeCmd) SetFlags(f *flag.FlagSet) {}

func (c *portfolioAnalyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app) subcommands.ExitStatus {
		summary, err := a.ws.Builder.Compare(ctx, a.svc)
		var cerr *etfx.CompareError
		switch {
		case errors.Is(err, etfx.ErrNoAllocation):
			fmt.Fprintln(os.Stderr, "Error: allocate a positive amount to at least one ETF first.")
			return subcommands.ExitFailure
		case errors.As(err, &cerr):
			fmt.Fprintln(os.Stderr, cerr.Message)
			return subcommands.ExitFailure
		case err != nil:
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.PortfolioMarkdown(a.ws.Builder.Allocations(), summary))
		return subcommands.ExitSuccess
	})
}

type portfolioResetCmd struct{}

func (*portfolioResetCmd) Name() string     { return "reset" }
func (*portfolioResetCmd) Synopsis() string { return "remove every allocation" }
func (*portfolioResetCmd) Usage() string {
	return `etfx portfolio reset
`
}
func (c *portfolioResetCmd) SetFlags(f *flag.FlagSet) {}

func (c *portfolioResetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app) subcommands.ExitStatus {
		if err := a.ws.Builder.Reset(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Println("portfolio reset")
		return subcommands.ExitSuccess
	})
}
