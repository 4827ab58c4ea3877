// Command etfx explores Exchange Traded Funds: compare them, analyze how much
// their holdings overlap and sketch a portfolio out of them.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/etfx/cmd"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// a missing .env is fine, settings then come from flags and the environment.
	_ = godotenv.Load()

	completion().Complete("etfx")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()

	if name := flag.Arg(0); name != "" && !known(commander, name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

func known(commander *subcommands.Commander, name string) bool {
	found := false
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		if c.Name() == name {
			found = true
		}
	})
	return found
}

// completion describes the command line for shell completion.
func completion() *complete.Command {
	tools := predict.Set{"comparator", "intersection", "portfolio"}
	topics := predict.Set{"readme", "api", "comparator", "config", "overlap", "portfolio", "storage"}
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"api-url":   predict.Something,
			"state":     predict.Files("*"),
			"store":     predict.Set{"dir", "sqlite"},
			"cache":     predict.Dirs("*"),
			"log-level": predict.Set{"debug", "info", "warn", "error"},
		},
		Sub: map[string]*complete.Command{
			"search":    {Flags: map[string]complete.Predictor{"max": predict.Something}, Args: predict.Something},
			"add":       {Flags: map[string]complete.Predictor{"tool": tools}, Args: predict.Something},
			"remove":    {Flags: map[string]complete.Predictor{"tool": tools}, Args: predict.Something},
			"reset":     {Flags: map[string]complete.Predictor{"tool": tools}},
			"compare":   {Args: predict.Something},
			"intersect": {Flags: map[string]complete.Predictor{"json": predict.Nothing}, Args: predict.Something},
			"portfolio": {Sub: map[string]*complete.Command{
				"add":     {Flags: map[string]complete.Predictor{"dollars": predict.Something}, Args: predict.Something},
				"set":     {Args: predict.Something},
				"remove":  {Args: predict.Something},
				"show":    {},
				"analyze": {},
				"reset":   {},
			}},
			"serve":  {Flags: map[string]complete.Predictor{"addr": predict.Something}},
			"assist": {Args: predict.Something},
			"topic":  {Flags: map[string]complete.Predictor{"list": predict.Nothing}, Args: topics},
		},
	}
}
