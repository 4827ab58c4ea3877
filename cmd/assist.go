package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/etfx/agent"
	"github.com/etnz/etfx/renderer"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }
func (*assistCmd) Usage() string {
	return `etfx assist [<question>]

Start an interactive session with the AI assistant. It can search ETFs,
compare them, analyze their overlap and read your selections.
Requires GEMINI_API_KEY.
`
}

func (*assistCmd) SetFlags(_ *flag.FlagSet) {}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	initialPrompt := strings.Join(f.Args(), " ")

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	return withApp(func(a *app) subcommands.ExitStatus {
		researcher := agent.NewResearcher(a.log)
		analyst := agent.NewAnalyst(a.ws, a.svc, a.log)
		assistant := agent.New(os.Stdout, os.Stdin, researcher, analyst)
		assistant.Render = func(markdown string) string { return renderer.Terminal(markdown, termWidth) }

		if err := assistant.Run(ctx, client, initialPrompt); err != nil {
			fmt.Fprintln(os.Stderr, "Agent failed:", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}
