package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/etfx/server"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the tools as a JSON HTTP API" }
func (*serveCmd) Usage() string {
	return `etfx serve [-addr <address>]

Serve the comparator, the intersection analyzer and the portfolio builder as a
JSON HTTP API, until interrupted. See 'etfx topic api'.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address (default $"+EnvAddr+" or :8080)")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(func(a *app) subcommands.ExitStatus {
		srv := server.New(server.Config{
			Addr:      setting(c.addr, EnvAddr, ":8080"),
			Log:       a.log,
			Workspace: a.ws,
			Service:   a.svc,
		})

		errs := make(chan error, 1)
		go func() { errs <- srv.Start() }()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err := <-errs:
			if err != nil {
				fmt.Fprintln(os.Stderr, "Server failed:", err)
				return subcommands.ExitFailure
			}
			return subcommands.ExitSuccess
		case <-quit:
		case <-ctx.Done():
		}

		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintln(os.Stderr, "Server forced to shutdown:", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}
