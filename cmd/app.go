// Package cmd implements the etfx command line.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/etnz/etfx"
	"github.com/etnz/etfx/client"
	"github.com/etnz/etfx/renderer"
	"github.com/etnz/etfx/store"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&searchCmd{}, "etfs")
	c.Register(&addCmd{}, "etfs")
	c.Register(&removeCmd{}, "etfs")
	c.Register(&resetCmd{}, "etfs")

	c.Register(&compareCmd{}, "tools")
	c.Register(&intersectCmd{}, "tools")
	c.Register(&portfolioCmd{}, "tools")

	c.Register(&serveCmd{}, "")
	c.Register(&assistCmd{}, "")
	c.Register(&topicCmd{}, "")
}

// Environment variables read for the settings not given on the command line.
const (
	EnvAPIURL   = "ETFX_API_URL"
	EnvState    = "ETFX_STATE"
	EnvStore    = "ETFX_STORE"
	EnvCache    = "ETFX_CACHE"
	EnvLogLevel = "ETFX_LOG_LEVEL"
	EnvAddr     = "ETFX_ADDR"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	apiURL    = flag.String("api-url", "", "base URL of the ETF service (default $"+EnvAPIURL+" or the public service)")
	statePath = flag.String("state", "", "state folder, or database file with -store sqlite (default $"+EnvState+" or .etfx)")
	storeKind = flag.String("store", "", "state store, dir or sqlite (default $"+EnvStore+" or dir)")
	cacheDir  = flag.String("cache", "", "folder caching the service responses for the day (default $"+EnvCache+")")
	logLevel  = flag.String("log-level", "", "log level, debug, info, warn or error (default $"+EnvLogLevel+" or warn)")
)

// termWidth is the word wrap of markdown printed in the terminal.
const termWidth = 100

// setting returns value, or the env variable if value is empty, or def.
func setting(value, env, def string) string {
	if value != "" {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// Settings returns the resolved global settings, as env variables.
func Settings() map[string]string {
	kind := setting(*storeKind, EnvStore, "dir")
	return map[string]string{
		EnvAPIURL:   setting(*apiURL, EnvAPIURL, client.DefaultBaseURL),
		EnvState:    setting(*statePath, EnvState, defaultState(kind)),
		EnvStore:    kind,
		EnvCache:    setting(*cacheDir, EnvCache, ""),
		EnvLogLevel: setting(*logLevel, EnvLogLevel, "warn"),
	}
}

func defaultState(kind string) string {
	if kind == "sqlite" {
		return ".etfx.db"
	}
	return ".etfx"
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(Settings()[EnvLogLevel])
	if err != nil {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

// openStore opens the state store chosen by the global flags.
func openStore() (s etfx.Store, closer func() error, err error) {
	settings := Settings()
	path := settings[EnvState]
	switch settings[EnvStore] {
	case "dir":
		return store.NewDir(path), func() error { return nil }, nil
	case "sqlite":
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, err
			}
		}
		db, err := store.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q, expected dir or sqlite", settings[EnvStore])
}

func newClient(log zerolog.Logger) *client.Client {
	settings := Settings()
	var opts []client.Option
	if dir := settings[EnvCache]; dir != "" {
		opts = append(opts, client.WithDiskCache(dir))
	}
	return client.New(settings[EnvAPIURL], log, opts...)
}

// app is what most commands need: the restored tools and the ETF service.
type app struct {
	log   zerolog.Logger
	ws    *etfx.Workspace
	svc   *client.Client
	close func() error
}

func openApp() (*app, error) {
	log := newLogger()
	s, closer, err := openStore()
	if err != nil {
		return nil, fmt.Errorf("cannot open state: %w", err)
	}
	ws, err := etfx.OpenWorkspace(s, log)
	if err != nil {
		closer()
		return nil, fmt.Errorf("cannot restore state: %w", err)
	}
	return &app{log: log, ws: ws, svc: newClient(log), close: closer}, nil
}

func (a *app) Close() error {
	a.ws.Close()
	return a.close()
}

// withApp runs f with a new app, errors are printed to stderr.
func withApp(f func(a *app) subcommands.ExitStatus) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "Error closing state:", err)
		}
	}()
	return f(a)
}

func printMarkdown(markdown string) {
	fmt.Print(renderer.Terminal(markdown, termWidth))
}
