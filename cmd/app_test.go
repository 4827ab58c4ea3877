package cmd

import (
	"context"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/etnz/etfx"
	"github.com/etnz/etfx/store"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// useFlags sets the global flags for the duration of the test.
func useFlags(t *testing.T, api, state, kind string) {
	t.Helper()
	old := []string{*apiURL, *statePath, *storeKind, *cacheDir, *logLevel}
	*apiURL, *statePath, *storeKind, *cacheDir, *logLevel = api, state, kind, "", "error"
	t.Cleanup(func() {
		*apiURL, *statePath, *storeKind, *cacheDir, *logLevel = old[0], old[1], old[2], old[3], old[4]
	})
}

// fakeService serves SPY and QQQ.
func fakeService(t *testing.T) string {
	t.Helper()
	details := map[string]string{
		"/v1/etf/SPY": `{"symbol":"SPY","name":"SPDR S&P 500","top_holdings":[{"ticker":"AAPL","name":"Apple Inc.","weight":7}]}`,
		"/v1/etf/QQQ": `{"symbol":"QQQ","name":"Invesco QQQ","top_holdings":[{"ticker":"AAPL","name":"Apple Inc","weight":9}]}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/etf/search" {
			w.Write([]byte(`{"results":[{"symbol":"SPY","name":"SPDR S&P 500 ETF Trust"}]}`))
			return
		}
		body, ok := details[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"ETF not found"}`))
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func execute(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	if err := f.Parse(args); err != nil {
		t.Fatal(err)
	}
	return c.Execute(context.Background(), f)
}

func TestSetting(t *testing.T) {
	t.Setenv("ETFX_TEST", "env")
	tests := []struct {
		value, env, want string
	}{
		{"flag", "ETFX_TEST", "flag"},
		{"", "ETFX_TEST", "env"},
		{"", "ETFX_UNSET_TEST", "default"},
	}
	for _, tt := range tests {
		if got := setting(tt.value, tt.env, "default"); got != tt.want {
			t.Errorf("setting(%q, %q) = %q, want %q", tt.value, tt.env, got, tt.want)
		}
	}
}

func TestSettings_Defaults(t *testing.T) {
	useFlags(t, "", "", "")
	for _, env := range []string{EnvAPIURL, EnvState, EnvStore, EnvCache, EnvLogLevel} {
		t.Setenv(env, "")
	}
	*logLevel = ""
	s := Settings()
	if s[EnvState] != ".etfx" || s[EnvStore] != "dir" || s[EnvLogLevel] != "warn" || s[EnvCache] != "" {
		t.Errorf("Settings() = %v", s)
	}

	t.Setenv(EnvStore, "sqlite")
	if got := Settings()[EnvState]; got != ".etfx.db" {
		t.Errorf("sqlite state = %q, want .etfx.db", got)
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"dir", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			useFlags(t, "", filepath.Join(dir, kind, "state"), kind)
			s, closer, err := openStore()
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Set("k", []byte(`{}`)); err != nil {
				t.Fatal(err)
			}
			if err := closer(); err != nil {
				t.Fatal(err)
			}
		})
	}

	useFlags(t, "", dir, "bolt")
	if _, _, err := openStore(); err == nil {
		t.Error("openStore(bolt) succeeded, want an error")
	}
}

func TestAdd_Intersection(t *testing.T) {
	state := t.TempDir()
	useFlags(t, fakeService(t), state, "dir")

	if got := execute(t, &addCmd{}, "-tool", "intersection", "spy", "QQQ", "XXX"); got != subcommands.ExitFailure {
		t.Errorf("add with an unknown ETF = %v, want ExitFailure", got)
	}

	sel, err := etfx.OpenSelection(store.NewDir(state), etfx.Analyzer, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	etfs := sel.ETFs()
	if len(etfs) != 2 || etfs[0].Symbol != "SPY" || etfs[1].Symbol != "QQQ" {
		t.Fatalf("saved selection = %v, want SPY, QQQ", etfs)
	}
	if etfs[0].Name != "SPDR S&P 500 ETF Trust" {
		t.Errorf("SPY name = %q, want the name found by search", etfs[0].Name)
	}
	if x := sel.Intersect(); len(x.Shared) != 1 {
		t.Errorf("restored selection shares %d holdings, want 1", len(x.Shared))
	}

	if got := execute(t, &removeCmd{}, "-tool", "intersection", "SPY"); got != subcommands.ExitSuccess {
		t.Errorf("remove = %v", got)
	}
	if got := execute(t, &resetCmd{}); got != subcommands.ExitUsageError {
		t.Errorf("reset without -tool = %v, want ExitUsageError", got)
	}
	if got := execute(t, &resetCmd{}, "-tool", "intersection"); got != subcommands.ExitSuccess {
		t.Errorf("reset = %v", got)
	}
	if _, err := os.Stat(filepath.Join(state, string(etfx.Analyzer)+".json")); !os.IsNotExist(err) {
		t.Errorf("reset left the state file: %v", err)
	}
}

func TestPortfolio(t *testing.T) {
	state := t.TempDir()
	useFlags(t, fakeService(t), state, "sqlite")
	*statePath = filepath.Join(state, "etfx.db")

	if got := execute(t, &allocAddCmd{}, "-dollars", "$1000", "SPY"); got != subcommands.ExitSuccess {
		t.Fatalf("portfolio add = %v", got)
	}
	if got := execute(t, &allocSetCmd{}, "QQQ", "10"); got != subcommands.ExitFailure {
		t.Errorf("portfolio set of an unknown ETF = %v, want ExitFailure", got)
	}

	db, err := store.OpenSQLite(*statePath)
	if err != nil {
		t.Fatal(err)
	}
	b, err := etfx.OpenBuilder(db, zerolog.Nop())
	db.Close()
	if err != nil {
		t.Fatal(err)
	}
	if total := b.Total().String(); total != "1000" {
		t.Errorf("saved total = %s, want 1000", total)
	}
}

func TestRunExtension(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script extension")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "env.txt")
	script := "#!/bin/sh\nenv > \"$1\"\nexit 3\n"
	if err := os.WriteFile(filepath.Join(dir, "etfx-hello"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	useFlags(t, "http://example.test", "/tmp/state", "sqlite")

	found, code := RunExtension("hello", []string{out})
	if !found || code != 3 {
		t.Fatalf("RunExtension(hello) = %v, %d, want true, 3", found, code)
	}
	env, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{EnvAPIURL + "=http://example.test", EnvState + "=/tmp/state", EnvStore + "=sqlite"} {
		if !strings.Contains(string(env), want) {
			t.Errorf("extension environment does not contain %q", want)
		}
	}

	if found, _ := RunExtension("nope", nil); found {
		t.Error("RunExtension(nope) found an extension")
	}
}
