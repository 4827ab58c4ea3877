package etfx

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Apple Inc.", "APPLE"},
		{"APPLE INC", "APPLE"},
		{"  apple   inc  ", "APPLE"},
		{"Microsoft Corporation", "MICROSOFT"},
		{"Microsoft Corp.", "MICROSOFT"},
		{"Alphabet Inc Class A", "ALPHABET"},
		{"Alphabet Inc. Class C", "ALPHABET"},
		{"Berkshire Hathaway Inc Class B", "BERKSHIRE HATHAWAY"},
		{"Nestle SA", "NESTLE"},
		{"ASML Holding NV", "ASML HOLDING"},
		{"Taiwan Semiconductor Manufacturing Co Ltd", "TAIWAN SEMICONDUCTOR MANUFACTURING"},
		{"Procter & Gamble Co", "PROCTER GAMBLE"},
		{"Coca-Cola Co", "COCACOLA"},
		{"Costco Wholesale Corp", "COSTCO WHOLESALE"},
		{"SAP SE", "SAP SE"},
		{"Apple\u00a0Computer", "APPLE COMPUTER"},
		{"Apple\u2009Inc", "APPLE"},
		{"Inc.", ""},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.name); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestNormalizeName_SameCompany(t *testing.T) {
	if a, b := NormalizeName("Apple Inc."), NormalizeName("APPLE INC"); a != b {
		t.Errorf("NormalizeName(\"Apple Inc.\") = %q, NormalizeName(\"APPLE INC\") = %q, want equal", a, b)
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	inputs := []string{
		"Apple Inc.",
		"FOO CO BAR",
		"IN.C",
		"Co.Inc.",
		"A.G. Barr plc",
		"Class A Class B",
		"Société Générale SA",
		"\tLVMH\nMoet   Hennessy ",
		"S&P Global Inc",
		"C.O.",
		"__init__",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		if twice := NormalizeName(once); twice != once {
			t.Errorf("NormalizeName(NormalizeName(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestIsCatchAll(t *testing.T) {
	tests := []struct {
		h    RawHolding
		want bool
	}{
		{Holding("OTHERS", "Whatever", 1), true},
		{Holding(" others ", "", 1), true},
		{Holding("Other", "", 1), true},
		{Holding("", "Other Holdings", 1), true},
		{Holding("", "All others", 1), true},
		{Holding("XYZ", "Others", 1), true},
		{Holding("OTH", "Other Industries Corp", 1), false},
		{Holding("AAPL", "Apple Inc.", 1), false},
	}
	for _, tt := range tests {
		if got := IsCatchAll(tt.h); got != tt.want {
			t.Errorf("IsCatchAll(%s) = %v, want %v", tt.h.Label(), got, tt.want)
		}
	}
}

func TestNormalizeHoldings(t *testing.T) {
	empty := ""
	raw := []RawHolding{
		Holding(" aapl ", "Apple Inc.", 7),
		Holding("", "Taiwan Semiconductor Manufacturing Co Ltd", 5),
		Holding("OTHERS", "Others", 10),
		{Ticker: nil, Name: &empty, Weight: decimal.NewFromInt(1)},
		{Ticker: nil, Name: nil, Weight: decimal.NewFromInt(1)},
		{Ticker: &empty, Name: nil},
		Holding("", "  Inc. ", 1),
		Holding("MSFT", "", 6),
	}

	got := NormalizeHoldings(raw)
	want := []struct {
		id     string
		ticker string // empty for nil
		name   string
		weight int64
	}{
		{"AAPL", "AAPL", "Apple Inc.", 7},
		{"TAIWAN SEMICONDUCTOR MANUFACTURING", "", "Taiwan Semiconductor Manufacturing Co Ltd", 5},
		{"MSFT", "MSFT", "", 6},
	}
	if len(got) != len(want) {
		t.Fatalf("len(NormalizeHoldings()) = %d, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		g := got[i]
		if g.Identifier != w.id {
			t.Errorf("[%d].Identifier = %q, want %q", i, g.Identifier, w.id)
		}
		switch {
		case w.ticker == "" && g.Ticker != nil:
			t.Errorf("[%d].Ticker = %q, want nil", i, *g.Ticker)
		case w.ticker != "" && (g.Ticker == nil || *g.Ticker != w.ticker):
			t.Errorf("[%d].Ticker = %v, want %q", i, g.Ticker, w.ticker)
		}
		if g.Name != w.name {
			t.Errorf("[%d].Name = %q, want %q", i, g.Name, w.name)
		}
		if !g.Weight.Equal(decimal.NewFromInt(w.weight)) {
			t.Errorf("[%d].Weight = %v, want %d", i, g.Weight, w.weight)
		}
	}
}

func TestNormalizeHoldings_Nil(t *testing.T) {
	if got := NormalizeHoldings(nil); len(got) != 0 {
		t.Errorf("NormalizeHoldings(nil) = %v, want empty", got)
	}
}
