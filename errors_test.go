package etfx

import (
	"errors"
	"fmt"
	"testing"
)

func TestCompareMessage(t *testing.T) {
	allocations := []Allocation{{Symbol: "SPY"}, {Symbol: "QQQ"}}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "failed symbols",
			err:  &ServiceError{StatusCode: 400, Detail: "bad", FailedSymbols: []string{"XYZ", "ABC"}},
			want: "Failed to fetch data for XYZ, ABC. Please check the symbols and try again.",
		},
		{
			name: "symbols in message",
			err:  &ServiceError{StatusCode: 400, Detail: "Invalid symbols: XYZ, ABC"},
			want: "Failed to fetch data for XYZ, ABC. Please check the symbols and try again.",
		},
		{
			name: "could not fetch",
			err:  &ServiceError{StatusCode: 502, Message: "Could not fetch data from upstream"},
			want: "Failed to fetch data for SPY, QQQ. Please verify the ETF symbols are correct and try again.",
		},
		{
			name: "status 404",
			err:  &ServiceError{StatusCode: 404},
			want: "One or more ETFs could not be found. Please verify all ETF symbols are correct and try again.",
		},
		{
			name: "not found",
			err:  &ServiceError{StatusCode: 400, Detail: "ETF not found"},
			want: "One or more ETFs could not be found. Please verify all ETF symbols are correct and try again.",
		},
		{
			name: "other message",
			err:  &ServiceError{StatusCode: 500, Detail: "Internal error"},
			want: "Failed to compare portfolio: Internal error",
		},
		{
			name: "wrapped",
			err:  fmt.Errorf("compare: %w", &ServiceError{StatusCode: 500, Detail: "Internal error"}),
			want: "Failed to compare portfolio: Internal error",
		},
		{
			name: "no message",
			err:  errors.New(""),
			want: "Failed to compare portfolio. Please verify all ETF symbols are correct and try again.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareMessage(tt.err, allocations); got != tt.want {
				t.Errorf("CompareMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ServiceError{StatusCode: 404, Detail: "ETF XYZ not found"}, "ETF XYZ not found"},
		{&ServiceError{StatusCode: 503}, "The ETF service answered with status 503. Please try again."},
		{&NetworkError{Op: "search", Err: errors.New("connection refused")}, "The ETF service could not be reached. Please check your connection and try again."},
		{&DataShapeError{Op: "detail SPY", Reason: "no symbol"}, "The ETF service returned unexpected data. Please try again."},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestAddMessage(t *testing.T) {
	want := "Failed to fetch data for SPY. Please try again."
	if got := AddMessage("SPY"); got != want {
		t.Errorf("AddMessage(SPY) = %q, want %q", got, want)
	}
}
