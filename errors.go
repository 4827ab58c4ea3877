package etfx

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrBusy is returned when an ETF is being added to the same selection.
	ErrBusy = errors.New("an ETF is already being added")
	// ErrNoAllocation is returned when comparing a portfolio without any positive allocation.
	ErrNoAllocation = errors.New("please add at least one ETF with a dollar amount greater than 0")
	// ErrNotFound is returned by a Store for an absent key.
	ErrNotFound = errors.New("not found")
)

// NetworkError is a request that could not reach the ETF service.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServiceError is a non-2xx response from the ETF service.
type ServiceError struct {
	Op            string
	StatusCode    int
	Detail        string
	Message       string
	FailedSymbols []string
}

func (e *ServiceError) Error() string {
	msg := e.Text()
	if msg == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, msg)
}

// Text returns the most specific message sent by the service.
func (e *ServiceError) Text() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

// DataShapeError is a response that misses expected fields.
type DataShapeError struct {
	Op     string
	Reason string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("%s: unexpected response: %s", e.Op, e.Reason)
}

// UserMessage returns a readable message for any error returned by the ETF
// service client.
func UserMessage(err error) string {
	var (
		nerr *NetworkError
		serr *ServiceError
		derr *DataShapeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &serr):
		if msg := serr.Text(); msg != "" {
			return msg
		}
		return fmt.Sprintf("The ETF service answered with status %d. Please try again.", serr.StatusCode)
	case errors.As(err, &nerr):
		return "The ETF service could not be reached. Please check your connection and try again."
	case errors.As(err, &derr):
		return "The ETF service returned unexpected data. Please try again."
	}
	return err.Error()
}

// AddMessage returns the message shown when adding symbol failed.
func AddMessage(symbol string) string {
	return fmt.Sprintf("Failed to fetch data for %s. Please try again.", symbol)
}

var symbolsInMessage = regexp.MustCompile(`(?i)symbols?:?\s*([A-Z]+(?:,\s*[A-Z]+)*)`)

// CompareMessage returns the message shown when a portfolio comparison of
// allocations failed, naming the offending symbols when possible.
func CompareMessage(err error, allocations []Allocation) string {
	var (
		failed  []string
		message string
	)
	var serr *ServiceError
	if errors.As(err, &serr) {
		failed = serr.FailedSymbols
		message = serr.Text()
		if message == "" {
			message = fmt.Sprintf("Request failed with status code %d", serr.StatusCode)
		}
	} else if err != nil {
		message = err.Error()
	}

	if len(failed) == 0 && message != "" {
		if m := symbolsInMessage.FindStringSubmatch(message); m != nil {
			for _, s := range strings.Split(m[1], ",") {
				failed = append(failed, strings.TrimSpace(s))
			}
		}
	}

	switch {
	case len(failed) > 0:
		return fmt.Sprintf("Failed to fetch data for %s. Please check the symbols and try again.", strings.Join(failed, ", "))
	case strings.Contains(message, "Could not fetch data"):
		symbols := make([]string, 0, len(allocations))
		for _, a := range allocations {
			symbols = append(symbols, a.Symbol)
		}
		return fmt.Sprintf("Failed to fetch data for %s. Please verify the ETF symbols are correct and try again.", strings.Join(symbols, ", "))
	case strings.Contains(message, "404") || strings.Contains(message, "not found"):
		return "One or more ETFs could not be found. Please verify all ETF symbols are correct and try again."
	case message != "":
		return "Failed to compare portfolio: " + message
	}
	return "Failed to compare portfolio. Please verify all ETF symbols are correct and try again."
}

// CompareError is returned by Builder.Compare when the service failed.
type CompareError struct {
	Message string
	Err     error
}

func (e *CompareError) Error() string { return e.Message }
func (e *CompareError) Unwrap() error { return e.Err }
