package domain

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

type FetchErrorKind int

const (
	FetchNetwork FetchErrorKind = iota
	FetchRateLimited
	FetchNotFound
	FetchHTTP
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchRateLimited:
		return "rate_limited"
	case FetchNotFound:
		return "not_found"
	case FetchHTTP:
		return "http"
	default:
		return "network"
	}
}

// FetchError is the typed failure of a page fetch.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int
	URL        string
	Err        error
}

// NewFetchError classifies a failed fetch by its status code. A zero status
// means the request never got a response.
func NewFetchError(url string, status int, err error) *FetchError {
	kind := FetchNetwork
	switch {
	case status == http.StatusTooManyRequests:
		kind = FetchRateLimited
	case status == http.StatusNotFound:
		kind = FetchNotFound
	case status != 0:
		kind = FetchHTTP
	}
	return &FetchError{Kind: kind, StatusCode: status, URL: url, Err: err}
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Error: %d - %s", e.StatusCode, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("Error: %s - %v", e.URL, e.Err)
	}
	return "Error: " + e.URL
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type PageOutcome int

const (
	OutcomeTitles PageOutcome = iota
	OutcomeTerminate
	OutcomeTransient
)

type Termination int

const (
	TerminationNone Termination = iota
	TerminationEndOfList
	TerminationDuplicateContent
	TerminationNotFound
)

func (t Termination) String() string {
	switch t {
	case TerminationEndOfList:
		return "end_of_list"
	case TerminationDuplicateContent:
		return "duplicate_content"
	case TerminationNotFound:
		return "not_found"
	default:
		return "none"
	}
}

// PageResult is what a single page produced.
type PageResult struct {
	Page        int
	Outcome     PageOutcome
	Titles      []string
	Termination Termination
	Err         *FetchError
}

func TitlePage(page int, titles []string) PageResult {
	return PageResult{Page: page, Outcome: OutcomeTitles, Titles: titles}
}

func TerminatePage(page int, t Termination) PageResult {
	return PageResult{Page: page, Outcome: OutcomeTerminate, Termination: t}
}

// TransientPage wraps err as a transient failure. Errors that are not
// already a *FetchError are treated as network failures.
func TransientPage(page int, err error) PageResult {
	var fe *FetchError
	if !errors.As(err, &fe) {
		fe = &FetchError{Kind: FetchNetwork, Err: err}
	}
	return PageResult{Page: page, Outcome: OutcomeTransient, Err: fe}
}

func (r PageResult) RateLimited() bool {
	return r.Outcome == OutcomeTransient && r.Err != nil && r.Err.Kind == FetchRateLimited
}

func (r PageResult) NotFound() bool {
	return r.Outcome == OutcomeTransient && r.Err != nil && r.Err.Kind == FetchNotFound
}
