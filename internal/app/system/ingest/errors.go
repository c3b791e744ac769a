// internal/app/system/ingest/errors.go
package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed marks a terminal failure of the roster API after all retries.
	ErrFetchFailed = errors.New("roster api fetch failed")

	// ErrNoSpreadsheet is returned when a workbook has no readable sheet.
	ErrNoSpreadsheet = errors.New("spreadsheet has no readable sheet")

	// ErrSourcesExhausted is returned when neither the API nor the
	// spreadsheets produced data for a cycle.
	ErrSourcesExhausted = errors.New("both roster api and spreadsheet sources failed")
)

// FetchError names the endpoint and the number of attempts made before the
// fetch gave up.
type FetchError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("roster api %s failed after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports ErrFetchFailed so callers can test with errors.Is.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// StatusError carries the status and a body snippet for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 300))
}
