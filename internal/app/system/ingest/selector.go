// internal/app/system/ingest/selector.go
package ingest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"go.uber.org/zap"
)

// RosterAPI is the retrying fetch primitive the selector consumes.
type RosterAPI interface {
	Fetch(ctx context.Context) (any, error)
	Endpoint() string
}

// SpreadsheetFiles locates the two workbooks used when the API is not.
type SpreadsheetFiles struct {
	Dir       string
	Roster    string
	Directory string
}

func (s SpreadsheetFiles) rosterPath() string    { return filepath.Join(s.Dir, s.Roster) }
func (s SpreadsheetFiles) directoryPath() string { return filepath.Join(s.Dir, s.Directory) }

// Batch is the output of one source selection.
//
// For the API source Raw holds the unwrapped records, still un-normalized.
// For the spreadsheet source Employees holds the merged records and Report
// the merge tally.
type Batch struct {
	Source    models.DataSource
	Raw       []Row
	Employees []models.Employee
	Report    *MergeReport
	// Fallback explains why the API was not used, when it was skipped.
	Fallback string
}

// Len is the number of records in the batch before de-duplication.
func (b Batch) Len() int {
	if b.Source == models.DataSourceAPI {
		return len(b.Raw)
	}
	return len(b.Employees)
}

// Selector decides per cycle whether data comes from the API or the
// spreadsheets.
type Selector struct {
	api   RosterAPI // nil when credentials are not configured
	files SpreadsheetFiles
	log   *zap.Logger

	// ReadSheet loads one workbook. Defaults to ReadFirstSheet.
	ReadSheet func(path string) ([]Row, error)
}

// NewSelector builds a Selector. Pass a nil api to always use spreadsheets.
func NewSelector(api RosterAPI, files SpreadsheetFiles, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{api: api, files: files, log: logger, ReadSheet: ReadFirstSheet}
}

// APIConfigured reports whether the API path will be attempted.
func (s *Selector) APIConfigured() bool { return s.api != nil }

// Select returns the data for one cycle. API problems fall back to the
// spreadsheets; a spreadsheet read failure ends the cycle with
// ErrSourcesExhausted.
func (s *Selector) Select(ctx context.Context) (Batch, error) {
	var fallback string
	var apiErr error

	if s.api == nil {
		fallback = "api credentials not configured"
		s.log.Info("roster api not configured, using spreadsheets")
	} else {
		payload, err := s.api.Fetch(ctx)
		switch {
		case err != nil:
			apiErr = err
			fallback = "api unavailable"
			s.log.Warn("roster api unavailable, falling back to spreadsheets", zap.Error(err))
		default:
			rows := Unwrap(payload)
			if len(rows) > 0 {
				s.log.Info("using roster api data",
					zap.String("endpoint", s.api.Endpoint()),
					zap.Int("records", len(rows)))
				return Batch{Source: models.DataSourceAPI, Raw: rows}, nil
			}
			fallback = "api returned empty or invalid data"
			s.log.Warn("roster api returned empty or invalid data, falling back to spreadsheets",
				zap.Int("records", len(rows)))
		}
	}

	roster, err := s.ReadSheet(s.files.rosterPath())
	if err != nil {
		return Batch{}, s.exhausted(apiErr, err)
	}
	directory, err := s.ReadSheet(s.files.directoryPath())
	if err != nil {
		return Batch{}, s.exhausted(apiErr, err)
	}

	merged, rep := Merge(roster, directory, s.log)
	return Batch{
		Source:    models.DataSourceExcel,
		Employees: merged,
		Report:    &rep,
		Fallback:  fallback,
	}, nil
}

func (s *Selector) exhausted(apiErr, sheetErr error) error {
	if apiErr != nil {
		return fmt.Errorf("%w: api: %v; spreadsheet: %w", ErrSourcesExhausted, apiErr, sheetErr)
	}
	return fmt.Errorf("%w: spreadsheet: %w", ErrSourcesExhausted, sheetErr)
}
