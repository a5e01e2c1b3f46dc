// Package export writes a loaded dashboard to Google Sheets, or to CSV
// files when no spreadsheet is configured or the spreadsheet write fails.
package export

import (
	"context"
	"errors"
	"fmt"

	"alkansya/internal/core"
	"alkansya/internal/dashboard"
	"alkansya/internal/log"
	ports "alkansya/internal/sheets"
)

// Destinations reported in Result
const (
	DestinationSheets = "sheets"
	DestinationCSV    = "csv"
)

// ErrNothingToExport is returned for reports that carry no data
var ErrNothingToExport = errors.New("nothing to export")

// Result tells where the tables ended up
type Result struct {
	Destination string
	Refs        []string
	// SheetsErr is the spreadsheet failure that caused a CSV fallback
	SheetsErr error
}

type Service struct {
	sheets   ports.TableWriter
	fallback ports.TableWriter
	logger   *log.Logger
}

// NewService creates an exporter. sheets may be nil when no spreadsheet is
// configured; fallback may be nil to disable the CSV copy.
func NewService(sheets, fallback ports.TableWriter, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		sheets:   sheets,
		fallback: fallback,
		logger:   logger.WithComponent(log.ComponentExport),
	}
}

// Export writes report. A redirect report is an AuthError; a report with
// no data is refused with ErrNothingToExport.
func (s *Service) Export(ctx context.Context, report dashboard.Report) (Result, error) {
	if report.Redirect {
		return Result{}, &core.AuthError{Op: log.OpExport, Err: errors.New(report.Reason)}
	}
	if report.NoData {
		return Result{}, ErrNothingToExport
	}

	prefix := report.Period.String()
	tables := Tables(report)

	var sheetsErr error
	if s.sheets != nil {
		refs, err := s.sheets.WriteTables(ctx, prefix, tables)
		if err == nil {
			s.logger.InfoContext(ctx, "Exported dashboard",
				log.FieldOperation, log.OpExport,
				"destination", DestinationSheets,
				"period", prefix,
				"tables", len(refs))
			return Result{Destination: DestinationSheets, Refs: refs}, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		sheetsErr = err
		s.logger.WarnContext(ctx, "Spreadsheet export failed, writing CSV instead",
			log.FieldOperation, log.OpExport,
			"period", prefix,
			log.FieldError, err.Error())
	}

	if s.fallback == nil {
		if sheetsErr != nil {
			return Result{}, fmt.Errorf("export to sheets: %w", sheetsErr)
		}
		return Result{}, errors.New("no export destination configured")
	}

	refs, err := s.fallback.WriteTables(ctx, prefix, tables)
	if err != nil {
		if sheetsErr != nil {
			return Result{}, fmt.Errorf("export to csv: %w (sheets: %v)", err, sheetsErr)
		}
		return Result{}, fmt.Errorf("export to csv: %w", err)
	}

	s.logger.InfoContext(ctx, "Exported dashboard",
		log.FieldOperation, log.OpExport,
		"destination", DestinationCSV,
		"period", prefix,
		"tables", len(refs))
	return Result{Destination: DestinationCSV, Refs: refs, SheetsErr: sheetsErr}, nil
}
