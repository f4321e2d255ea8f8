package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	exportBatchSize = 500
	exportSheetName = "Tickets"
)

// ExportFormat selects the file type of an export.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

var (
	baseExportColumns     = []string{"id", "subject", "status", "priority", "category", "employeeName", "assignedTo"}
	extendedExportColumns = []string{"employeeCode", "department", "slaViolated", "rating", "responseTime", "resolutionTime"}
)

// ObjectUploader stores a blob and returns a time-limited download URL.
type ObjectUploader interface {
	Put(ctx context.Context, key, contentType string, content []byte) (string, error)
}

// ExportRequest selects tickets and layout for an export.
type ExportRequest struct {
	Format   ExportFormat
	Extended bool
	// TicketIDs limits the export to a selection; empty means every visible ticket.
	TicketIDs []string
	Query     TicketQuery
}

// ExportFile is a rendered export.
type ExportFile struct {
	Name        string
	ContentType string
	Content     []byte
	Rows        int
}

// ArchiveResult points at an uploaded export.
type ArchiveResult struct {
	Key  string
	URL  string
	Rows int
}

// ExportService renders ticket exports and archives them to object storage.
type ExportService struct {
	tickets repository.TicketRepository
	store   ObjectUploader
	now     func() time.Time
}

// NewExportService constructs the service. store may be nil when object storage is off.
func NewExportService(tickets repository.TicketRepository, store ObjectUploader, clock func() time.Time) *ExportService {
	if clock == nil {
		clock = systemClock
	}
	return &ExportService{tickets: tickets, store: store, now: clock}
}

// Export renders visible tickets as CSV or XLSX. Extended columns are admin-only.
func (s *ExportService) Export(ctx context.Context, req ExportRequest, principal domain.Principal) (*ExportFile, error) {
	ctx, span := observability.Tracer().Start(ctx, "ExportService.Export")
	defer span.End()

	if req.Format == "" {
		req.Format = ExportFormatCSV
	}
	if req.Format != ExportFormatCSV && req.Format != ExportFormatXLSX {
		return nil, apperrors.NewValidationError("unknown export format", map[string]any{"format": req.Format})
	}
	for _, id := range req.TicketIDs {
		if _, err := uuid.Parse(id); err != nil {
			return nil, apperrors.NewValidationError("invalid ticket id", map[string]any{"ticket_ids": id})
		}
	}
	scope := ScopeFor(principal)
	if req.Extended && !scope.CanExportExtended {
		return nil, apperrors.NewForbidden("extended export requires admin")
	}

	tickets, err := s.collect(ctx, scope, req, principal)
	if err != nil {
		return nil, err
	}

	header, rows := exportRows(tickets, req.Extended)
	stamp := s.now().Format("20060102-150405")
	file := &ExportFile{Rows: len(rows)}
	switch req.Format {
	case ExportFormatXLSX:
		content, err := renderXLSX(header, rows)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		file.Name = "tickets-" + stamp + ".xlsx"
		file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		file.Content = content
	default:
		content, err := renderCSV(header, rows)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		file.Name = "tickets-" + stamp + ".csv"
		file.ContentType = "text/csv"
		file.Content = content
	}
	return file, nil
}

// Archive renders an export and uploads it, returning a presigned URL.
func (s *ExportService) Archive(ctx context.Context, req ExportRequest, principal domain.Principal) (*ArchiveResult, error) {
	if s.store == nil {
		return nil, apperrors.NewValidationError("object store not configured", nil)
	}
	file, err := s.Export(ctx, req, principal)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("exports/%s/%s-%s", s.now().Format("2006/01/02"), uuid.NewString(), file.Name)
	url, err := s.store.Put(ctx, key, file.ContentType, file.Content)
	if err != nil {
		return nil, apperrors.NewUnavailable("object store", err)
	}
	return &ArchiveResult{Key: key, URL: url, Rows: file.Rows}, nil
}

func (s *ExportService) collect(ctx context.Context, scope Scope, req ExportRequest, principal domain.Principal) ([]domain.Ticket, error) {
	filter := scope.filter(principal, req.Query.toFilter())
	filter.IDs = req.TicketIDs
	filter.Limit = exportBatchSize

	now := s.now()
	var result []domain.Ticket
	for {
		batch, total, err := s.tickets.List(ctx, filter)
		if err != nil {
			return nil, apperrors.FromStore("ticket", err)
		}
		for i := range batch {
			sla.Derive(batch[i], now).Apply(&batch[i])
		}
		result = append(result, batch...)
		filter.Offset += len(batch)
		if len(batch) == 0 || filter.Offset >= total {
			return result, nil
		}
	}
}

func exportRows(tickets []domain.Ticket, extended bool) ([]string, [][]string) {
	header := append([]string{}, baseExportColumns...)
	if extended {
		header = append(header, extendedExportColumns...)
	}
	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		row := []string{
			t.ID,
			t.Subject,
			string(t.Status),
			string(t.Priority),
			string(t.Category),
			t.EmployeeName,
			derefString(t.AssignedTo),
		}
		if extended {
			row = append(row,
				t.EmployeeCode,
				t.Department,
				strconv.FormatBool(t.SLAViolated),
				formatInt(t.Rating),
				formatHours(t.ResponseTime),
				formatHours(t.ResolutionTime),
			)
		}
		rows = append(rows, row)
	}
	return header, rows
}

func renderCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(header); err != nil {
		return nil, err
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, err
	}
	sw, err := f.NewStreamWriter(exportSheetName)
	if err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", toCells(header)); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, toCells(row)); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func formatHours(value *float64) string {
	if value == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(strconv.FormatFloat(*value, 'f', 2, 64), "0"), ".")
}
