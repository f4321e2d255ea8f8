package service

import (
	"bytes"
	"encoding/csv"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func (s *serviceSuite) TestExportCSVColumns() {
	ticket := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityHigh)
	s.createTicket(bob, domain.CategoryHR, domain.TicketPriorityLow)

	svc := NewExportService(s.tickets, nil, s.clock.Now)
	file, err := svc.Export(s.ctx, ExportRequest{Format: ExportFormatCSV}, itOwner)
	s.Require().NoError(err)
	s.Equal("text/csv", file.ContentType)
	s.Equal(1, file.Rows)

	records, err := csv.NewReader(bytes.NewReader(file.Content)).ReadAll()
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal([]string{"id", "subject", "status", "priority", "category", "employeeName", "assignedTo"}, records[0])
	s.Equal(ticket.ID, records[1][0])
	s.Equal("Open", records[1][2])
	s.Equal("", records[1][6])

	_, err = svc.Export(s.ctx, ExportRequest{Format: ExportFormatCSV, Extended: true}, itOwner)
	s.requireCode(err, apperrors.CodeForbidden)

	_, err = svc.Export(s.ctx, ExportRequest{Format: "pdf"}, admin)
	s.requireCode(err, apperrors.CodeValidation)
}

func (s *serviceSuite) TestExportExtendedXLSX() {
	ticket := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityHigh)
	_, err := s.update(ticket.ID, domain.TicketPatch{Status: statusPtr(domain.TicketStatusClosed)}, itOwner)
	s.Require().NoError(err)
	_, err = s.update(ticket.ID, domain.TicketPatch{Rating: intPtr(4)}, alice)
	s.Require().NoError(err)

	svc := NewExportService(s.tickets, nil, s.clock.Now)
	file, err := svc.Export(s.ctx, ExportRequest{Format: ExportFormatXLSX, Extended: true, TicketIDs: []string{ticket.ID}}, admin)
	s.Require().NoError(err)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Content))
	s.Require().NoError(err)
	defer wb.Close()

	rows, err := wb.GetRows("Tickets")
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Len(rows[0], 13)
	s.Equal("rating", rows[0][10])
	s.Equal("4", rows[1][10])
	s.Equal("false", rows[1][9])
	s.Equal("0", rows[1][12])
}

func (s *serviceSuite) TestArchive() {
	s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityHigh)

	_, err := NewExportService(s.tickets, nil, s.clock.Now).Archive(s.ctx, ExportRequest{}, admin)
	s.requireCode(err, apperrors.CodeValidation)

	uploader := &fakeUploader{}
	result, err := NewExportService(s.tickets, uploader, s.clock.Now).Archive(s.ctx, ExportRequest{Format: ExportFormatCSV}, admin)
	s.Require().NoError(err)
	s.Equal(1, result.Rows)
	s.Contains(result.Key, "exports/2024/03/01/")
	s.Contains(result.URL, result.Key)
	s.Equal("text/csv", uploader.contentType)
	s.NotEmpty(uploader.content)
}
