package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ExportsHandler streams ticket exports and archives them.
type ExportsHandler struct {
	service *service.ExportService
}

// NewExportsHandler constructs handler.
func NewExportsHandler(exportService *service.ExportService) *ExportsHandler {
	return &ExportsHandler{service: exportService}
}

// Download GET /exports/tickets?format=csv|xlsx&extended=true&ids=a,b.
func (h *ExportsHandler) Download(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	query, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	file, err := h.service.Export(c.UserContext(), service.ExportRequest{
		Format:    service.ExportFormat(c.Query("format", string(service.ExportFormatCSV))),
		Extended:  c.QueryBool("extended"),
		TicketIDs: splitList(c.Query("ids")),
		Query:     query,
	}, principal)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.Send(file.Content)
}

// Archive POST /exports/tickets/archive.
func (h *ExportsHandler) Archive(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ArchiveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	result, err := h.service.Archive(c.UserContext(), service.ExportRequest{
		Format:    service.ExportFormat(req.Format),
		Extended:  req.Extended,
		TicketIDs: req.TicketIDs,
	}, principal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ArchiveResponse{
		Key:  result.Key,
		URL:  result.URL,
		Rows: result.Rows,
	}})
}
