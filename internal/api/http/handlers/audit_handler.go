package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{service: auditService}
}

// TicketAudit GET /tickets/:id/audit?range=.
func (h *AuditHandler) TicketAudit(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	ticketID := c.Params("id")
	entries, err := h.service.Query(c.UserContext(), &ticketID, domain.AuditRange(c.Query("range")), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponses(entries)})
}

// AllAudit GET /audit?range=.
func (h *AuditHandler) AllAudit(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	entries, err := h.service.Query(c.UserContext(), nil, domain.AuditRange(c.Query("range")), principal)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditResponses(entries)})
}
