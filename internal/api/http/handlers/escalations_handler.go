package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// EscalationsHandler exposes the escalation workflow.
type EscalationsHandler struct {
	service *service.EscalationService
}

// NewEscalationsHandler constructs handler.
func NewEscalationsHandler(escalationService *service.EscalationService) *EscalationsHandler {
	return &EscalationsHandler{service: escalationService}
}

// Escalate POST /tickets/:id/escalations.
// Responds 201 for a new escalation and 200 when the ticket was already escalated.
func (h *EscalationsHandler) Escalate(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Escalate(c.UserContext(), c.Params("id"), service.EscalateInput{
		Reason:      req.Reason,
		Description: req.Description,
		Timeline:    req.Timeline,
	}, principal)
	if err != nil {
		return err
	}

	resp := dto.EscalateResponse{
		Ticket:           ticketResponse(result.Ticket),
		AlreadyEscalated: result.AlreadyEscalated,
	}
	status := http.StatusOK
	if result.Escalation != nil {
		escalation := escalationResponse(result.Escalation)
		resp.Escalation = &escalation
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": resp})
}

// ListEscalations GET /tickets/:id/escalations.
func (h *EscalationsHandler) ListEscalations(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.UserContext(), c.Params("id"), principal)
	if err != nil {
		return err
	}
	resp := make([]dto.EscalationResponse, 0, len(items))
	for i := range items {
		resp = append(resp, escalationResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}
