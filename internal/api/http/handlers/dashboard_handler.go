package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// DashboardHandler serves summaries and SLA analytics.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Summary GET /dashboard.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	summary, err := h.service.Summary(c.UserContext(), principal)
	if err != nil {
		return err
	}
	recent := make([]dto.TicketResponse, 0, len(summary.Recent))
	for i := range summary.Recent {
		recent = append(recent, ticketResponse(&summary.Recent[i]))
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Scope:        scopeResponse(summary.Scope),
		StatusCounts: summary.StatusCounts,
		Total:        summary.Total,
		SLAViolated:  summary.SLAViolated,
		Recent:       recent,
	}})
}

// SLAReport GET /analytics/sla?range=.
func (h *DashboardHandler) SLAReport(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	report, err := h.service.SLAReport(c.UserContext(), principal, domain.AuditRange(c.Query("range")))
	if err != nil {
		return err
	}
	rows := make([]dto.CategorySLAResponse, 0, len(report.Categories))
	for _, row := range report.Categories {
		rows = append(rows, categorySLAResponse(row))
	}
	return c.JSON(fiber.Map{"data": dto.SLAReportResponse{
		Range:       report.Range,
		GeneratedAt: report.GeneratedAt,
		Categories:  rows,
		Overall:     categorySLAResponse(report.Overall),
	}})
}
