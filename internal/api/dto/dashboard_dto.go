package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ScopeResponse describes the caller's visibility.
type ScopeResponse struct {
	Role              domain.Role       `json:"role"`
	Categories        []domain.Category `json:"categories"`
	OwnOnly           bool              `json:"own_only"`
	Elevated          bool              `json:"elevated"`
	CanExportExtended bool              `json:"can_export_extended"`
}

// DashboardResponse is the landing summary.
type DashboardResponse struct {
	Scope        ScopeResponse               `json:"scope"`
	StatusCounts map[domain.TicketStatus]int `json:"status_counts"`
	Total        int                         `json:"total"`
	SLAViolated  int                         `json:"sla_violated"`
	Recent       []TicketResponse            `json:"recent"`
}

// CategorySLAResponse is one analytics row.
type CategorySLAResponse struct {
	Category           domain.Category `json:"category"`
	Total              int             `json:"total"`
	Open               int             `json:"open"`
	Closed             int             `json:"closed"`
	Violated           int             `json:"violated"`
	CompliancePercent  float64         `json:"compliance_percent"`
	AvgResponseHours   *float64        `json:"avg_response_hours"`
	AvgResolutionHours *float64        `json:"avg_resolution_hours"`
}

// SLAReportResponse aggregates SLA analytics.
type SLAReportResponse struct {
	Range       domain.AuditRange     `json:"range"`
	GeneratedAt time.Time             `json:"generated_at"`
	Categories  []CategorySLAResponse `json:"categories"`
	Overall     CategorySLAResponse   `json:"overall"`
}
