package handlers

import (
	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:               t.ID,
		ExternalKey:      t.ExternalKey,
		Subject:          t.Subject,
		Description:      t.Description,
		Category:         t.Category,
		Priority:         t.Priority,
		Status:           t.Status,
		EmployeeEmail:    t.EmployeeEmail,
		EmployeeName:     t.EmployeeName,
		EmployeeCode:     t.EmployeeCode,
		Department:       t.Department,
		AssignedTo:       t.AssignedTo,
		SLADueDate:       t.SLADueDate,
		SLAViolated:      t.SLAViolated,
		ResponseTime:     t.ResponseTime,
		ResolutionTime:   t.ResolutionTime,
		Rating:           t.Rating,
		EscalationReason: t.EscalationReason,
		EscalationDate:   t.EscalationDate,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		ClosedAt:         t.ClosedAt,
	}
}

func ticketListResponse(page service.Page[domain.Ticket]) dto.TicketListResponse {
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, ticketResponse(&page.Items[i]))
	}
	return dto.TicketListResponse{
		Data: items,
		Meta: dto.PageMeta{Total: page.Total, Page: page.Page, PageSize: page.PageSize},
	}
}

func escalationResponse(e *domain.Escalation) dto.EscalationResponse {
	return dto.EscalationResponse{
		ID:          e.ID,
		TicketID:    e.TicketID,
		Reason:      e.Reason,
		Description: e.Description,
		Timeline:    e.Timeline,
		EscalatedBy: e.EscalatedBy,
		Resolved:    e.Resolved,
		ResolvedAt:  e.ResolvedAt,
		CreatedAt:   e.CreatedAt,
	}
}

func auditResponses(entries []domain.AuditLogEntry) []dto.AuditEntryResponse {
	resp := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.AuditEntryResponse{
			ID:              entry.ID,
			TicketID:        entry.TicketID,
			Action:          entry.Action,
			Details:         entry.Details,
			OldValue:        entry.OldValue,
			NewValue:        entry.NewValue,
			PerformedBy:     entry.PerformedBy,
			PerformedByRole: entry.PerformedByRole,
			PerformedAt:     entry.PerformedAt,
		})
	}
	return resp
}

func chatMessageResponse(msg *domain.ChatMessage) dto.ChatMessageResponse {
	return dto.ChatMessageResponse{
		ID:              msg.ID,
		TicketID:        msg.TicketID,
		ClientMessageID: msg.ClientMessageID,
		SenderEmail:     msg.SenderEmail,
		SenderRole:      msg.SenderRole,
		Content:         msg.Content,
		CreatedAt:       msg.CreatedAt,
	}
}

func scopeResponse(s service.Scope) dto.ScopeResponse {
	categories := s.Categories
	if categories == nil {
		categories = []domain.Category{}
	}
	return dto.ScopeResponse{
		Role:              s.Role,
		Categories:        categories,
		OwnOnly:           s.OwnOnly,
		Elevated:          s.Elevated,
		CanExportExtended: s.CanExportExtended,
	}
}

func categorySLAResponse(row service.CategorySLA) dto.CategorySLAResponse {
	return dto.CategorySLAResponse{
		Category:           row.Category,
		Total:              row.Total,
		Open:               row.Open,
		Closed:             row.Closed,
		Violated:           row.Violated,
		CompliancePercent:  row.CompliancePercent,
		AvgResponseHours:   row.AvgResponseHours,
		AvgResolutionHours: row.AvgResolutionHours,
	}
}
