package service

import (
	"context"
	"math"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const recentTicketsLimit = 10

// DashboardService serves role-aware summaries and SLA analytics.
type DashboardService struct {
	tickets repository.TicketRepository
	now     func() time.Time
}

// DashboardSummary is the landing-page view for a principal.
type DashboardSummary struct {
	Scope        Scope
	StatusCounts map[domain.TicketStatus]int
	Total        int
	SLAViolated  int
	Recent       []domain.Ticket
}

// CategorySLA holds SLA compliance for one category.
type CategorySLA struct {
	Category           domain.Category
	Total              int
	Open               int
	Closed             int
	Violated           int
	CompliancePercent  float64
	AvgResponseHours   *float64
	AvgResolutionHours *float64
}

// SLAReport aggregates compliance across the categories a principal manages.
type SLAReport struct {
	Range       domain.AuditRange
	GeneratedAt time.Time
	Categories  []CategorySLA
	Overall     CategorySLA
}

// NewDashboardService constructs the service.
func NewDashboardService(tickets repository.TicketRepository, clock func() time.Time) *DashboardService {
	if clock == nil {
		clock = systemClock
	}
	return &DashboardService{tickets: tickets, now: clock}
}

// Scope returns the visibility scope of principal.
func (s *DashboardService) Scope(principal domain.Principal) Scope {
	return ScopeFor(principal)
}

// Summary returns status counts, SLA-violated count and the most recent visible tickets.
func (s *DashboardService) Summary(ctx context.Context, principal domain.Principal) (*DashboardSummary, error) {
	ctx, span := observability.Tracer().Start(ctx, "DashboardService.Summary")
	defer span.End()

	scope := ScopeFor(principal)
	filter := scope.filter(principal, repository.TicketFilter{})
	now := s.now()

	counts, err := s.tickets.StatusCounts(ctx, filter)
	if err != nil {
		return nil, apperrors.FromStore("ticket", err)
	}
	stats, err := s.tickets.CategoryStats(ctx, filter, now)
	if err != nil {
		return nil, apperrors.FromStore("ticket", err)
	}

	recentFilter := filter
	recentFilter.Limit = recentTicketsLimit
	recent, total, err := s.tickets.List(ctx, recentFilter)
	if err != nil {
		return nil, apperrors.FromStore("ticket", err)
	}
	for i := range recent {
		sla.Derive(recent[i], now).Apply(&recent[i])
	}
	if recent == nil {
		recent = []domain.Ticket{}
	}

	summary := &DashboardSummary{
		Scope:        scope,
		StatusCounts: map[domain.TicketStatus]int{},
		Total:        total,
		Recent:       recent,
	}
	for _, status := range []domain.TicketStatus{
		domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusEscalated, domain.TicketStatusClosed,
	} {
		summary.StatusCounts[status] = counts[status]
	}
	for _, st := range stats {
		summary.SLAViolated += st.Violated
	}
	return summary, nil
}

// SLAReport computes per-category compliance for tickets created within rng.
func (s *DashboardService) SLAReport(ctx context.Context, principal domain.Principal, rng domain.AuditRange) (*SLAReport, error) {
	ctx, span := observability.Tracer().Start(ctx, "DashboardService.SLAReport")
	defer span.End()

	scope := ScopeFor(principal)
	if scope.OwnOnly {
		return nil, apperrors.NewForbidden("SLA analytics require an owner role")
	}
	if rng == "" {
		rng = domain.AuditRangeMonth
	}
	if !rng.IsValid() {
		return nil, apperrors.NewValidationError("unknown range", map[string]any{"range": rng})
	}

	now := s.now()
	filter := scope.filter(principal, repository.TicketFilter{CreatedFrom: rng.Since(now)})
	stats, err := s.tickets.CategoryStats(ctx, filter, now)
	if err != nil {
		return nil, apperrors.FromStore("ticket", err)
	}

	byCategory := map[domain.Category]repository.CategoryStats{}
	for _, st := range stats {
		byCategory[st.Category] = st
	}

	report := &SLAReport{Range: rng, GeneratedAt: now, Overall: CategorySLA{Category: "All"}}
	var responseSum, resolutionSum float64
	var responseWeight, resolutionWeight int
	for _, category := range scope.Categories {
		st := byCategory[category]
		row := CategorySLA{
			Category:           category,
			Total:              st.Total,
			Open:               st.Open,
			Closed:             st.Closed,
			Violated:           st.Violated,
			CompliancePercent:  compliance(st.Total, st.Violated),
			AvgResponseHours:   roundPtr(st.AvgResponseHours),
			AvgResolutionHours: roundPtr(st.AvgResolutionHours),
		}
		report.Categories = append(report.Categories, row)

		report.Overall.Total += st.Total
		report.Overall.Open += st.Open
		report.Overall.Closed += st.Closed
		report.Overall.Violated += st.Violated
		if st.AvgResponseHours != nil {
			responseSum += *st.AvgResponseHours * float64(st.Responded)
			responseWeight += st.Responded
		}
		if st.AvgResolutionHours != nil {
			resolutionSum += *st.AvgResolutionHours * float64(st.Resolved)
			resolutionWeight += st.Resolved
		}
	}
	report.Overall.CompliancePercent = compliance(report.Overall.Total, report.Overall.Violated)
	if responseWeight > 0 {
		avg := responseSum / float64(responseWeight)
		report.Overall.AvgResponseHours = roundPtr(&avg)
	}
	if resolutionWeight > 0 {
		avg := resolutionSum / float64(resolutionWeight)
		report.Overall.AvgResolutionHours = roundPtr(&avg)
	}
	return report, nil
}

// compliance is the share of tickets within SLA, 100 when there are none.
func compliance(total, violated int) float64 {
	if total == 0 {
		return 100
	}
	return math.Round(float64(total-violated)/float64(total)*1000) / 10
}

func roundPtr(value *float64) *float64 {
	if value == nil {
		return nil
	}
	rounded := math.Round(*value*100) / 100
	return &rounded
}
