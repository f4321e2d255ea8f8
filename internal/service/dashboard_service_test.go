package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type fixedStatsRepo struct {
	*fakeTicketRepo
	stats []repository.CategoryStats
}

func (r fixedStatsRepo) CategoryStats(context.Context, repository.TicketFilter, time.Time) ([]repository.CategoryStats, error) {
	return r.stats, nil
}

func (s *serviceSuite) seedDashboard() {
	critical := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityCritical)
	s.createTicket(bob, domain.CategoryIT, domain.TicketPriorityLow)
	hr := s.createTicket(bob, domain.CategoryHR, domain.TicketPriorityHigh)

	s.clock.Advance(2 * time.Hour)
	_, err := s.update(hr.ID, domain.TicketPatch{Status: statusPtr(domain.TicketStatusClosed)}, hrOwner)
	s.Require().NoError(err)

	// Critical IT ticket is now past its 4h window.
	s.clock.Advance(3 * time.Hour)
	_, err = s.update(critical.ID, domain.TicketPatch{Status: statusPtr(domain.TicketStatusInProgress)}, itOwner)
	s.Require().NoError(err)
}

func (s *serviceSuite) TestScope() {
	s.True(s.dashboardSvc.Scope(alice).OwnOnly)
	s.Empty(s.dashboardSvc.Scope(alice).Categories)

	hr := s.dashboardSvc.Scope(hrOwner)
	s.ElementsMatch([]domain.Category{domain.CategoryHR, domain.CategoryOthers}, hr.Categories)
	s.True(hr.Elevated)
	s.False(hr.CanExportExtended)

	a := s.dashboardSvc.Scope(admin)
	s.Len(a.Categories, len(domain.AllCategories))
	s.True(a.CanExportExtended)
	s.True(a.CanViewAllAudit)
}

func (s *serviceSuite) TestSummaryIsRoleAware() {
	s.seedDashboard()

	summary, err := s.dashboardSvc.Summary(s.ctx, itOwner)
	s.Require().NoError(err)
	s.Equal(2, summary.Total)
	s.Equal(1, summary.StatusCounts[domain.TicketStatusOpen])
	s.Equal(1, summary.StatusCounts[domain.TicketStatusInProgress])
	s.Equal(0, summary.StatusCounts[domain.TicketStatusClosed])
	s.Equal(1, summary.SLAViolated)
	s.Len(summary.Recent, 2)

	summary, err = s.dashboardSvc.Summary(s.ctx, bob)
	s.Require().NoError(err)
	s.Equal(2, summary.Total)
	s.Equal(1, summary.StatusCounts[domain.TicketStatusClosed])

	summary, err = s.dashboardSvc.Summary(s.ctx, admin)
	s.Require().NoError(err)
	s.Equal(3, summary.Total)
}

func (s *serviceSuite) TestSLAReport() {
	s.seedDashboard()

	_, err := s.dashboardSvc.SLAReport(s.ctx, alice, domain.AuditRangeMonth)
	s.requireCode(err, apperrors.CodeForbidden)

	_, err = s.dashboardSvc.SLAReport(s.ctx, admin, "quarter")
	s.requireCode(err, apperrors.CodeValidation)

	report, err := s.dashboardSvc.SLAReport(s.ctx, admin, domain.AuditRangeAll)
	s.Require().NoError(err)
	s.Len(report.Categories, len(domain.AllCategories))

	rows := map[domain.Category]CategorySLA{}
	for _, row := range report.Categories {
		rows[row.Category] = row
	}
	it := rows[domain.CategoryIT]
	s.Equal(2, it.Total)
	s.Equal(1, it.Violated)
	s.Equal(50.0, it.CompliancePercent)
	s.Require().NotNil(it.AvgResponseHours)
	s.Equal(5.0, *it.AvgResponseHours)

	hr := rows[domain.CategoryHR]
	s.Equal(1, hr.Closed)
	s.Equal(100.0, hr.CompliancePercent)
	s.Equal(2.0, *hr.AvgResolutionHours)

	s.Equal(100.0, rows[domain.CategoryAccounts].CompliancePercent)
	s.Equal(3, report.Overall.Total)
	s.Equal(1, report.Overall.Violated)
	s.Equal(66.7, report.Overall.CompliancePercent)
	// Open tickets have no response time and do not dilute the mean.
	s.Require().NotNil(report.Overall.AvgResponseHours)
	s.Equal(3.5, *report.Overall.AvgResponseHours)
	s.Require().NotNil(report.Overall.AvgResolutionHours)
	s.Equal(2.0, *report.Overall.AvgResolutionHours)

	owner, err := s.dashboardSvc.SLAReport(s.ctx, hrOwner, domain.AuditRangeAll)
	s.Require().NoError(err)
	s.Len(owner.Categories, 2)
}

func (s *serviceSuite) TestSLAReportOverallAveragesWeightByMeasuredTickets() {
	one, ten, four := 1.0, 10.0, 4.0
	repo := fixedStatsRepo{fakeTicketRepo: newFakeTicketRepo(), stats: []repository.CategoryStats{
		{Category: domain.CategoryIT, Total: 10, Open: 10, Responded: 1, AvgResponseHours: &one},
		{Category: domain.CategoryHR, Total: 1, Closed: 1, Responded: 1, Resolved: 1, AvgResponseHours: &ten, AvgResolutionHours: &four},
	}}
	svc := NewDashboardService(repo, s.clock.Now)

	report, err := svc.SLAReport(s.ctx, admin, domain.AuditRangeAll)
	s.Require().NoError(err)
	s.Equal(11, report.Overall.Total)
	s.Require().NotNil(report.Overall.AvgResponseHours)
	s.Equal(5.5, *report.Overall.AvgResponseHours)
	s.Require().NotNil(report.Overall.AvgResolutionHours)
	s.Equal(4.0, *report.Overall.AvgResolutionHours)
}
