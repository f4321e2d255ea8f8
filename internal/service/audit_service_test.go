package service

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func (s *serviceSuite) TestAuditQueryByTicketAndRange() {
	old := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityLow)
	s.clock.Advance(10 * 24 * time.Hour)
	recent := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityLow)
	_, err := s.update(recent.ID, domain.TicketPatch{Status: statusPtr(domain.TicketStatusInProgress)}, itOwner)
	s.Require().NoError(err)

	entries, err := s.auditSvc.Query(s.ctx, &recent.ID, domain.AuditRangeToday, alice)
	s.Require().NoError(err)
	s.Equal([]domain.AuditAction{domain.AuditActionCreated, domain.AuditActionUpdated}, auditActions(entries))

	entries, err = s.auditSvc.Query(s.ctx, &old.ID, domain.AuditRangeWeek, alice)
	s.Require().NoError(err)
	s.Empty(entries)

	entries, err = s.auditSvc.Query(s.ctx, &old.ID, "", alice)
	s.Require().NoError(err)
	s.Len(entries, 1)

	_, err = s.auditSvc.Query(s.ctx, &old.ID, domain.AuditRangeAll, bob)
	s.requireCode(err, apperrors.CodeForbidden)

	_, err = s.auditSvc.Query(s.ctx, &old.ID, "yesterday", alice)
	s.requireCode(err, apperrors.CodeValidation)
}

func (s *serviceSuite) TestAuditAllTicketsRequiresAdmin() {
	s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityLow)
	s.createTicket(bob, domain.CategoryHR, domain.TicketPriorityLow)

	_, err := s.auditSvc.Query(s.ctx, nil, domain.AuditRangeAll, itOwner)
	s.requireCode(err, apperrors.CodeForbidden)

	entries, err := s.auditSvc.Query(s.ctx, nil, domain.AuditRangeAll, admin)
	s.Require().NoError(err)
	s.Len(entries, 2)
	for i := 1; i < len(entries); i++ {
		s.False(entries[i].PerformedAt.Before(entries[i-1].PerformedAt))
	}
}

func (s *serviceSuite) TestAuditAppendValidates() {
	err := s.auditSvc.Append(s.ctx, &domain.AuditLogEntry{Action: domain.AuditActionUpdated})
	s.requireCode(err, apperrors.CodeValidation)

	entry := &domain.AuditLogEntry{TicketID: "t-1", Action: domain.AuditActionUpdated, PerformedBy: "x@example.com"}
	s.Require().NoError(s.auditSvc.Append(s.ctx, entry))
	s.NotEmpty(entry.ID)
	s.Equal(s.clock.Now(), entry.PerformedAt)
}
