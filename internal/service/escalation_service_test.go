package service

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func (s *serviceSuite) escalateInput() EscalateInput {
	return EscalateInput{Reason: "Blocking payroll", Description: "Finance cannot run payroll", Timeline: "Today EOD"}
}

func (s *serviceSuite) TestEscalateOpenTicket() {
	ticket := s.createTicket(alice, domain.CategoryAccounts, domain.TicketPriorityMedium)
	s.clock.Advance(2 * time.Hour)

	result, err := s.escalationSvc.Escalate(s.ctx, ticket.ID, s.escalateInput(), alice)
	s.Require().NoError(err)
	s.False(result.AlreadyEscalated)
	s.Require().NotNil(result.Escalation)
	s.False(result.Escalation.Resolved)
	s.Equal(alice.Email, result.Escalation.EscalatedBy)

	stored := s.tickets.stored(ticket.ID)
	s.Equal(domain.TicketStatusEscalated, stored.Status)
	s.Equal("Blocking payroll", *stored.EscalationReason)
	s.Equal(s.clock.Now(), *stored.EscalationDate)
	s.Require().NotNil(stored.ResponseTime)
	s.Equal(2.0, *stored.ResponseTime)

	last := s.published[len(s.published)-1]
	s.Equal(events.EventTicketEscalated, last.Type)

	entries := s.audit.byTicket(ticket.ID)
	s.Equal(domain.AuditActionEscalated, entries[len(entries)-1].Action)
	s.Equal(domain.TicketStatusOpen, entries[len(entries)-1].OldValue["status"])
}

func (s *serviceSuite) TestEscalateAlreadyEscalatedIsNoop() {
	ticket := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityLow)
	_, err := s.escalationSvc.Escalate(s.ctx, ticket.ID, s.escalateInput(), alice)
	s.Require().NoError(err)
	publishedBefore := len(s.published)

	result, err := s.escalationSvc.Escalate(s.ctx, ticket.ID, s.escalateInput(), itOwner)
	s.Require().NoError(err)
	s.True(result.AlreadyEscalated)
	s.Nil(result.Escalation)
	s.Len(s.published, publishedBefore)

	list, err := s.escalationSvc.List(s.ctx, ticket.ID, alice)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *serviceSuite) TestEscalateValidationAndAuthorization() {
	ticket := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityLow)

	_, err := s.escalationSvc.Escalate(s.ctx, ticket.ID, EscalateInput{Reason: " ", Timeline: "soon"}, alice)
	s.requireCode(err, apperrors.CodeValidation)

	_, err = s.escalationSvc.Escalate(s.ctx, ticket.ID, EscalateInput{Reason: "why"}, alice)
	s.requireCode(err, apperrors.CodeValidation)

	_, err = s.escalationSvc.Escalate(s.ctx, ticket.ID, s.escalateInput(), bob)
	s.requireCode(err, apperrors.CodeForbidden)

	_, err = s.escalationSvc.Escalate(s.ctx, "missing", s.escalateInput(), admin)
	s.requireCode(err, apperrors.CodeNotFound)

	_, err = s.update(ticket.ID, domain.TicketPatch{Status: statusPtr(domain.TicketStatusClosed)}, itOwner)
	s.Require().NoError(err)
	_, err = s.escalationSvc.Escalate(s.ctx, ticket.ID, s.escalateInput(), alice)
	s.requireCode(err, apperrors.CodeValidation)
}

func (s *serviceSuite) TestEscalationStoreFailureLeavesTicketUntouched() {
	ticket := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityLow)
	s.escalations.fail = errStoreDown

	_, err := s.escalationSvc.Escalate(s.ctx, ticket.ID, s.escalateInput(), alice)
	s.requireCode(err, apperrors.CodeInternal)
	s.Equal(domain.TicketStatusOpen, s.tickets.stored(ticket.ID).Status)
}

func (s *serviceSuite) TestLeavingEscalatedResolvesEscalations() {
	ticket := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityLow)
	_, err := s.escalationSvc.Escalate(s.ctx, ticket.ID, s.escalateInput(), alice)
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	_, err = s.update(ticket.ID, domain.TicketPatch{Status: statusPtr(domain.TicketStatusInProgress)}, itOwner)
	s.Require().NoError(err)

	list, err := s.escalationSvc.List(s.ctx, ticket.ID, itOwner)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.True(list[0].Resolved)
	s.Equal(s.clock.Now(), *list[0].ResolvedAt)

	// Escalating again is allowed from In Progress.
	result, err := s.escalationSvc.Escalate(s.ctx, ticket.ID, s.escalateInput(), alice)
	s.Require().NoError(err)
	s.False(result.AlreadyEscalated)
}
