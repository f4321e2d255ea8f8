package service

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func (s *serviceSuite) TestChatSendDedupesByClientMessageID() {
	ticket := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityLow)

	first, created, err := s.chatSvc.Send(s.ctx, ticket.ID, ChatSendInput{Content: "Any update?", ClientMessageID: stringPtr("c-1")}, alice)
	s.Require().NoError(err)
	s.True(created)
	s.Equal(domain.RoleEmployee, first.SenderRole)

	again, created, err := s.chatSvc.Send(s.ctx, ticket.ID, ChatSendInput{Content: "Any update?", ClientMessageID: stringPtr("c-1")}, alice)
	s.Require().NoError(err)
	s.False(created)
	s.Equal(first.ID, again.ID)

	// Same content without a client id is a new message.
	_, created, err = s.chatSvc.Send(s.ctx, ticket.ID, ChatSendInput{Content: "Any update?"}, alice)
	s.Require().NoError(err)
	s.True(created)

	msgs, err := s.chatSvc.List(s.ctx, ticket.ID, nil, itOwner)
	s.Require().NoError(err)
	s.Len(msgs, 2)

	entries := s.audit.byTicket(ticket.ID)
	s.Equal(domain.AuditActionMessagePosted, entries[len(entries)-1].Action)
}

func (s *serviceSuite) TestChatListAfterCursor() {
	ticket := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityLow)
	first, _, err := s.chatSvc.Send(s.ctx, ticket.ID, ChatSendInput{Content: "one"}, alice)
	s.Require().NoError(err)
	s.clock.Advance(time.Minute)
	_, _, err = s.chatSvc.Send(s.ctx, ticket.ID, ChatSendInput{Content: "two"}, itOwner)
	s.Require().NoError(err)

	msgs, err := s.chatSvc.List(s.ctx, ticket.ID, &first.CreatedAt, alice)
	s.Require().NoError(err)
	s.Require().Len(msgs, 1)
	s.Equal("two", msgs[0].Content)
	s.Equal(domain.RoleITOwner, msgs[0].SenderRole)
}

func (s *serviceSuite) TestChatRejectsEmptyClosedAndOutsiders() {
	ticket := s.createTicket(alice, domain.CategoryIT, domain.TicketPriorityLow)

	_, _, err := s.chatSvc.Send(s.ctx, ticket.ID, ChatSendInput{Content: "   "}, alice)
	s.requireCode(err, apperrors.CodeValidation)

	_, _, err = s.chatSvc.Send(s.ctx, ticket.ID, ChatSendInput{Content: "hi"}, bob)
	s.requireCode(err, apperrors.CodeForbidden)

	_, err = s.update(ticket.ID, domain.TicketPatch{Status: statusPtr(domain.TicketStatusClosed)}, itOwner)
	s.Require().NoError(err)
	_, _, err = s.chatSvc.Send(s.ctx, ticket.ID, ChatSendInput{Content: "hi"}, alice)
	s.requireCode(err, apperrors.CodeValidation)
}
