package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ChatHandler serves ticket conversation threads.
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{service: chatService}
}

// PostMessage POST /tickets/:id/messages.
func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, created, err := h.service.Send(c.UserContext(), c.Params("id"), service.ChatSendInput{
		Content:         req.Content,
		ClientMessageID: req.ClientMessageID,
	}, principal)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": chatMessageResponse(msg)})
}

// ListMessages GET /tickets/:id/messages?after=RFC3339.
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	after, err := parseTime("after", c.Query("after"))
	if err != nil {
		return err
	}
	msgs, err := h.service.List(c.UserContext(), c.Params("id"), after, principal)
	if err != nil {
		return err
	}
	resp := make([]dto.ChatMessageResponse, 0, len(msgs))
	for i := range msgs {
		resp = append(resp, chatMessageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}
