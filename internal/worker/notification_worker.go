package worker

import (
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StartNotificationWorker registers audit and notification handlers on the dispatcher.
// With an async dispatcher these run on its worker goroutines.
func StartNotificationWorker(dispatcher events.Dispatcher, audit *service.AuditService, notifications *service.NotificationService) {
	if audit != nil {
		audit.RegisterHandlers(dispatcher)
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}
}
