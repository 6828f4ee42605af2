package worker

import (
	"context"

	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/service"
)

// StartNotificationWorker registers notification handlers on the dispatcher
// and drains its queue until ctx is cancelled.
func StartNotificationWorker(ctx context.Context, dispatcher *events.AsyncDispatcher, notificationService *service.NotificationService) {
	if dispatcher == nil || notificationService == nil {
		return
	}
	notificationService.RegisterHandlers(dispatcher)
	go dispatcher.Run(ctx)
}
