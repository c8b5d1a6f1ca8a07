package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/service"
)

// StartNotificationWorker registers notification handlers and, when relay is set, forwards
// every workflow event to Redis as well.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, relay *events.RedisRelay, logger *zap.Logger) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if relay != nil && dispatcher != nil {
		relay.Attach(dispatcher)
		logger.Info("relaying workflow events to redis")
	}
}
