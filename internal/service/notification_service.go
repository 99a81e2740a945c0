package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/trouble-tickets/internal/events"
)

// NotificationService logs domain events as they happen. Real delivery
// channels are out of scope; this keeps an operator-visible trace of every
// lifecycle transition.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleEvent)
	n.dispatcher.Subscribe(events.EventTicketScheduled, n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID),
		zap.Int64("actor_id", event.ActorID),
		zap.Any("payload", event.Payload),
	)
	return nil
}
