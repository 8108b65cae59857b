package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/jdevops/portal-login/internal/events"
	"github.com/jdevops/portal-login/internal/observability"
)

// AuditService writes security and enrollment events to the log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     observability.Component(logger, "audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventUserRegistered,
		events.EventUserDeleted,
		events.EventLoginSucceeded,
		events.EventTokenRefreshed,
		events.EventCourseJoined,
		events.EventCourseLeft,
	} {
		a.dispatcher.Subscribe(t, a.handleInfo)
	}
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventRefreshReuseDetected, a.handleWarn)
	a.dispatcher.Subscribe(events.EventCacheSyncFailed, a.handleWarn)
}

func (a *AuditService) handleInfo(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type), fields(event)...)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	// Failed logins are noisy; keep them below the default level.
	a.logger.Debug(string(event.Type), fields(event)...)
	return nil
}

func (a *AuditService) handleWarn(_ context.Context, event events.Event) error {
	a.logger.Warn(string(event.Type), fields(event)...)
	return nil
}

func fields(event events.Event) []zap.Field {
	f := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("subject", event.Subject),
		zap.Time("at", event.Timestamp),
	}
	if event.Payload != nil {
		f = append(f, zap.Any("payload", event.Payload))
	}
	return f
}
