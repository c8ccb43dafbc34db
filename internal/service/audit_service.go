package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/events"
	"github.com/spec-kit/portal-gateway/internal/observability"
)

// AuditService writes auth events to the log and counts them.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventSessionRejected, a.handleInfo)
	a.dispatcher.Subscribe(events.EventSessionIssued, a.handleInfo)
	a.dispatcher.Subscribe(events.EventSessionRevoked, a.handleInfo)
	a.dispatcher.Subscribe(events.EventRedirectLoopDetected, a.handleWarn)
	a.dispatcher.Subscribe(events.EventDegradedAccess, a.handleWarn)
	a.dispatcher.Subscribe(events.EventAccessDenied, a.handleWarn)
	a.dispatcher.Subscribe(events.EventInvalidUserData, a.handleWarn)
}

func (a *AuditService) handleInfo(_ context.Context, event events.Event) error {
	a.metrics.RecordAuthEvent(string(event.Type))
	a.logger.Info("auth event", fields(event)...)
	return nil
}

func (a *AuditService) handleWarn(_ context.Context, event events.Event) error {
	a.metrics.RecordAuthEvent(string(event.Type))
	a.logger.Warn("auth event", fields(event)...)
	return nil
}

func fields(event events.Event) []zap.Field {
	out := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("at", event.Timestamp),
	}
	if event.Path != "" {
		out = append(out, zap.String("path", event.Path))
	}
	if event.UserID != "" {
		out = append(out, zap.String("user_id", event.UserID))
	}
	if event.Role != "" {
		out = append(out, zap.String("role", event.Role))
	}
	if event.Payload != nil {
		out = append(out, zap.Any("payload", event.Payload))
	}
	return out
}
