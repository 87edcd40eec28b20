package core

import (
	"context"

	"github.com/eskrenkovic/mediator-go"

	"go.uber.org/zap"
)

const loggerContextKey contextKey = "logger"

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// Logger returns the request scoped logger, falling back to the global
// one.
func Logger(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.L()
}

func LogError(ctx context.Context, msg string, fields ...zap.Field) {
	Logger(ctx).Error(msg, append(contextFields(ctx), fields...)...)
}

func contextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field

	if correlationID := CorrelationID(ctx); correlationID != "" {
		fields = append(fields, zap.String("correlation_id", correlationID))
	}

	if identity, ok := IdentityFrom(ctx); ok {
		fields = append(fields, zap.String("participant_id", identity.ParticipantID))
	}

	return fields
}

var _ mediator.PipelineBehavior = (*RequestLoggingBehavior)(nil)

type RequestLoggingBehavior struct {
	Logger *zap.Logger
}

func (b *RequestLoggingBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	logFields := contextFields(ctx)

	if request != nil {
		logFields = append(logFields, zap.Any("request_body", request))
	}

	b.Logger.Info("processing request", logFields...)

	return next(ctx, request)
}

var _ mediator.PipelineBehavior = (*HandlerErrorLoggingBehavior)(nil)

// HandlerErrorLoggingBehavior logs failed handlers. Expected client
// errors (4xx) are logged at debug level.
type HandlerErrorLoggingBehavior struct {
	Logger *zap.Logger
}

func (b *HandlerErrorLoggingBehavior) Handle(
	ctx context.Context,
	request interface{},
	next mediator.RequestHandlerFunc,
) (interface{}, error) {
	response, err := next(ctx, request)
	if err != nil {
		fields := append(contextFields(ctx), zap.Error(err))

		if commandErr, ok := err.(CommandError); ok && commandErr.StatusCode < 500 {
			b.Logger.Debug("handler returned error", fields...)
		} else {
			b.Logger.Error("handler returned error", fields...)
		}
	}

	return response, err
}
