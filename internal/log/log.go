package log

import (
	"context"
	"log/slog"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openpaas/tenantd/internal/tenantctx"
)

// InjectTenant attaches the tenant ID carried by the context to all
// log records emitted through it.
func InjectTenant(ctx context.Context) context.Context {
	tenant, _ := tenantctx.ExtractTenantID(ctx)

	return slogctx.With(ctx, slog.String("tenantId", tenant))
}

// InjectOperation tags log records with the lifecycle operation in flight.
func InjectOperation(ctx context.Context, operation string) context.Context {
	return slogctx.With(ctx, slog.String("operation", operation))
}

// InjectRequest tags log records with the request ID carried by the
// context, if one is set.
func InjectRequest(ctx context.Context) context.Context {
	id, err := tenantctx.GetRequestID(ctx)
	if err != nil {
		return ctx
	}

	return slogctx.With(ctx, slog.String("requestId", id))
}

func Debug(ctx context.Context, msg string, args ...slog.Attr) {
	slogctx.LogAttrs(ctx, slog.LevelDebug, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...slog.Attr) {
	slogctx.LogAttrs(ctx, slog.LevelWarn, msg, args...)
}

func Info(ctx context.Context, msg string, args ...slog.Attr) {
	slogctx.LogAttrs(ctx, slog.LevelInfo, msg, args...)
}

func Error(ctx context.Context, msg string, err error, args ...slog.Attr) {
	args = append(args, slogctx.Err(err))

	slogctx.LogAttrs(ctx, slog.LevelError, msg, args...)
}
