package tenantctx

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrExtractTenantID = errors.New("could not extract tenant ID from context")
	ErrGetRequestID    = errors.New("no requestID found in context")
)

type key string

const (
	tenantID  = key("tenantID")
	requestID = key("requestID")
)

type Opt func(ctx context.Context) context.Context

//nolint:fatcontext
func New(ctx context.Context, opts ...Opt) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	for _, opt := range opts {
		ctx = opt(ctx)
	}

	return ctx
}

// ExtractTenantID returns the tenant ID carried by the context.
func ExtractTenantID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(tenantID).(string)
	if !ok || id == "" {
		return "", ErrExtractTenantID
	}

	return id, nil
}

func CreateTenantContext(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, tenantID, id)
}

func WithTenant(id string) Opt {
	return func(ctx context.Context) context.Context {
		return CreateTenantContext(ctx, id)
	}
}

func InjectRequestID(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestID, uuid.NewString())
}

func GetRequestID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(requestID).(string)
	if !ok || id == "" {
		return "", ErrGetRequestID
	}

	return id, nil
}
