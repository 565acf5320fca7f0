package repo

import (
	"context"
	"errors"

	"github.com/openpaas/tenantd/internal/model"
)

// TransactionFunc is the func signature for Transaction.
type TransactionFunc func(context.Context, Repo) error

// Repo defines an interface for registry store operations.
type Repo interface {
	Create(ctx context.Context, resource Resource) error
	List(ctx context.Context, resource Resource, result any, query Query) (int, error)
	Count(ctx context.Context, resource Resource, query Query) (int, error)
	Delete(ctx context.Context, resource Resource, query Query) (bool, error)
	First(ctx context.Context, resource Resource, query Query) (bool, error)
	Patch(ctx context.Context, resource Resource, query Query) (bool, error)
	Transaction(ctx context.Context, txFunc TransactionFunc) error
}

// Resource defines the interface all stored entities satisfy.
type Resource interface {
	TableName() string
}

const DefaultLimit = 100

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUniqueConstraint = errors.New("unique constraint violation")
	ErrCreateResource   = errors.New("failed to create resource")
	ErrUpdateResource   = errors.New("failed to update resource")
	ErrDeleteResource   = errors.New("failed to delete resource")
	ErrGetResource      = errors.New("failed to get resource")
	ErrTransaction      = errors.New("failed to execute transaction")
	ErrInvalidFieldName = errors.New("invalid field name")
)

// GetTenantByID loads a tenant row by its primary key.
func GetTenantByID(ctx context.Context, r Repo, tenantID string) (*model.Tenant, error) {
	tenant := &model.Tenant{ID: tenantID}

	_, err := r.First(ctx, tenant, *NewQuery())
	if err != nil {
		return nil, err
	}

	return tenant, nil
}

// ActiveSubscription returns the most recently created active
// subscription of a tenant, or ErrNotFound if it has none.
func ActiveSubscription(ctx context.Context, r Repo, tenantID string) (*model.Subscription, error) {
	var subs []*model.Subscription

	query := NewQuery().
		Where(TenantIDField, tenantID).
		Where(IsActiveField, true).
		OrderBy(CreatedField, Desc).
		SetLimit(1)

	_, err := r.List(ctx, model.Subscription{}, &subs, *query)
	if err != nil {
		return nil, err
	}

	if len(subs) == 0 {
		return nil, ErrNotFound
	}

	return subs[0], nil
}

// ProcessInBatch retrieves and processes matching records in pages so
// large result sets never sit in memory at once. Processing stops on
// the first error returned by processFunc.
func ProcessInBatch[T Resource](
	ctx context.Context,
	r Repo,
	baseQuery *Query,
	batchSize int,
	processFunc func([]*T) error,
) error {
	offset := 0

	for {
		var items []*T

		query := baseQuery.SetLimit(batchSize).SetOffset(offset)

		count, err := r.List(ctx, *new(T), &items, *query)
		if err != nil {
			return err
		}

		err = processFunc(items)
		if err != nil {
			return err
		}

		offset += batchSize

		if offset >= count {
			break
		}
	}

	return nil
}
