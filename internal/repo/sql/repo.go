package sql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openpaas/tenantd/internal/errs"
	"github.com/openpaas/tenantd/internal/log"
	"github.com/openpaas/tenantd/internal/repo"
	"github.com/openpaas/tenantd/internal/repo/violations"
)

var ErrUnsupportedOrderDirective = errors.New("unsupported order directive")

// ResourceRepository implements repo.Repo against the central registry database.
type ResourceRepository struct {
	db *gorm.DB
}

// NewRepository creates and returns a new instance of ResourceRepository.
func NewRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{
		db: db,
	}
}

// Create stores a Resource.
func (r *ResourceRepository) Create(ctx context.Context, resource repo.Resource) error {
	err := r.db.WithContext(ctx).Create(resource).Error
	if err != nil {
		log.Error(ctx, "error creating resource", err)

		if errors.Is(err, gorm.ErrDuplicatedKey) || violations.IsUniqueConstraint(err) {
			return errs.Wrap(repo.ErrUniqueConstraint, err)
		}

		return errs.Wrap(repo.ErrCreateResource, err)
	}

	return nil
}

// List retrieves records matching the query into result, which must be
// a pointer to a slice. The returned count ignores pagination.
func (r *ResourceRepository) List(
	ctx context.Context,
	resource repo.Resource,
	result any,
	query repo.Query,
) (int, error) {
	var count int64

	db, err := applyConditions(r.db.WithContext(ctx).Model(resource), query)
	if err != nil {
		return 0, err
	}

	db = db.Count(&count)
	if db.Error != nil {
		return 0, errs.Wrap(repo.ErrGetResource, db.Error)
	}

	db, err = applyOrder(db, query)
	if err != nil {
		return 0, err
	}

	res := applyPagination(db, query).Find(result)
	if res.Error != nil {
		return 0, errs.Wrap(repo.ErrGetResource, res.Error)
	}

	return int(count), nil
}

// Count returns the number of records matching the query.
func (r *ResourceRepository) Count(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (int, error) {
	var count int64

	db, err := applyConditions(r.db.WithContext(ctx).Model(resource), query)
	if err != nil {
		return 0, err
	}

	err = db.Count(&count).Error
	if err != nil {
		return 0, errs.Wrap(repo.ErrGetResource, err)
	}

	return int(count), nil
}

// Delete removes matching Resources.
//
// It returns true if at least one record was deleted,
// false if there was no record to delete. If no condition is provided
// it deletes by the resource's primary key.
func (r *ResourceRepository) Delete(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db, err := applyConditions(r.db.WithContext(ctx), query)
	if err != nil {
		return false, err
	}

	result := db.Delete(resource)
	if result.Error != nil {
		log.Error(ctx, "error deleting resource", result.Error)
		return false, errs.Wrap(repo.ErrDeleteResource, result.Error)
	}

	return result.RowsAffected > 0, nil
}

// First fills the given Resource with the first match. With no
// conditions the resource's populated primary key is the lookup.
func (r *ResourceRepository) First(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db, err := applyConditions(r.db.WithContext(ctx), query)
	if err != nil {
		return false, err
	}

	res := db.First(resource)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return false, errs.Wrap(repo.ErrNotFound, res.Error)
		}

		log.Error(ctx, "error finding the resource", res.Error)

		return false, errs.Wrap(repo.ErrGetResource, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Patch updates the resource selecting all fields, with the primary key
// as the where condition unless the query narrows it further.
func (r *ResourceRepository) Patch(
	ctx context.Context,
	resource repo.Resource,
	query repo.Query,
) (bool, error) {
	db, err := applyConditions(r.db.WithContext(ctx).Model(resource), query)
	if err != nil {
		return false, err
	}

	res := db.Clauses(clause.Returning{}).Select("*").Updates(resource)
	if res.Error != nil {
		log.Error(ctx, "error updating resource", res.Error)

		if violations.IsUniqueConstraint(res.Error) || errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, errs.Wrap(repo.ErrUniqueConstraint, res.Error)
		}

		return false, errs.Wrap(repo.ErrUpdateResource, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Transaction wraps a function inside a database transaction.
// If txFunc returns no error the transaction is committed, otherwise
// it is rolled back. The wrapped repository shares the transaction.
func (r *ResourceRepository) Transaction(ctx context.Context, txFunc repo.TransactionFunc) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return txFunc(ctx, NewRepository(tx))
	})
	if err != nil {
		// Sentinel wraps from the inner repo stay matchable for callers.
		return errs.Wrap(repo.ErrTransaction, err)
	}

	return nil
}

func applyConditions(db *gorm.DB, query repo.Query) (*gorm.DB, error) {
	for _, cond := range query.Conds {
		err := cond.Field.Validate()
		if err != nil {
			return nil, err
		}

		switch cond.Operation {
		case repo.Equal, repo.NotEqual:
			db = db.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Operation), cond.Value)
		default:
			return nil, repo.ErrInvalidFieldName
		}
	}

	return db, nil
}

func applyOrder(db *gorm.DB, query repo.Query) (*gorm.DB, error) {
	for _, order := range query.OrderFields {
		switch order.Direction {
		case repo.Desc:
			db = db.Order(string(order.Field) + " desc")
		case repo.Asc:
			db = db.Order(string(order.Field) + " asc")
		default:
			return nil, ErrUnsupportedOrderDirective
		}
	}

	return db, nil
}

func applyPagination(db *gorm.DB, query repo.Query) *gorm.DB {
	if query.Limit <= 0 {
		query.Limit = repo.DefaultLimit
	}

	return db.Offset(query.Offset).Limit(query.Limit)
}
