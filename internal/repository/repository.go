package repository

import (
	"context"
	"fmt"
	"strings"

	"erpcrm/internal/database"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SoftDeleteRepository is the lifecycle every soft-deletable entity shares
type SoftDeleteRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	// FindWithTrashed also returns soft-deleted rows
	FindWithTrashed(ctx context.Context, id uuid.UUID) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ForceDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
}

type softDeleteRepository[T any] struct {
	db       *gorm.DB
	preloads []string
}

func newSoftDeleteRepository[T any](db *gorm.DB, preloads ...string) softDeleteRepository[T] {
	return softDeleteRepository[T]{db: db, preloads: preloads}
}

func (r softDeleteRepository[T]) withPreloads(db *gorm.DB) *gorm.DB {
	for _, p := range r.preloads {
		db = db.Preload(p)
	}
	return db
}

func (r softDeleteRepository[T]) Create(ctx context.Context, entity *T) error {
	return GetDB(ctx, r.db).Create(entity).Error
}

// Update saves the row itself; associations are managed explicitly by each service
func (r softDeleteRepository[T]) Update(ctx context.Context, entity *T) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(entity).Error
}

func (r softDeleteRepository[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := r.withPreloads(GetDB(ctx, r.db)).First(&entity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r softDeleteRepository[T]) FindWithTrashed(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := r.withPreloads(GetDB(ctx, r.db).Unscoped()).First(&entity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// lockByID loads a row with a FOR UPDATE lock inside the current transaction
func (r softDeleteRepository[T]) lockByID(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	if err := forUpdate(GetDB(ctx, r.db)).First(&entity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r softDeleteRepository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	return rowsOrNotFound(GetDB(ctx, r.db).Where("id = ?", id).Delete(new(T)))
}

func (r softDeleteRepository[T]) ForceDelete(ctx context.Context, id uuid.UUID) error {
	return rowsOrNotFound(GetDB(ctx, r.db).Unscoped().Where("id = ?", id).Delete(new(T)))
}

func (r softDeleteRepository[T]) Restore(ctx context.Context, id uuid.UUID) error {
	return rowsOrNotFound(GetDB(ctx, r.db).Unscoped().Model(new(T)).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil))
}

// slugExists probes every row, soft-deleted ones included
func (r softDeleteRepository[T]) slugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := GetDB(ctx, r.db).Unscoped().Model(new(T)).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// list counts and fetches one page; a zero limit returns every matching row
func (r softDeleteRepository[T]) list(ctx context.Context, p pagination.Params, order string, scopes ...func(*gorm.DB) *gorm.DB) ([]T, int64, error) {
	var (
		rows  []T
		total int64
	)
	scopes = append(scopes, Trashed(p.Trashed))

	if err := GetDB(ctx, r.db).Model(new(T)).Scopes(scopes...).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.withPreloads(GetDB(ctx, r.db).Model(new(T))).Scopes(scopes...).Order(order)
	if p.Limit > 0 {
		q = q.Offset(p.Offset).Limit(p.Limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func rowsOrNotFound(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Trashed applies the soft-delete visibility requested by ?trashed=
func Trashed(mode string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch mode {
		case pagination.TrashedWith:
			return db.Unscoped()
		case pagination.TrashedOnly:
			return db.Unscoped().Where("deleted_at IS NOT NULL")
		default:
			return db
		}
	}
}

// Search matches term against cols: full-text or a substring ILIKE on the first
// column on Postgres, a case-insensitive substring LIKE elsewhere.
func Search(term string, cols ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(cols) == 0 {
			return db
		}
		like := "%" + strings.ToLower(term) + "%"

		if db.Dialector.Name() == database.DialectPostgres {
			return db.Where(
				fmt.Sprintf("%s @@ plainto_tsquery('simple', ?) OR %s ILIKE ?", database.TSVector(cols...), cols[0]),
				term, like,
			)
		}

		conds := make([]string, len(cols))
		args := make([]any, len(cols))
		for i, c := range cols {
			conds[i] = fmt.Sprintf("LOWER(%s) LIKE ?", c)
			args[i] = like
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// Equals adds "col = value" when value is non-empty
func Equals(col, value string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if value == "" {
			return db
		}
		return db.Where(col+" = ?", value)
	}
}

// Active filters on is_active when set
func Active(active *bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if active == nil {
			return db
		}
		return db.Where("is_active = ?", *active)
	}
}
