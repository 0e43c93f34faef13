package service

import (
	"context"
	"errors"
	"fmt"

	"erpcrm/internal/model"
	"erpcrm/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lifecycle is the soft delete / permanent delete / restore surface every resource exposes
type Lifecycle interface {
	Delete(ctx context.Context, userID, id string) error
	ForceDelete(ctx context.Context, userID, id string) error
	Restore(ctx context.Context, userID, id string) error
}

// ChangeNotifier is told when data behind the dashboard changed
type ChangeNotifier interface {
	DataChanged(ctx context.Context, source string)
}

type nopNotifier struct{}

func (nopNotifier) DataChanged(context.Context, string) {}

// lifecycle implements Lifecycle for one entity type
type lifecycle[T any] struct {
	entity    string // singular, used in errors and audit rows
	repo      repository.SoftDeleteRepository[T]
	txManager repository.TransactionManager
	audit     auditor
	notifier  ChangeNotifier
	name      func(*T) string
	// beforeDelete may veto a soft delete, e.g. an account with movements
	beforeDelete func(ctx context.Context, entity *T) error
	// beforeForceDelete removes rows the database does not cascade
	beforeForceDelete func(ctx context.Context, id uuid.UUID) error
}

func (l lifecycle[T]) changed(ctx context.Context) {
	if l.notifier != nil {
		l.notifier.DataChanged(ctx, l.entity)
	}
}

func (l lifecycle[T]) Delete(ctx context.Context, userID, id string) error {
	uid, err := parseID(id, l.entity)
	if err != nil {
		return err
	}
	entity, err := l.repo.FindByID(ctx, uid)
	if err != nil {
		return translate(err, l.entity)
	}
	if l.beforeDelete != nil {
		if err := l.beforeDelete(ctx, entity); err != nil {
			return err
		}
	}

	err = l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := l.repo.Delete(txCtx, uid); err != nil {
			return translate(err, l.entity)
		}
		return l.audit.record(txCtx, userID, model.ActionDelete, l.entity, uid, l.name(entity), nil)
	})
	if err != nil {
		return err
	}
	l.changed(ctx)
	return nil
}

func (l lifecycle[T]) ForceDelete(ctx context.Context, userID, id string) error {
	uid, err := parseID(id, l.entity)
	if err != nil {
		return err
	}
	entity, err := l.repo.FindWithTrashed(ctx, uid)
	if err != nil {
		return translate(err, l.entity)
	}

	err = l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if l.beforeForceDelete != nil {
			if err := l.beforeForceDelete(txCtx, uid); err != nil {
				return err
			}
		}
		if err := l.repo.ForceDelete(txCtx, uid); err != nil {
			return translate(err, l.entity)
		}
		return l.audit.record(txCtx, userID, model.ActionForceDelete, l.entity, uid, l.name(entity), nil)
	})
	if err != nil {
		return err
	}
	l.changed(ctx)
	return nil
}

func (l lifecycle[T]) Restore(ctx context.Context, userID, id string) error {
	uid, err := parseID(id, l.entity)
	if err != nil {
		return err
	}
	entity, err := l.repo.FindWithTrashed(ctx, uid)
	if err != nil {
		return translate(err, l.entity)
	}

	err = l.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := l.repo.Restore(txCtx, uid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s is not deleted: %w", l.entity, ErrNotFound)
			}
			return err
		}
		return l.audit.record(txCtx, userID, model.ActionRestore, l.entity, uid, l.name(entity), nil)
	})
	if err != nil {
		return err
	}
	l.changed(ctx)
	return nil
}
