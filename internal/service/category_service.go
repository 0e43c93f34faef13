package service

import (
	"context"
	"fmt"

	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
)

type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Slug        string `json:"slug" binding:"max=255"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

type CategoryService interface {
	Lifecycle
	List(ctx context.Context, filter repository.CategoryFilter, p pagination.Params) ([]model.ProductCategory, int64, error)
	Get(ctx context.Context, id string) (*model.ProductCategory, error)
	Create(ctx context.Context, userID string, req CategoryRequest) (*model.ProductCategory, error)
	Update(ctx context.Context, userID, id string, req CategoryRequest) (*model.ProductCategory, error)
}

type categoryService struct {
	lifecycle[model.ProductCategory]
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CategoryService {
	return &categoryService{
		lifecycle: lifecycle[model.ProductCategory]{
			entity:    "category",
			repo:      categoryRepo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			name:      func(c *model.ProductCategory) string { return c.Name },
		},
		categoryRepo: categoryRepo,
	}
}

func (s *categoryService) List(ctx context.Context, filter repository.CategoryFilter, p pagination.Params) ([]model.ProductCategory, int64, error) {
	categories, total, err := s.categoryRepo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, total, nil
}

func (s *categoryService) Get(ctx context.Context, id string) (*model.ProductCategory, error) {
	uid, err := parseID(id, "category")
	if err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, "category")
	}
	return category, nil
}

func (s *categoryService) Create(ctx context.Context, userID string, req CategoryRequest) (*model.ProductCategory, error) {
	if req.Name == "" {
		return nil, fieldError("name", "is required")
	}
	category := &model.ProductCategory{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := s.write(ctx, userID, category, req, model.ActionCreate); err != nil {
		return nil, err
	}
	return category, nil
}

// Update re-derives the slug from the new name unless one is supplied
func (s *categoryService) Update(ctx context.Context, userID, id string, req CategoryRequest) (*model.ProductCategory, error) {
	if req.Name == "" {
		return nil, fieldError("name", "is required")
	}
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	category.Name = req.Name
	category.Description = req.Description
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := s.write(ctx, userID, category, req, model.ActionUpdate); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) write(ctx context.Context, userID string, category *model.ProductCategory, req CategoryRequest, action string) error {
	assign := func(ctx context.Context) (bool, error) {
		slug, auto, err := resolveSlug(ctx, req.Slug, category.Name, "category", s.categoryRepo.SlugExists, category.ID)
		if err != nil {
			return false, err
		}
		category.Slug = slug
		return auto, nil
	}
	write := func(ctx context.Context) error {
		return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			if action == model.ActionCreate {
				err = s.categoryRepo.Create(txCtx, category)
			} else {
				err = s.categoryRepo.Update(txCtx, category)
			}
			if err != nil {
				return err
			}
			return s.audit.record(txCtx, userID, action, "category", category.ID, category.Name, req)
		})
	}

	created := category.ID == uuid.Nil
	if err := writeWithSlug(ctx, assign, write); err != nil {
		if created {
			category.ID = uuid.Nil
		}
		return translate(err, "category")
	}
	return nil
}
