package service

import (
	"context"
	"fmt"

	"erpcrm/internal/export"
	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	CategoryID     *string          `json:"category_id" binding:"omitempty,uuid"`
	Name           string           `json:"name" binding:"required,max=255"`
	Slug           string           `json:"slug" binding:"max=255"`
	SKU            string           `json:"sku" binding:"max=100"`
	Description    string           `json:"description"`
	CostPrice      decimal.Decimal  `json:"cost_price" binding:"money"`
	SalePrice      decimal.Decimal  `json:"sale_price" binding:"money"`
	Stock          int              `json:"stock" binding:"min=0"`
	MinStock       int              `json:"min_stock" binding:"min=0"`
	CommissionRate *decimal.Decimal `json:"commission_rate" binding:"omitempty,percent"`
	IsActive       *bool            `json:"is_active"`
}

type ProductService interface {
	Lifecycle
	List(ctx context.Context, filter repository.ProductFilter, p pagination.Params) ([]model.Product, int64, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, userID string, req ProductRequest) (*model.Product, error)
	Update(ctx context.Context, userID, id string, req ProductRequest) (*model.Product, error)
	StockMovements(ctx context.Context, id string, p pagination.Params) ([]model.StockMovement, int64, error)
	Export(ctx context.Context, filter repository.ProductFilter, p pagination.Params) (*export.Table, error)
}

type productService struct {
	lifecycle[model.Product]
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	stockRepo    repository.StockMovementRepository
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	stockRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ChangeNotifier,
) ProductService {
	return &productService{
		lifecycle: lifecycle[model.Product]{
			entity:    "product",
			repo:      productRepo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			notifier:  notifier,
			name:      func(p *model.Product) string { return p.Name },
		},
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		stockRepo:    stockRepo,
	}
}

func (s *productService) validate(ctx context.Context, req ProductRequest) (*uuid.UUID, error) {
	if req.Name == "" {
		return nil, fieldError("name", "is required")
	}
	if req.CostPrice.IsNegative() {
		return nil, fieldError("cost_price", "must not be negative")
	}
	if req.SalePrice.IsNegative() {
		return nil, fieldError("sale_price", "must not be negative")
	}
	if req.Stock < 0 {
		return nil, fieldError("stock", "must not be negative")
	}
	if req.MinStock < 0 {
		return nil, fieldError("min_stock", "must not be negative")
	}
	if req.CommissionRate != nil {
		if err := validatePercent("commission_rate", *req.CommissionRate); err != nil {
			return nil, err
		}
	}
	categoryID, err := parseOptionalID(req.CategoryID, "category_id")
	if err != nil {
		return nil, err
	}
	if categoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *categoryID); err != nil {
			return nil, fieldError("category_id", "does not exist")
		}
	}
	return categoryID, nil
}

func (s *productService) apply(p *model.Product, categoryID *uuid.UUID, req ProductRequest) {
	p.CategoryID = categoryID
	p.Name = req.Name
	p.SKU = req.SKU
	p.Description = req.Description
	p.CostPrice = req.CostPrice.Round(2)
	p.SalePrice = req.SalePrice.Round(2)
	p.MinStock = req.MinStock
	p.CommissionRate = req.CommissionRate
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter, p pagination.Params) ([]model.Product, int64, error) {
	products, total, err := s.productRepo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, total, nil
}

func (s *productService) Get(ctx context.Context, id string) (*model.Product, error) {
	uid, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, "product")
	}
	return product, nil
}

// Create sets the opening stock; afterwards stock only moves through orders
func (s *productService) Create(ctx context.Context, userID string, req ProductRequest) (*model.Product, error) {
	categoryID, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}
	product := &model.Product{IsActive: true, Stock: req.Stock}
	s.apply(product, categoryID, req)

	assign := func(ctx context.Context) (bool, error) {
		slug, auto, err := resolveSlug(ctx, req.Slug, product.Name, "product", s.productRepo.SlugExists, uuid.Nil)
		if err != nil {
			return false, err
		}
		product.Slug = slug
		return auto, nil
	}
	write := func(ctx context.Context) error {
		return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.productRepo.Create(txCtx, product); err != nil {
				return err
			}
			if product.Stock > 0 {
				if err := s.stockRepo.Create(txCtx, &model.StockMovement{
					ProductID:  product.ID,
					Type:       model.StockIn,
					Quantity:   product.Stock,
					StockAfter: product.Stock,
					UserID:     actorID(userID),
				}); err != nil {
					return fmt.Errorf("failed to record opening stock: %w", err)
				}
			}
			return s.audit.record(txCtx, userID, model.ActionCreate, "product", product.ID, product.Name, req)
		})
	}
	if err := writeWithSlug(ctx, assign, write); err != nil {
		return nil, translate(err, "product")
	}
	s.changed(ctx)
	return product, nil
}

// Update keeps the slug unless a new one is supplied; stock is not editable here
func (s *productService) Update(ctx context.Context, userID, id string, req ProductRequest) (*model.Product, error) {
	categoryID, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.apply(product, categoryID, req)

	if req.Slug != "" {
		slug, _, err := resolveSlug(ctx, req.Slug, product.Name, "product", s.productRepo.SlugExists, product.ID)
		if err != nil {
			return nil, err
		}
		product.Slug = slug
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return translate(err, "product")
		}
		return s.audit.record(txCtx, userID, model.ActionUpdate, "product", product.ID, product.Name, req)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return product, nil
}

func (s *productService) StockMovements(ctx context.Context, id string, p pagination.Params) ([]model.StockMovement, int64, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return s.stockRepo.ListByProduct(ctx, product.ID, p)
}

func (s *productService) Export(ctx context.Context, filter repository.ProductFilter, p pagination.Params) (*export.Table, error) {
	p.Limit, p.Offset = 0, 0
	products, _, err := s.productRepo.List(ctx, filter, p)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	table := &export.Table{
		Name:   "products",
		Header: []string{"id", "name", "slug", "sku", "category", "cost_price", "sale_price", "stock", "min_stock", "commission_rate", "active"},
	}
	for _, row := range products {
		category, rate := "", ""
		if row.Category != nil {
			category = row.Category.Name
		}
		if row.CommissionRate != nil {
			rate = row.CommissionRate.StringFixed(2)
		}
		table.Append(
			row.ID.String(), row.Name, row.Slug, row.SKU, category,
			export.Money(row.CostPrice), export.Money(row.SalePrice),
			fmt.Sprint(row.Stock), fmt.Sprint(row.MinStock), rate, export.Bool(row.IsActive),
		)
	}
	return table, nil
}
