package service

import (
	"context"
	"fmt"

	"erpcrm/internal/export"
	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"

	"github.com/shopspring/decimal"
)

type VendorRequest struct {
	Name           string          `json:"name" binding:"required,max=255"`
	Email          string          `json:"email" binding:"omitempty,email"`
	Phone          string          `json:"phone" binding:"max=50"`
	CommissionRate decimal.Decimal `json:"commission_rate" binding:"percent"`
	IsActive       *bool           `json:"is_active"`
}

type VendorService interface {
	Lifecycle
	List(ctx context.Context, filter repository.VendorFilter, p pagination.Params) ([]model.Vendor, int64, error)
	Get(ctx context.Context, id string) (*model.Vendor, error)
	Create(ctx context.Context, userID string, req VendorRequest) (*model.Vendor, error)
	Update(ctx context.Context, userID, id string, req VendorRequest) (*model.Vendor, error)
	Export(ctx context.Context, filter repository.VendorFilter, p pagination.Params) (*export.Table, error)
}

type vendorService struct {
	lifecycle[model.Vendor]
	vendorRepo repository.VendorRepository
}

func NewVendorService(
	vendorRepo repository.VendorRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ChangeNotifier,
) VendorService {
	return &vendorService{
		lifecycle: lifecycle[model.Vendor]{
			entity:    "vendor",
			repo:      vendorRepo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			notifier:  notifier,
			name:      func(v *model.Vendor) string { return v.Name },
		},
		vendorRepo: vendorRepo,
	}
}

var hundred = decimal.NewFromInt(100)

func validatePercent(field string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return fieldError(field, "must be between 0 and 100")
	}
	return nil
}

func (s *vendorService) save(ctx context.Context, userID string, vendor *model.Vendor, req VendorRequest, action string) error {
	if req.Name == "" {
		return fieldError("name", "is required")
	}
	if err := validatePercent("commission_rate", req.CommissionRate); err != nil {
		return err
	}
	vendor.Name = req.Name
	vendor.Email = req.Email
	vendor.Phone = req.Phone
	vendor.CommissionRate = req.CommissionRate.Round(2)
	if req.IsActive != nil {
		vendor.IsActive = *req.IsActive
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if action == model.ActionCreate {
			err = s.vendorRepo.Create(txCtx, vendor)
		} else {
			err = s.vendorRepo.Update(txCtx, vendor)
		}
		if err != nil {
			return translate(err, "vendor")
		}
		return s.audit.record(txCtx, userID, action, "vendor", vendor.ID, vendor.Name, req)
	})
}

func (s *vendorService) List(ctx context.Context, filter repository.VendorFilter, p pagination.Params) ([]model.Vendor, int64, error) {
	vendors, total, err := s.vendorRepo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vendors: %w", err)
	}
	return vendors, total, nil
}

func (s *vendorService) Get(ctx context.Context, id string) (*model.Vendor, error) {
	uid, err := parseID(id, "vendor")
	if err != nil {
		return nil, err
	}
	vendor, err := s.vendorRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, "vendor")
	}
	return vendor, nil
}

func (s *vendorService) Create(ctx context.Context, userID string, req VendorRequest) (*model.Vendor, error) {
	vendor := &model.Vendor{IsActive: true}
	if err := s.save(ctx, userID, vendor, req, model.ActionCreate); err != nil {
		return nil, err
	}
	s.changed(ctx)
	return vendor, nil
}

func (s *vendorService) Update(ctx context.Context, userID, id string, req VendorRequest) (*model.Vendor, error) {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, userID, vendor, req, model.ActionUpdate); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *vendorService) Export(ctx context.Context, filter repository.VendorFilter, p pagination.Params) (*export.Table, error) {
	p.Limit, p.Offset = 0, 0
	vendors, _, err := s.vendorRepo.List(ctx, filter, p)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vendors: %w", err)
	}
	table := &export.Table{
		Name:   "vendors",
		Header: []string{"id", "name", "email", "phone", "commission_rate", "active", "created_at"},
	}
	for _, v := range vendors {
		table.Append(v.ID.String(), v.Name, v.Email, v.Phone, v.CommissionRate.StringFixed(2), export.Bool(v.IsActive), export.Date(&v.CreatedAt))
	}
	return table, nil
}
