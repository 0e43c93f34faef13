package service

import (
	"context"
	"fmt"
	"net/mail"

	"erpcrm/internal/export"
	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
)

type PartnerRequest struct {
	Name          string           `json:"name" binding:"required,max=255"`
	Type          string           `json:"type" binding:"required,oneof=client supplier both"`
	Document      string           `json:"document" binding:"max=50"`
	CompanyName   string           `json:"company_name" binding:"max=255"`
	ContactPerson string           `json:"contact_person" binding:"max=255"`
	Phone         string           `json:"phone" binding:"max=50"`
	Email         string           `json:"email" binding:"omitempty,email"`
	IsActive      *bool            `json:"is_active"`
	Addresses     []AddressPayload `json:"addresses" binding:"dive"`
}

type PartnerService interface {
	Lifecycle
	List(ctx context.Context, filter repository.PartnerFilter, p pagination.Params) ([]model.Partner, int64, error)
	Get(ctx context.Context, id string) (*model.Partner, error)
	Create(ctx context.Context, userID string, req PartnerRequest) (*model.Partner, error)
	Update(ctx context.Context, userID, id string, req PartnerRequest) (*model.Partner, error)
	Export(ctx context.Context, filter repository.PartnerFilter, p pagination.Params) (*export.Table, error)
}

type partnerService struct {
	lifecycle[model.Partner]
	partnerRepo repository.PartnerRepository
	addressRepo repository.AddressRepository
}

func NewPartnerService(
	partnerRepo repository.PartnerRepository,
	addressRepo repository.AddressRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PartnerService {
	return &partnerService{
		lifecycle: lifecycle[model.Partner]{
			entity:    "partner",
			repo:      partnerRepo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			name:      func(p *model.Partner) string { return p.Name },
			beforeForceDelete: func(ctx context.Context, id uuid.UUID) error {
				return addressRepo.DeleteByOwner(ctx, model.AddressOwnerPartner, id)
			},
		},
		partnerRepo: partnerRepo,
		addressRepo: addressRepo,
	}
}

var validPartnerTypes = map[string]bool{
	model.PartnerTypeClient:   true,
	model.PartnerTypeSupplier: true,
	model.PartnerTypeBoth:     true,
}

func validatePartner(req PartnerRequest) error {
	if req.Name == "" {
		return fieldError("name", "is required")
	}
	if !validPartnerTypes[req.Type] {
		return fieldError("type", "must be one of: client, supplier, both")
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return fieldError("email", "must be a valid email address")
		}
	}
	return validateAddresses(req.Addresses)
}

func (s *partnerService) apply(p *model.Partner, req PartnerRequest) {
	p.Name = req.Name
	p.Type = req.Type
	p.Document = req.Document
	p.CompanyName = req.CompanyName
	p.ContactPerson = req.ContactPerson
	p.Phone = req.Phone
	p.Email = req.Email
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

func (s *partnerService) List(ctx context.Context, filter repository.PartnerFilter, p pagination.Params) ([]model.Partner, int64, error) {
	partners, total, err := s.partnerRepo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch partners: %w", err)
	}
	return partners, total, nil
}

func (s *partnerService) Get(ctx context.Context, id string) (*model.Partner, error) {
	uid, err := parseID(id, "partner")
	if err != nil {
		return nil, err
	}
	partner, err := s.partnerRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, "partner")
	}
	return partner, nil
}

func (s *partnerService) Create(ctx context.Context, userID string, req PartnerRequest) (*model.Partner, error) {
	if err := validatePartner(req); err != nil {
		return nil, err
	}

	partner := &model.Partner{IsActive: true}
	s.apply(partner, req)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.partnerRepo.Create(txCtx, partner); err != nil {
			return translate(err, "partner")
		}
		partner.Addresses = toAddressModels(req.Addresses)
		if err := s.addressRepo.Replace(txCtx, model.AddressOwnerPartner, partner.ID, partner.Addresses); err != nil {
			return fmt.Errorf("failed to create addresses: %w", err)
		}
		return s.audit.record(txCtx, userID, model.ActionCreate, "partner", partner.ID, partner.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return partner, nil
}

func (s *partnerService) Update(ctx context.Context, userID, id string, req PartnerRequest) (*model.Partner, error) {
	if err := validatePartner(req); err != nil {
		return nil, err
	}
	partner, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.apply(partner, req)

	// delete-all + re-create keeps the address set identical to the form
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.partnerRepo.Update(txCtx, partner); err != nil {
			return translate(err, "partner")
		}
		partner.Addresses = toAddressModels(req.Addresses)
		if err := s.addressRepo.Replace(txCtx, model.AddressOwnerPartner, partner.ID, partner.Addresses); err != nil {
			return fmt.Errorf("failed to replace addresses: %w", err)
		}
		return s.audit.record(txCtx, userID, model.ActionUpdate, "partner", partner.ID, partner.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return partner, nil
}

func (s *partnerService) Export(ctx context.Context, filter repository.PartnerFilter, p pagination.Params) (*export.Table, error) {
	p.Limit, p.Offset = 0, 0
	partners, _, err := s.partnerRepo.List(ctx, filter, p)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch partners: %w", err)
	}

	table := &export.Table{
		Name:   "partners",
		Header: []string{"id", "name", "type", "document", "company_name", "contact_person", "phone", "email", "active", "billing_address", "created_at"},
	}
	for _, row := range partners {
		table.Append(
			row.ID.String(), row.Name, row.Type, row.Document, row.CompanyName, row.ContactPerson, row.Phone, row.Email,
			export.Bool(row.IsActive),
			formatAddress(defaultAddress(row.Addresses, model.AddressTypeBilling)),
			export.Date(&row.CreatedAt),
		)
	}
	return table, nil
}
