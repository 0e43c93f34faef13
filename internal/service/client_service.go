package service

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"erpcrm/internal/export"
	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
)

type ClientRequest struct {
	Name      string           `json:"name" binding:"required,max=255"`
	Document  string           `json:"document" binding:"max=50"`
	Email     string           `json:"email" binding:"omitempty,email"`
	Phone     string           `json:"phone" binding:"max=50"`
	BirthDate *time.Time       `json:"birth_date"`
	Notes     string           `json:"notes"`
	IsActive  *bool            `json:"is_active"`
	Addresses []AddressPayload `json:"addresses" binding:"dive"`
}

type ClientService interface {
	Lifecycle
	List(ctx context.Context, filter repository.ClientFilter, p pagination.Params) ([]model.Client, int64, error)
	Get(ctx context.Context, id string) (*model.Client, error)
	Create(ctx context.Context, userID string, req ClientRequest) (*model.Client, error)
	Update(ctx context.Context, userID, id string, req ClientRequest) (*model.Client, error)
	Export(ctx context.Context, filter repository.ClientFilter, p pagination.Params) (*export.Table, error)
}

type clientService struct {
	lifecycle[model.Client]
	clientRepo  repository.ClientRepository
	addressRepo repository.AddressRepository
}

func NewClientService(
	clientRepo repository.ClientRepository,
	addressRepo repository.AddressRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ChangeNotifier,
) ClientService {
	return &clientService{
		lifecycle: lifecycle[model.Client]{
			entity:    "client",
			repo:      clientRepo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			notifier:  notifier,
			name:      func(c *model.Client) string { return c.Name },
			beforeForceDelete: func(ctx context.Context, id uuid.UUID) error {
				return addressRepo.DeleteByOwner(ctx, model.AddressOwnerClient, id)
			},
		},
		clientRepo:  clientRepo,
		addressRepo: addressRepo,
	}
}

func validateClient(req ClientRequest) error {
	if req.Name == "" {
		return fieldError("name", "is required")
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return fieldError("email", "must be a valid email address")
		}
	}
	if req.BirthDate != nil && req.BirthDate.After(time.Now()) {
		return fieldError("birth_date", "must be in the past")
	}
	return validateAddresses(req.Addresses)
}

func (s *clientService) apply(c *model.Client, req ClientRequest) {
	c.Name = req.Name
	c.Document = req.Document
	c.Email = req.Email
	c.Phone = req.Phone
	c.BirthDate = req.BirthDate
	c.Notes = req.Notes
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
}

func (s *clientService) List(ctx context.Context, filter repository.ClientFilter, p pagination.Params) ([]model.Client, int64, error) {
	clients, total, err := s.clientRepo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch clients: %w", err)
	}
	return clients, total, nil
}

func (s *clientService) Get(ctx context.Context, id string) (*model.Client, error) {
	uid, err := parseID(id, "client")
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, "client")
	}
	return client, nil
}

func (s *clientService) Create(ctx context.Context, userID string, req ClientRequest) (*model.Client, error) {
	if err := validateClient(req); err != nil {
		return nil, err
	}
	client := &model.Client{IsActive: true}
	s.apply(client, req)

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clientRepo.Create(txCtx, client); err != nil {
			return translate(err, "client")
		}
		client.Addresses = toAddressModels(req.Addresses)
		if err := s.addressRepo.Replace(txCtx, model.AddressOwnerClient, client.ID, client.Addresses); err != nil {
			return fmt.Errorf("failed to create addresses: %w", err)
		}
		return s.audit.record(txCtx, userID, model.ActionCreate, "client", client.ID, client.Name, req)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return client, nil
}

func (s *clientService) Update(ctx context.Context, userID, id string, req ClientRequest) (*model.Client, error) {
	if err := validateClient(req); err != nil {
		return nil, err
	}
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.apply(client, req)

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clientRepo.Update(txCtx, client); err != nil {
			return translate(err, "client")
		}
		client.Addresses = toAddressModels(req.Addresses)
		if err := s.addressRepo.Replace(txCtx, model.AddressOwnerClient, client.ID, client.Addresses); err != nil {
			return fmt.Errorf("failed to replace addresses: %w", err)
		}
		return s.audit.record(txCtx, userID, model.ActionUpdate, "client", client.ID, client.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) Export(ctx context.Context, filter repository.ClientFilter, p pagination.Params) (*export.Table, error) {
	p.Limit, p.Offset = 0, 0
	clients, _, err := s.clientRepo.List(ctx, filter, p)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clients: %w", err)
	}

	table := &export.Table{
		Name:   "clients",
		Header: []string{"id", "name", "document", "email", "phone", "birth_date", "active", "address", "created_at"},
	}
	for _, c := range clients {
		addr := defaultAddress(c.Addresses, model.AddressTypeBilling)
		if addr == nil {
			addr = defaultAddress(c.Addresses, model.AddressTypeShipping)
		}
		table.Append(
			c.ID.String(), c.Name, c.Document, c.Email, c.Phone,
			export.Date(c.BirthDate), export.Bool(c.IsActive), formatAddress(addr), export.Date(&c.CreatedAt),
		)
	}
	return table, nil
}
