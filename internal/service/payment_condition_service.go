package service

import (
	"context"
	"fmt"

	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"
)

type PaymentConditionRequest struct {
	Name                    string `json:"name" binding:"required,max=255"`
	Installments            int    `json:"installments" binding:"required,min=1,max=120"`
	DaysBetweenInstallments int    `json:"days_between_installments" binding:"min=0,max=365"`
	IsActive                *bool  `json:"is_active"`
}

type PaymentConditionService interface {
	Lifecycle
	List(ctx context.Context, active *bool, p pagination.Params) ([]model.PaymentCondition, int64, error)
	Get(ctx context.Context, id string) (*model.PaymentCondition, error)
	Create(ctx context.Context, userID string, req PaymentConditionRequest) (*model.PaymentCondition, error)
	Update(ctx context.Context, userID, id string, req PaymentConditionRequest) (*model.PaymentCondition, error)
}

type paymentConditionService struct {
	lifecycle[model.PaymentCondition]
	conditionRepo repository.PaymentConditionRepository
}

func NewPaymentConditionService(
	conditionRepo repository.PaymentConditionRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) PaymentConditionService {
	return &paymentConditionService{
		lifecycle: lifecycle[model.PaymentCondition]{
			entity:    "payment_condition",
			repo:      conditionRepo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			name:      func(c *model.PaymentCondition) string { return c.Name },
		},
		conditionRepo: conditionRepo,
	}
}

func validatePaymentCondition(req PaymentConditionRequest) error {
	switch {
	case req.Name == "":
		return fieldError("name", "is required")
	case req.Installments < 1:
		return fieldError("installments", "must be at least 1")
	case req.DaysBetweenInstallments < 0:
		return fieldError("days_between_installments", "must not be negative")
	case req.Installments > 1 && req.DaysBetweenInstallments == 0:
		return fieldError("days_between_installments", "is required when paying in installments")
	}
	return nil
}

func (s *paymentConditionService) List(ctx context.Context, active *bool, p pagination.Params) ([]model.PaymentCondition, int64, error) {
	conditions, total, err := s.conditionRepo.List(ctx, active, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payment conditions: %w", err)
	}
	return conditions, total, nil
}

func (s *paymentConditionService) Get(ctx context.Context, id string) (*model.PaymentCondition, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}
	condition, err := s.conditionRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, s.entity)
	}
	return condition, nil
}

func (s *paymentConditionService) Create(ctx context.Context, userID string, req PaymentConditionRequest) (*model.PaymentCondition, error) {
	if err := validatePaymentCondition(req); err != nil {
		return nil, err
	}
	condition := &model.PaymentCondition{IsActive: true}
	return condition, s.save(ctx, userID, condition, req, model.ActionCreate)
}

func (s *paymentConditionService) Update(ctx context.Context, userID, id string, req PaymentConditionRequest) (*model.PaymentCondition, error) {
	if err := validatePaymentCondition(req); err != nil {
		return nil, err
	}
	condition, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return condition, s.save(ctx, userID, condition, req, model.ActionUpdate)
}

func (s *paymentConditionService) save(ctx context.Context, userID string, c *model.PaymentCondition, req PaymentConditionRequest, action string) error {
	c.Name = req.Name
	c.Installments = req.Installments
	c.DaysBetweenInstallments = req.DaysBetweenInstallments
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if action == model.ActionCreate {
			err = s.conditionRepo.Create(txCtx, c)
		} else {
			err = s.conditionRepo.Update(txCtx, c)
		}
		if err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, action, s.entity, c.ID, c.Name, req)
	})
}
