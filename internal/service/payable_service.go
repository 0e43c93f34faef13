package service

import (
	"context"
	"fmt"
	"time"

	"erpcrm/internal/export"
	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"
)

type PayableService interface {
	Lifecycle
	List(ctx context.Context, filter repository.FinanceFilter, p pagination.Params) ([]model.Payable, int64, error)
	Get(ctx context.Context, id string) (*model.Payable, error)
	Create(ctx context.Context, userID string, req FinanceRequest) (*model.Payable, error)
	Update(ctx context.Context, userID, id string, req FinanceRequest) (*model.Payable, error)
	Pay(ctx context.Context, userID, id string, req SettleRequest) (*model.Payable, error)
	Cancel(ctx context.Context, userID, id string) (*model.Payable, error)
	Export(ctx context.Context, filter repository.FinanceFilter, p pagination.Params) (*export.Table, error)
}

type payableService struct {
	lifecycle[model.Payable]
	payableRepo repository.PayableRepository
	refs        financeRefs
	ledger      ledger
}

func NewPayableService(
	payableRepo repository.PayableRepository,
	partnerRepo repository.PartnerRepository,
	accountRepo repository.BankAccountRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ChangeNotifier,
) PayableService {
	return &payableService{
		lifecycle: lifecycle[model.Payable]{
			entity:    "payable",
			repo:      payableRepo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			notifier:  notifier,
			name:      func(p *model.Payable) string { return p.Description },
			beforeDelete: func(_ context.Context, p *model.Payable) error {
				if p.Status == model.PayableStatusPaid {
					return financeStatusError("payable", p.Status, "delete")
				}
				return nil
			},
		},
		payableRepo: payableRepo,
		refs:        financeRefs{partnerRepo: partnerRepo, accountRepo: accountRepo},
		ledger:      ledger{accountRepo: accountRepo},
	}
}

func (s *payableService) List(ctx context.Context, filter repository.FinanceFilter, p pagination.Params) ([]model.Payable, int64, error) {
	payables, total, err := s.payableRepo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payables: %w", err)
	}
	return payables, total, nil
}

func (s *payableService) Get(ctx context.Context, id string) (*model.Payable, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}
	payable, err := s.payableRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, s.entity)
	}
	return payable, nil
}

func (s *payableService) Create(ctx context.Context, userID string, req FinanceRequest) (*model.Payable, error) {
	partnerID, accountID, issue, err := s.refs.resolve(ctx, req, model.PartnerTypeClient)
	if err != nil {
		return nil, err
	}
	payable := &model.Payable{
		PartnerID:      partnerID,
		BankAccountID:  accountID,
		UserID:         actorID(userID),
		Description:    req.Description,
		Amount:         req.Amount.Round(2),
		Status:         model.PayableStatusOpen,
		IssueDate:      issue,
		DueDate:        req.DueDate,
		DocumentNumber: req.DocumentNumber,
		Notes:          req.Notes,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.payableRepo.Create(txCtx, payable); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionCreate, s.entity, payable.ID, payable.Description, req)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return payable, nil
}

// Update edits an open payable; settled ones are frozen
func (s *payableService) Update(ctx context.Context, userID, id string, req FinanceRequest) (*model.Payable, error) {
	partnerID, accountID, issue, err := s.refs.resolve(ctx, req, model.PartnerTypeClient)
	if err != nil {
		return nil, err
	}
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}

	var payable *model.Payable
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payable, err = s.payableRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return translate(err, s.entity)
		}
		if payable.Status != model.PayableStatusOpen {
			return financeStatusError(s.entity, payable.Status, "edit")
		}
		payable.PartnerID = partnerID
		payable.BankAccountID = accountID
		payable.Description = req.Description
		payable.Amount = req.Amount.Round(2)
		payable.IssueDate = issue
		payable.DueDate = req.DueDate
		payable.DocumentNumber = req.DocumentNumber
		payable.Notes = req.Notes
		if err := s.payableRepo.Update(txCtx, payable); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionUpdate, s.entity, payable.ID, payable.Description, req)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Pay settles an open payable with an output movement on the chosen account
func (s *payableService) Pay(ctx context.Context, userID, id string, req SettleRequest) (*model.Payable, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payable, err := s.payableRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return translate(err, s.entity)
		}
		if payable.Status != model.PayableStatusOpen {
			return financeStatusError(s.entity, payable.Status, "pay")
		}
		accountID, err := s.refs.settleAccount(txCtx, req, payable.BankAccountID)
		if err != nil {
			return err
		}

		paidAt := effectiveDate(req.PaymentDate, time.Time{})
		if err := s.ledger.post(txCtx, &model.BalanceMovement{
			BankAccountID: accountID,
			Type:          model.MovementOutput,
			Amount:        payable.Amount,
			Description:   "Payable: " + payable.Description,
			MovementDate:  paidAt,
			UserID:        actorID(userID),
			PayableID:     &payable.ID,
		}); err != nil {
			return err
		}

		payable.Status = model.PayableStatusPaid
		payable.PaymentDate = &paidAt
		payable.BankAccountID = &accountID
		if err := s.payableRepo.Update(txCtx, payable); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionPay, s.entity, payable.ID, payable.Description, req)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Cancel voids a payable; a paid one gets its output movement reversed first
func (s *payableService) Cancel(ctx context.Context, userID, id string) (*model.Payable, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payable, err := s.payableRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return translate(err, s.entity)
		}
		if payable.Status == model.PayableStatusCancelled {
			return financeStatusError(s.entity, payable.Status, "cancel")
		}
		if payable.Status == model.PayableStatusPaid {
			if err := s.ledger.reverseReferenced(txCtx, "payable_id", payable.ID); err != nil {
				return err
			}
		}
		from := payable.Status
		payable.Status = model.PayableStatusCancelled
		payable.PaymentDate = nil
		if err := s.payableRepo.Update(txCtx, payable); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionCancel, s.entity, payable.ID, payable.Description, statusChange{From: from, To: payable.Status})
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

func (s *payableService) Export(ctx context.Context, filter repository.FinanceFilter, p pagination.Params) (*export.Table, error) {
	p.Limit, p.Offset = 0, 0
	payables, _, err := s.payableRepo.List(ctx, filter, p)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payables: %w", err)
	}
	return financeTable("payables", payables, func(doc model.Payable) financeRow {
		return financeRow{doc.Description, doc.Partner, doc.BankAccount, doc.Amount, doc.Status, doc.IssueDate, doc.DueDate, doc.PaymentDate, doc.DocumentNumber}
	}), nil
}
