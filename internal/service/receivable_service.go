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

type ReceivableService interface {
	Lifecycle
	List(ctx context.Context, filter repository.FinanceFilter, p pagination.Params) ([]model.Receivable, int64, error)
	Get(ctx context.Context, id string) (*model.Receivable, error)
	Create(ctx context.Context, userID string, req FinanceRequest) (*model.Receivable, error)
	Update(ctx context.Context, userID, id string, req FinanceRequest) (*model.Receivable, error)
	Receive(ctx context.Context, userID, id string, req SettleRequest) (*model.Receivable, error)
	Cancel(ctx context.Context, userID, id string) (*model.Receivable, error)
	Export(ctx context.Context, filter repository.FinanceFilter, p pagination.Params) (*export.Table, error)
}

type receivableService struct {
	lifecycle[model.Receivable]
	receivableRepo repository.ReceivableRepository
	refs           financeRefs
	ledger         ledger
}

func NewReceivableService(
	receivableRepo repository.ReceivableRepository,
	partnerRepo repository.PartnerRepository,
	accountRepo repository.BankAccountRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ChangeNotifier,
) ReceivableService {
	return &receivableService{
		lifecycle: lifecycle[model.Receivable]{
			entity:    "receivable",
			repo:      receivableRepo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			notifier:  notifier,
			name:      func(p *model.Receivable) string { return p.Description },
			beforeDelete: func(_ context.Context, p *model.Receivable) error {
				if p.Status == model.ReceivableStatusReceived {
					return financeStatusError("receivable", p.Status, "delete")
				}
				return nil
			},
		},
		receivableRepo: receivableRepo,
		refs:           financeRefs{partnerRepo: partnerRepo, accountRepo: accountRepo},
		ledger:         ledger{accountRepo: accountRepo},
	}
}

func (s *receivableService) List(ctx context.Context, filter repository.FinanceFilter, p pagination.Params) ([]model.Receivable, int64, error) {
	receivables, total, err := s.receivableRepo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch receivables: %w", err)
	}
	return receivables, total, nil
}

func (s *receivableService) Get(ctx context.Context, id string) (*model.Receivable, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}
	receivable, err := s.receivableRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, s.entity)
	}
	return receivable, nil
}

func (s *receivableService) Create(ctx context.Context, userID string, req FinanceRequest) (*model.Receivable, error) {
	partnerID, accountID, issue, err := s.refs.resolve(ctx, req, model.PartnerTypeSupplier)
	if err != nil {
		return nil, err
	}
	receivable := &model.Receivable{
		PartnerID:      partnerID,
		BankAccountID:  accountID,
		UserID:         actorID(userID),
		Description:    req.Description,
		Amount:         req.Amount.Round(2),
		Status:         model.ReceivableStatusPending,
		IssueDate:      issue,
		DueDate:        req.DueDate,
		DocumentNumber: req.DocumentNumber,
		Notes:          req.Notes,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.receivableRepo.Create(txCtx, receivable); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionCreate, s.entity, receivable.ID, receivable.Description, req)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return receivable, nil
}

// Update edits a pending receivable; settled ones are frozen
func (s *receivableService) Update(ctx context.Context, userID, id string, req FinanceRequest) (*model.Receivable, error) {
	partnerID, accountID, issue, err := s.refs.resolve(ctx, req, model.PartnerTypeSupplier)
	if err != nil {
		return nil, err
	}
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}

	var receivable *model.Receivable
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		receivable, err = s.receivableRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return translate(err, s.entity)
		}
		if receivable.Status != model.ReceivableStatusPending {
			return financeStatusError(s.entity, receivable.Status, "edit")
		}
		receivable.PartnerID = partnerID
		receivable.BankAccountID = accountID
		receivable.Description = req.Description
		receivable.Amount = req.Amount.Round(2)
		receivable.IssueDate = issue
		receivable.DueDate = req.DueDate
		receivable.DocumentNumber = req.DocumentNumber
		receivable.Notes = req.Notes
		if err := s.receivableRepo.Update(txCtx, receivable); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionUpdate, s.entity, receivable.ID, receivable.Description, req)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Receive settles a pending receivable with an input movement on the chosen account
func (s *receivableService) Receive(ctx context.Context, userID, id string, req SettleRequest) (*model.Receivable, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		receivable, err := s.receivableRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return translate(err, s.entity)
		}
		if receivable.Status != model.ReceivableStatusPending {
			return financeStatusError(s.entity, receivable.Status, "receive")
		}
		accountID, err := s.refs.settleAccount(txCtx, req, receivable.BankAccountID)
		if err != nil {
			return err
		}

		receivedAt := effectiveDate(req.PaymentDate, time.Time{})
		if err := s.ledger.post(txCtx, &model.BalanceMovement{
			BankAccountID: accountID,
			Type:          model.MovementInput,
			Amount:        receivable.Amount,
			Description:   "Receivable: " + receivable.Description,
			MovementDate:  receivedAt,
			UserID:        actorID(userID),
			ReceivableID:     &receivable.ID,
		}); err != nil {
			return err
		}

		receivable.Status = model.ReceivableStatusReceived
		receivable.PaymentDate = &receivedAt
		receivable.BankAccountID = &accountID
		if err := s.receivableRepo.Update(txCtx, receivable); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionReceive, s.entity, receivable.ID, receivable.Description, req)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Cancel voids a receivable; a received one gets its input movement reversed first
func (s *receivableService) Cancel(ctx context.Context, userID, id string) (*model.Receivable, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		receivable, err := s.receivableRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return translate(err, s.entity)
		}
		if receivable.Status == model.ReceivableStatusCancelled {
			return financeStatusError(s.entity, receivable.Status, "cancel")
		}
		if receivable.Status == model.ReceivableStatusReceived {
			if err := s.ledger.reverseReferenced(txCtx, "receivable_id", receivable.ID); err != nil {
				return err
			}
		}
		from := receivable.Status
		receivable.Status = model.ReceivableStatusCancelled
		receivable.PaymentDate = nil
		if err := s.receivableRepo.Update(txCtx, receivable); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionCancel, s.entity, receivable.ID, receivable.Description, statusChange{From: from, To: receivable.Status})
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

func (s *receivableService) Export(ctx context.Context, filter repository.FinanceFilter, p pagination.Params) (*export.Table, error) {
	p.Limit, p.Offset = 0, 0
	receivables, _, err := s.receivableRepo.List(ctx, filter, p)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receivables: %w", err)
	}
	return financeTable("receivables", receivables, func(doc model.Receivable) financeRow {
		return financeRow{doc.Description, doc.Partner, doc.BankAccount, doc.Amount, doc.Status, doc.IssueDate, doc.DueDate, doc.PaymentDate, doc.DocumentNumber}
	}), nil
}
