package service

import (
	"context"
	"fmt"
	"time"

	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"

	"github.com/shopspring/decimal"
)

type BankAccountRequest struct {
	Name           string          `json:"name" binding:"required,max=255"`
	Bank           string          `json:"bank" binding:"max=100"`
	Agency         string          `json:"agency" binding:"max=20"`
	AccountNumber  string          `json:"account_number" binding:"max=50"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	IsActive       *bool           `json:"is_active"`
}

type MovementRequest struct {
	Type                 string          `json:"type" binding:"required,oneof=input output transfer"`
	Amount               decimal.Decimal `json:"amount" binding:"money"`
	DestinationAccountID *string         `json:"destination_account_id" binding:"omitempty,uuid"`
	Description          string          `json:"description" binding:"max=255"`
	MovementDate         *time.Time      `json:"movement_date"`
}

type BankAccountService interface {
	Lifecycle
	List(ctx context.Context, active *bool, p pagination.Params) ([]model.BankAccount, int64, error)
	Get(ctx context.Context, id string) (*model.BankAccount, error)
	Create(ctx context.Context, userID string, req BankAccountRequest) (*model.BankAccount, error)
	Update(ctx context.Context, userID, id string, req BankAccountRequest) (*model.BankAccount, error)
	CreateMovement(ctx context.Context, userID, accountID string, req MovementRequest) (*model.BalanceMovement, error)
	ListMovements(ctx context.Context, accountID string, p pagination.Params) ([]model.BalanceMovement, int64, error)
	DeleteMovement(ctx context.Context, userID, movementID string) error
}

type bankAccountService struct {
	lifecycle[model.BankAccount]
	accountRepo repository.BankAccountRepository
	ledger      ledger
}

func NewBankAccountService(
	accountRepo repository.BankAccountRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) BankAccountService {
	return &bankAccountService{
		lifecycle: lifecycle[model.BankAccount]{
			entity:    "bank_account",
			repo:      accountRepo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			name:      func(a *model.BankAccount) string { return a.Name },
			beforeDelete: func(_ context.Context, a *model.BankAccount) error {
				if !a.CurrentBalance.IsZero() {
					return fmt.Errorf("bank account %s still holds a balance of %s: %w", a.Name, a.CurrentBalance.StringFixed(2), ErrConflict)
				}
				return nil
			},
		},
		accountRepo: accountRepo,
		ledger:      ledger{accountRepo: accountRepo},
	}
}

func (s *bankAccountService) List(ctx context.Context, active *bool, p pagination.Params) ([]model.BankAccount, int64, error) {
	accounts, total, err := s.accountRepo.List(ctx, active, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch bank accounts: %w", err)
	}
	return accounts, total, nil
}

func (s *bankAccountService) Get(ctx context.Context, id string) (*model.BankAccount, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}
	account, err := s.accountRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, s.entity)
	}
	return account, nil
}

func (s *bankAccountService) Create(ctx context.Context, userID string, req BankAccountRequest) (*model.BankAccount, error) {
	if req.Name == "" {
		return nil, fieldError("name", "is required")
	}
	account := &model.BankAccount{
		Name:           req.Name,
		Bank:           req.Bank,
		Agency:         req.Agency,
		AccountNumber:  req.AccountNumber,
		InitialBalance: req.InitialBalance.Round(2),
		CurrentBalance: req.InitialBalance.Round(2),
		IsActive:       true,
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.accountRepo.Create(txCtx, account); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionCreate, s.entity, account.ID, account.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Update shifts the current balance by the change in opening balance so
// current = initial + movements keeps holding
func (s *bankAccountService) Update(ctx context.Context, userID, id string, req BankAccountRequest) (*model.BankAccount, error) {
	if req.Name == "" {
		return nil, fieldError("name", "is required")
	}
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}

	var account *model.BankAccount
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		account, err = s.accountRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return translate(err, s.entity)
		}
		initial := req.InitialBalance.Round(2)
		account.CurrentBalance = account.CurrentBalance.Add(initial.Sub(account.InitialBalance))
		account.InitialBalance = initial
		account.Name = req.Name
		account.Bank = req.Bank
		account.Agency = req.Agency
		account.AccountNumber = req.AccountNumber
		if req.IsActive != nil {
			account.IsActive = *req.IsActive
		}
		if err := s.accountRepo.Update(txCtx, account); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionUpdate, s.entity, account.ID, account.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *bankAccountService) CreateMovement(ctx context.Context, userID, accountID string, req MovementRequest) (*model.BalanceMovement, error) {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	destinationID, err := parseOptionalID(req.DestinationAccountID, "destination_account_id")
	if err != nil {
		return nil, err
	}
	if req.Type != model.MovementTransfer {
		destinationID = nil
	}
	movement := &model.BalanceMovement{
		BankAccountID:        account.ID,
		DestinationAccountID: destinationID,
		Type:                 req.Type,
		Amount:               req.Amount,
		Description:          req.Description,
		MovementDate:         effectiveDate(req.MovementDate, time.Time{}),
		UserID:               actorID(userID),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if destinationID != nil {
			if _, err := s.accountRepo.FindByID(txCtx, *destinationID); err != nil {
				return fieldError("destination_account_id", "does not exist")
			}
		}
		if err := s.ledger.post(txCtx, movement); err != nil {
			return err
		}
		return s.audit.record(txCtx, userID, model.ActionMovement, s.entity, account.ID, account.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *bankAccountService) ListMovements(ctx context.Context, accountID string, p pagination.Params) ([]model.BalanceMovement, int64, error) {
	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}
	movements, total, err := s.accountRepo.ListMovements(ctx, account.ID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch balance movements: %w", err)
	}
	return movements, total, nil
}

// DeleteMovement reverses a manual movement. Movements posted by a payable or
// receivable are undone by cancelling that document instead.
func (s *bankAccountService) DeleteMovement(ctx context.Context, userID, movementID string) error {
	uid, err := parseID(movementID, "balance_movement")
	if err != nil {
		return err
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		movement, err := s.accountRepo.FindMovement(txCtx, uid)
		if err != nil {
			return translate(err, "balance_movement")
		}
		if movement.PayableID != nil || movement.ReceivableID != nil {
			return fmt.Errorf("movement belongs to a payable or receivable, cancel it instead: %w", ErrConflict)
		}
		if err := s.ledger.reverse(txCtx, movement); err != nil {
			return err
		}
		return s.audit.record(txCtx, userID, model.ActionDelete, "balance_movement", movement.ID, movement.Description, movement)
	})
}
