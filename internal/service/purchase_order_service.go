package service

import (
	"context"
	"fmt"
	"time"

	"erpcrm/internal/export"
	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseOrderRequest struct {
	PartnerID          string             `json:"partner_id" binding:"required,uuid"`
	PaymentConditionID *string            `json:"payment_condition_id" binding:"omitempty,uuid"`
	OrderDate          *time.Time         `json:"order_date"`
	ExpectedDate       *time.Time         `json:"expected_date"`
	Discount           decimal.Decimal    `json:"discount" binding:"money"`
	ShippingCost       decimal.Decimal    `json:"shipping_cost" binding:"money"`
	Notes              string             `json:"notes"`
	Items              []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type PurchaseOrderService interface {
	Lifecycle
	List(ctx context.Context, filter repository.OrderFilter, p pagination.Params) ([]model.PurchaseOrder, int64, error)
	Get(ctx context.Context, id string) (*model.PurchaseOrder, error)
	Create(ctx context.Context, userID string, req PurchaseOrderRequest) (*model.PurchaseOrder, error)
	Update(ctx context.Context, userID, id string, req PurchaseOrderRequest) (*model.PurchaseOrder, error)
	ChangeStatus(ctx context.Context, userID, id, status string) (*model.PurchaseOrder, error)
	Export(ctx context.Context, filter repository.OrderFilter, p pagination.Params) (*export.Table, error)
}

type purchaseOrderService struct {
	lifecycle[model.PurchaseOrder]
	orderRepo     repository.PurchaseOrderRepository
	partnerRepo   repository.PartnerRepository
	conditionRepo repository.PaymentConditionRepository
	productRepo   repository.ProductRepository
	stock         stockMover
}

func NewPurchaseOrderService(
	orderRepo repository.PurchaseOrderRepository,
	partnerRepo repository.PartnerRepository,
	conditionRepo repository.PaymentConditionRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ChangeNotifier,
) PurchaseOrderService {
	return &purchaseOrderService{
		lifecycle: lifecycle[model.PurchaseOrder]{
			entity:    "purchase_order",
			repo:      orderRepo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			notifier:  notifier,
			name:      func(o *model.PurchaseOrder) string { return o.Code },
		},
		orderRepo:     orderRepo,
		partnerRepo:   partnerRepo,
		conditionRepo: conditionRepo,
		productRepo:   productRepo,
		stock:         stockMover{productRepo: productRepo, stockRepo: stockRepo},
	}
}

func (s *purchaseOrderService) prepare(ctx context.Context, order *model.PurchaseOrder, req PurchaseOrderRequest) error {
	if err := validateOrderAmounts(req.Discount, req.ShippingCost, "shipping_cost"); err != nil {
		return err
	}
	if len(req.Items) == 0 {
		return fieldError("items", "at least one item is required")
	}

	partnerID, err := uuid.Parse(req.PartnerID)
	if err != nil {
		return fieldError("partner_id", "must be a valid id")
	}
	partner, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return fieldError("partner_id", "does not exist")
	}
	if partner.Type == model.PartnerTypeClient {
		return fieldError("partner_id", "must be a supplier")
	}

	conditionID, err := parseOptionalID(req.PaymentConditionID, "payment_condition_id")
	if err != nil {
		return err
	}
	if conditionID != nil {
		if _, err := s.conditionRepo.FindByID(ctx, *conditionID); err != nil {
			return fieldError("payment_condition_id", "does not exist")
		}
	}

	date := effectiveDate(req.OrderDate, order.OrderDate)
	if req.ExpectedDate != nil && req.ExpectedDate.Before(date) {
		return fieldError("expected_date", "must not be before the order date")
	}

	items := make([]model.ItemPurchaseOrder, 0, len(req.Items))
	subtotal := decimal.Zero
	for i, r := range req.Items {
		field := fmt.Sprintf("items.%d", i)
		if r.Quantity < 1 {
			return fieldError(field+".quantity", "must be at least 1")
		}
		productID, err := uuid.Parse(r.ProductID)
		if err != nil {
			return fieldError(field+".product_id", "must be a valid id")
		}
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return fieldError(field+".product_id", "does not exist")
		}
		unitPrice := product.CostPrice
		if r.UnitPrice != nil {
			if r.UnitPrice.IsNegative() {
				return fieldError(field+".unit_price", "must not be negative")
			}
			unitPrice = r.UnitPrice.Round(2)
		}
		line := unitPrice.Mul(decimal.NewFromInt(int64(r.Quantity))).Round(2)
		subtotal = subtotal.Add(line)
		items = append(items, model.ItemPurchaseOrder{
			ProductID: productID,
			Quantity:  r.Quantity,
			UnitPrice: unitPrice,
			Subtotal:  line,
		})
	}
	total, err := orderTotal(subtotal, req.Discount, req.ShippingCost)
	if err != nil {
		return err
	}

	order.PartnerID = partnerID
	order.PaymentConditionID = conditionID
	order.OrderDate = date
	order.ExpectedDate = req.ExpectedDate
	order.Discount = req.Discount.Round(2)
	order.ShippingCost = req.ShippingCost.Round(2)
	order.Notes = req.Notes
	order.Subtotal = subtotal.Round(2)
	order.Total = total
	order.Items = items
	return nil
}

func (s *purchaseOrderService) List(ctx context.Context, filter repository.OrderFilter, p pagination.Params) ([]model.PurchaseOrder, int64, error) {
	orders, total, err := s.orderRepo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchase orders: %w", err)
	}
	return orders, total, nil
}

func (s *purchaseOrderService) Get(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, translate(err, s.entity)
	}
	return order, nil
}

func (s *purchaseOrderService) Create(ctx context.Context, userID string, req PurchaseOrderRequest) (*model.PurchaseOrder, error) {
	order := &model.PurchaseOrder{
		Code:   newOrderCode("PO"),
		Status: model.PurchaseStatusPending,
		UserID: actorID(userID),
	}
	if err := s.prepare(ctx, order, req); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionCreate, s.entity, order.ID, order.Code, req)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return s.Get(ctx, order.ID.String())
}

func (s *purchaseOrderService) Update(ctx context.Context, userID, id string, req PurchaseOrderRequest) (*model.PurchaseOrder, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return translate(err, s.entity)
		}
		if order.Status != model.PurchaseStatusPending {
			return fmt.Errorf("%s orders cannot be edited: %w", order.Status, ErrInvalidTransition)
		}
		if err := s.prepare(txCtx, order, req); err != nil {
			return err
		}
		items := order.Items
		order.Items = nil
		if err := s.orderRepo.Update(txCtx, order); err != nil {
			return translate(err, s.entity)
		}
		if err := s.orderRepo.ReplaceItems(txCtx, order.ID, items); err != nil {
			return fmt.Errorf("failed to replace order items: %w", err)
		}
		return s.audit.record(txCtx, userID, model.ActionUpdate, s.entity, order.ID, order.Code, req)
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// ChangeStatus receiving puts the items into stock; cancelling a received order takes them out again
func (s *purchaseOrderService) ChangeStatus(ctx context.Context, userID, id, status string) (*model.PurchaseOrder, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return translate(err, s.entity)
		}
		from := order.Status
		if err := purchaseTransitions.check(from, status); err != nil {
			return err
		}

		lines := make([]stockLine, 0, len(order.Items))
		for _, item := range order.Items {
			lines = append(lines, stockLine{productID: item.ProductID, quantity: item.Quantity})
		}
		switch {
		case status == model.PurchaseStatusReceived:
			err = s.stock.move(txCtx, userID, model.StockIn, model.StockRefPurchaseOrder, order.ID, lines)
		case from == model.PurchaseStatusReceived && status == model.PurchaseStatusCancelled:
			err = s.stock.move(txCtx, userID, model.StockOut, model.StockRefPurchaseOrder, order.ID, lines)
		}
		if err != nil {
			return err
		}

		if err := s.orderRepo.UpdateStatus(txCtx, order.ID, status); err != nil {
			return translate(err, s.entity)
		}
		return s.audit.record(txCtx, userID, model.ActionStatus, s.entity, order.ID, order.Code, statusChange{From: from, To: status})
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

func (s *purchaseOrderService) Export(ctx context.Context, filter repository.OrderFilter, p pagination.Params) (*export.Table, error) {
	p.Limit, p.Offset = 0, 0
	orders, _, err := s.orderRepo.List(ctx, filter, p)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch purchase orders: %w", err)
	}
	table := &export.Table{
		Name:   "purchase_orders",
		Header: []string{"code", "order_date", "expected_date", "status", "supplier", "subtotal", "discount", "shipping_cost", "total", "items"},
	}
	for _, row := range orders {
		supplier := ""
		if row.Partner != nil {
			supplier = row.Partner.Name
		}
		table.Append(
			row.Code, export.Date(&row.OrderDate), export.Date(row.ExpectedDate), row.Status, supplier,
			export.Money(row.Subtotal), export.Money(row.Discount), export.Money(row.ShippingCost),
			export.Money(row.Total), fmt.Sprint(len(row.Items)),
		)
	}
	return table, nil
}
