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

type SalesOrderRequest struct {
	ClientID           string             `json:"client_id" binding:"required,uuid"`
	VendorID           *string            `json:"vendor_id" binding:"omitempty,uuid"`
	PaymentConditionID *string            `json:"payment_condition_id" binding:"omitempty,uuid"`
	OrderDate          *time.Time         `json:"order_date"`
	Discount           decimal.Decimal    `json:"discount" binding:"money"`
	DeliveryCost       decimal.Decimal    `json:"delivery_cost" binding:"money"`
	Notes              string             `json:"notes"`
	Items              []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type SalesOrderService interface {
	Lifecycle
	List(ctx context.Context, filter repository.OrderFilter, p pagination.Params) ([]model.SalesOrder, int64, error)
	Get(ctx context.Context, id string) (*model.SalesOrder, error)
	Create(ctx context.Context, userID string, req SalesOrderRequest) (*model.SalesOrder, error)
	Update(ctx context.Context, userID, id string, req SalesOrderRequest) (*model.SalesOrder, error)
	ChangeStatus(ctx context.Context, userID, id, status string) (*model.SalesOrder, error)
	Export(ctx context.Context, filter repository.OrderFilter, p pagination.Params) (*export.Table, error)
}

type salesOrderService struct {
	lifecycle[model.SalesOrder]
	orderRepo     repository.SalesOrderRepository
	clientRepo    repository.ClientRepository
	vendorRepo    repository.VendorRepository
	conditionRepo repository.PaymentConditionRepository
	productRepo   repository.ProductRepository
	stock         stockMover
}

func NewSalesOrderService(
	orderRepo repository.SalesOrderRepository,
	clientRepo repository.ClientRepository,
	vendorRepo repository.VendorRepository,
	conditionRepo repository.PaymentConditionRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier ChangeNotifier,
) SalesOrderService {
	return &salesOrderService{
		lifecycle: lifecycle[model.SalesOrder]{
			entity:    "sales_order",
			repo:      orderRepo,
			txManager: txManager,
			audit:     auditor{repo: auditRepo},
			notifier:  notifier,
			name:      func(o *model.SalesOrder) string { return o.Code },
		},
		orderRepo:     orderRepo,
		clientRepo:    clientRepo,
		vendorRepo:    vendorRepo,
		conditionRepo: conditionRepo,
		productRepo:   productRepo,
		stock:         stockMover{productRepo: productRepo, stockRepo: stockRepo},
	}
}

// prepare resolves the references of req and prices its lines onto order
func (s *salesOrderService) prepare(ctx context.Context, order *model.SalesOrder, req SalesOrderRequest) error {
	if err := validateOrderAmounts(req.Discount, req.DeliveryCost, "delivery_cost"); err != nil {
		return err
	}
	if len(req.Items) == 0 {
		return fieldError("items", "at least one item is required")
	}

	clientID, err := parseOptionalID(&req.ClientID, "client_id")
	if err != nil {
		return err
	}
	if clientID == nil {
		return fieldError("client_id", "is required")
	}
	if _, err := s.clientRepo.FindByID(ctx, *clientID); err != nil {
		return fieldError("client_id", "does not exist")
	}

	vendorID, err := parseOptionalID(req.VendorID, "vendor_id")
	if err != nil {
		return err
	}
	var vendor *model.Vendor
	if vendorID != nil {
		if vendor, err = s.vendorRepo.FindByID(ctx, *vendorID); err != nil {
			return fieldError("vendor_id", "does not exist")
		}
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

	items, err := s.priceItems(ctx, vendor, req.Items)
	if err != nil {
		return err
	}

	subtotal, productCost, commission := decimal.Zero, decimal.Zero, decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.Subtotal)
		productCost = productCost.Add(item.UnitCost.Mul(qty))
		commission = commission.Add(item.CommissionAmount)
	}
	total, err := orderTotal(subtotal, req.Discount, req.DeliveryCost)
	if err != nil {
		return err
	}

	order.ClientID = *clientID
	order.VendorID = vendorID
	order.PaymentConditionID = conditionID
	order.OrderDate = effectiveDate(req.OrderDate, order.OrderDate)
	order.Discount = req.Discount.Round(2)
	order.DeliveryCost = req.DeliveryCost.Round(2)
	order.Notes = req.Notes
	order.Subtotal = subtotal.Round(2)
	order.ProductCost = productCost.Round(2)
	order.Commission = commission.Round(2)
	order.Total = total
	order.Items = items
	return nil
}

// priceItems snapshots unit cost and commission for every line. The commission
// rate is the product's own rate, else the vendor's rate.
func (s *salesOrderService) priceItems(ctx context.Context, vendor *model.Vendor, reqs []OrderItemRequest) ([]model.ItemSalesOrder, error) {
	items := make([]model.ItemSalesOrder, 0, len(reqs))
	for i, r := range reqs {
		field := fmt.Sprintf("items.%d", i)
		if r.Quantity < 1 {
			return nil, fieldError(field+".quantity", "must be at least 1")
		}
		productID, err := uuid.Parse(r.ProductID)
		if err != nil {
			return nil, fieldError(field+".product_id", "must be a valid id")
		}
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return nil, fieldError(field+".product_id", "does not exist")
		}

		unitPrice := product.SalePrice
		if r.UnitPrice != nil {
			if r.UnitPrice.IsNegative() {
				return nil, fieldError(field+".unit_price", "must not be negative")
			}
			unitPrice = r.UnitPrice.Round(2)
		}
		rate := decimal.Zero
		switch {
		case product.CommissionRate != nil:
			rate = *product.CommissionRate
		case vendor != nil:
			rate = vendor.CommissionRate
		}

		subtotal := unitPrice.Mul(decimal.NewFromInt(int64(r.Quantity))).Round(2)
		items = append(items, model.ItemSalesOrder{
			ProductID:        productID,
			Quantity:         r.Quantity,
			UnitPrice:        unitPrice,
			UnitCost:         product.CostPrice,
			CommissionRate:   rate,
			CommissionAmount: subtotal.Mul(rate).Div(hundred).Round(2),
			Subtotal:         subtotal,
		})
	}
	return items, nil
}

func (s *salesOrderService) List(ctx context.Context, filter repository.OrderFilter, p pagination.Params) ([]model.SalesOrder, int64, error) {
	orders, total, err := s.orderRepo.List(ctx, filter, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch sales orders: %w", err)
	}
	return orders, total, nil
}

func (s *salesOrderService) Get(ctx context.Context, id string) (*model.SalesOrder, error) {
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

func (s *salesOrderService) Create(ctx context.Context, userID string, req SalesOrderRequest) (*model.SalesOrder, error) {
	order := &model.SalesOrder{
		Code:   newOrderCode("SO"),
		Status: model.SalesStatusPending,
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

// Update replaces header and lines of an order that has not been completed or cancelled
func (s *salesOrderService) Update(ctx context.Context, userID, id string, req SalesOrderRequest) (*model.SalesOrder, error) {
	uid, err := parseID(id, s.entity)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orderRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return translate(err, s.entity)
		}
		if order.Status == model.SalesStatusCompleted || order.Status == model.SalesStatusCancelled {
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

// ChangeStatus moves an order through its workflow. Completing takes the items
// out of stock; cancelling a completed order puts them back.
func (s *salesOrderService) ChangeStatus(ctx context.Context, userID, id, status string) (*model.SalesOrder, error) {
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
		if err := salesTransitions.check(from, status); err != nil {
			return err
		}

		lines := make([]stockLine, 0, len(order.Items))
		for _, item := range order.Items {
			lines = append(lines, stockLine{productID: item.ProductID, quantity: item.Quantity})
		}
		switch {
		case status == model.SalesStatusCompleted:
			err = s.stock.move(txCtx, userID, model.StockOut, model.StockRefSalesOrder, order.ID, lines)
		case from == model.SalesStatusCompleted && status == model.SalesStatusCancelled:
			err = s.stock.move(txCtx, userID, model.StockIn, model.StockRefSalesOrder, order.ID, lines)
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

func (s *salesOrderService) Export(ctx context.Context, filter repository.OrderFilter, p pagination.Params) (*export.Table, error) {
	p.Limit, p.Offset = 0, 0
	orders, _, err := s.orderRepo.List(ctx, filter, p)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sales orders: %w", err)
	}
	table := &export.Table{
		Name:   "sales_orders",
		Header: []string{"code", "order_date", "status", "client", "vendor", "subtotal", "discount", "delivery_cost", "commission", "total", "items"},
	}
	for _, row := range orders {
		client, vendor := "", ""
		if row.Client != nil {
			client = row.Client.Name
		}
		if row.Vendor != nil {
			vendor = row.Vendor.Name
		}
		table.Append(
			row.Code, export.Date(&row.OrderDate), row.Status, client, vendor,
			export.Money(row.Subtotal), export.Money(row.Discount), export.Money(row.DeliveryCost),
			export.Money(row.Commission), export.Money(row.Total), fmt.Sprint(len(row.Items)),
		)
	}
	return table, nil
}
