package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"erpcrm/internal/model"
	"erpcrm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one order line. UnitPrice defaults to the product's sale
// price on sales orders and its cost price on purchase orders.
type OrderItemRequest struct {
	ProductID string           `json:"product_id" binding:"required,uuid"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price" binding:"omitempty,money"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// statusChange is the audit payload of a transition
type statusChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// transitions lists, per status, the statuses an order may move to
type transitions map[string][]string

func (t transitions) check(from, to string) error {
	if _, known := t[to]; !known {
		return fieldError("status", fmt.Sprintf("unknown status %q", to))
	}
	if !slices.Contains(t[from], to) {
		return fmt.Errorf("cannot move order from %s to %s: %w", from, to, ErrInvalidTransition)
	}
	return nil
}

var salesTransitions = transitions{
	model.SalesStatusPending:    {model.SalesStatusProcessing, model.SalesStatusCompleted, model.SalesStatusCancelled},
	model.SalesStatusProcessing: {model.SalesStatusCompleted, model.SalesStatusCancelled},
	model.SalesStatusCompleted:  {model.SalesStatusCancelled},
	model.SalesStatusCancelled:  {},
}

var purchaseTransitions = transitions{
	model.PurchaseStatusPending:   {model.PurchaseStatusReceived, model.PurchaseStatusCancelled},
	model.PurchaseStatusReceived:  {model.PurchaseStatusCancelled},
	model.PurchaseStatusCancelled: {},
}

func newOrderCode(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// effectiveDate keeps current when no date is supplied, defaulting new rows to now
func effectiveDate(supplied *time.Time, current time.Time) time.Time {
	switch {
	case supplied != nil && !supplied.IsZero():
		return *supplied
	case current.IsZero():
		return time.Now()
	default:
		return current
	}
}

func validateOrderAmounts(discount, shipping decimal.Decimal, shippingField string) error {
	if discount.IsNegative() {
		return fieldError("discount", "must not be negative")
	}
	if shipping.IsNegative() {
		return fieldError(shippingField, "must not be negative")
	}
	return nil
}

func orderTotal(subtotal, discount, shipping decimal.Decimal) (decimal.Decimal, error) {
	if discount.GreaterThan(subtotal) {
		return decimal.Zero, fieldError("discount", "must not exceed the order subtotal")
	}
	return subtotal.Sub(discount).Add(shipping).Round(2), nil
}

// stockLine is a product quantity moved by an order status change
type stockLine struct {
	productID uuid.UUID
	quantity  int
}

// stockMover applies order lines to product stock and records the ledger rows
type stockMover struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockMovementRepository
}

func (m stockMover) move(ctx context.Context, userID, movementType, refType string, refID uuid.UUID, lines []stockLine) error {
	sign := 1
	if movementType == model.StockOut {
		sign = -1
	}
	for _, line := range lines {
		stock, err := m.productRepo.AdjustStock(ctx, line.productID, sign*line.quantity)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return fmt.Errorf("%s: %w", err.Error(), ErrConflict)
			}
			return translate(err, "product")
		}
		ref := refID
		if err := m.stockRepo.Create(ctx, &model.StockMovement{
			ProductID:     line.productID,
			Type:          movementType,
			Quantity:      line.quantity,
			StockAfter:    stock,
			ReferenceType: refType,
			ReferenceID:   &ref,
			UserID:        actorID(userID),
		}); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
	}
	return nil
}
