package service

import (
	"context"
	"testing"

	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSalesOrderService(f *fixture) SalesOrderService {
	return NewSalesOrderService(f.salesOrders, f.clients, f.vendors, f.conditions, f.products, f.stock, f.audit, f.tx, f.notifier)
}

func (f *fixture) productStock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestSalesOrderService_CreatePricesItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newSalesOrderService(f)

	client := f.client(t, "Ana")
	vendor := f.vendor(t, "Bruno", 5)
	chair := f.product(t, "chair", "40", "100", 10)
	desk := f.product(t, "desk", "150", "300", 5)
	desk.CommissionRate = ptr(dec("10"))
	require.NoError(t, f.products.Update(ctx, desk))

	vendorID := vendor.ID.String()
	order, err := svc.Create(ctx, "", SalesOrderRequest{
		ClientID:     client.ID.String(),
		VendorID:     &vendorID,
		Discount:     dec("20"),
		DeliveryCost: dec("15"),
		Items: []OrderItemRequest{
			{ProductID: chair.ID.String(), Quantity: 2},
			{ProductID: desk.ID.String(), Quantity: 1, UnitPrice: ptr(dec("280"))},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.SalesStatusPending, order.Status)
	assert.Regexp(t, `^SO-[0-9A-F]{10}$`, order.Code)
	assert.Equal(t, "480.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "230.00", order.ProductCost.StringFixed(2))
	// chair uses the vendor rate (5% of 200), desk its own (10% of 280)
	assert.Equal(t, "38.00", order.Commission.StringFixed(2))
	assert.Equal(t, "475.00", order.Total.StringFixed(2))
	assert.Len(t, order.Items, 2)
	assert.False(t, order.OrderDate.IsZero())

	assert.Equal(t, 10, f.productStock(t, chair.ID), "pending orders do not touch stock")
	assert.Equal(t, []string{"sales_order"}, f.notifier.Sources())
	assert.Equal(t, int64(1), f.auditCount(t, "sales_order", model.ActionCreate))
}

func TestSalesOrderService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newSalesOrderService(f)
	client := f.client(t, "Ana")
	chair := f.product(t, "chair", "40", "100", 10)

	tests := []struct {
		name  string
		req   SalesOrderRequest
		field string
	}{
		{
			name:  "unknown client",
			req:   SalesOrderRequest{ClientID: uuid.NewString(), Items: []OrderItemRequest{{ProductID: chair.ID.String(), Quantity: 1}}},
			field: "client_id",
		},
		{
			name:  "no items",
			req:   SalesOrderRequest{ClientID: client.ID.String()},
			field: "items",
		},
		{
			name:  "unknown product",
			req:   SalesOrderRequest{ClientID: client.ID.String(), Items: []OrderItemRequest{{ProductID: uuid.NewString(), Quantity: 1}}},
			field: "items.0.product_id",
		},
		{
			name: "discount above subtotal",
			req: SalesOrderRequest{
				ClientID: client.ID.String(),
				Discount: dec("500"),
				Items:    []OrderItemRequest{{ProductID: chair.ID.String(), Quantity: 1}},
			},
			field: "discount",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "", tt.req)
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestSalesOrderService_StatusMovesStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newSalesOrderService(f)
	client := f.client(t, "Ana")
	chair := f.product(t, "chair", "40", "100", 10)

	order, err := svc.Create(ctx, "", SalesOrderRequest{
		ClientID: client.ID.String(),
		Items:    []OrderItemRequest{{ProductID: chair.ID.String(), Quantity: 3}},
	})
	require.NoError(t, err)
	id := order.ID.String()

	order, err = svc.ChangeStatus(ctx, "", id, model.SalesStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, model.SalesStatusProcessing, order.Status)
	assert.Equal(t, 10, f.productStock(t, chair.ID))

	order, err = svc.ChangeStatus(ctx, "", id, model.SalesStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.SalesStatusCompleted, order.Status)
	assert.Equal(t, 7, f.productStock(t, chair.ID))

	_, err = svc.Update(ctx, "", id, SalesOrderRequest{
		ClientID: client.ID.String(),
		Items:    []OrderItemRequest{{ProductID: chair.ID.String(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidTransition, "completed orders are read-only")

	_, err = svc.ChangeStatus(ctx, "", id, model.SalesStatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.ChangeStatus(ctx, "", id, model.SalesStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 10, f.productStock(t, chair.ID), "cancelling a completed order restocks")

	movements, total, err := f.stock.ListByProduct(ctx, chair.ID, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	types := []string{movements[0].Type, movements[1].Type}
	assert.ElementsMatch(t, []string{model.StockOut, model.StockIn}, types)

	assert.Equal(t, int64(3), f.auditCount(t, "sales_order", model.ActionStatus))
}

func TestSalesOrderService_ChangeStatusErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newSalesOrderService(f)
	client := f.client(t, "Ana")
	lamp := f.product(t, "lamp", "10", "25", 1)

	order, err := svc.Create(ctx, "", SalesOrderRequest{
		ClientID: client.ID.String(),
		Items:    []OrderItemRequest{{ProductID: lamp.ID.String(), Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, "", order.ID.String(), "shipped")
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "status", fe.Field)

	_, err = svc.ChangeStatus(ctx, "", order.ID.String(), model.SalesStatusCompleted)
	assert.ErrorIs(t, err, ErrConflict, "not enough stock")
	assert.Equal(t, 1, f.productStock(t, lamp.ID), "failed completion rolls back")

	reloaded, err := svc.Get(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.SalesStatusPending, reloaded.Status)

	_, err = svc.ChangeStatus(ctx, "", order.ID.String(), model.SalesStatusProcessing)
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, "", order.ID.String(), model.SalesStatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition, "processing orders do not go back to pending")

	_, err = svc.ChangeStatus(ctx, "", uuid.NewString(), model.SalesStatusCompleted)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSalesOrderService_UpdateReplacesItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newSalesOrderService(f)
	client := f.client(t, "Ana")
	chair := f.product(t, "chair", "40", "100", 10)
	lamp := f.product(t, "lamp", "10", "25", 10)

	order, err := svc.Create(ctx, "", SalesOrderRequest{
		ClientID: client.ID.String(),
		Items:    []OrderItemRequest{{ProductID: chair.ID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "", order.ID.String(), SalesOrderRequest{
		ClientID: client.ID.String(),
		Items: []OrderItemRequest{
			{ProductID: lamp.ID.String(), Quantity: 4},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, lamp.ID, updated.Items[0].ProductID)
	assert.Equal(t, "100.00", updated.Total.StringFixed(2))
	assert.Equal(t, order.Code, updated.Code)
	assert.True(t, order.OrderDate.Equal(updated.OrderDate), "the order date is kept when not supplied")
}

func TestPurchaseOrderService_ReceiveAndCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewPurchaseOrderService(f.purchaseOrders, f.partners, f.conditions, f.products, f.stock, f.audit, f.tx, f.notifier)

	supplier := f.partner(t, "Acme", model.PartnerTypeSupplier)
	customer := f.partner(t, "Only Buys", model.PartnerTypeClient)
	chair := f.product(t, "chair", "40", "100", 2)

	_, err := svc.Create(ctx, "", PurchaseOrderRequest{
		PartnerID: customer.ID.String(),
		Items:     []OrderItemRequest{{ProductID: chair.ID.String(), Quantity: 1}},
	})
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "partner_id", fe.Field)

	order, err := svc.Create(ctx, "", PurchaseOrderRequest{
		PartnerID:    supplier.ID.String(),
		ShippingCost: dec("12.50"),
		Items:        []OrderItemRequest{{ProductID: chair.ID.String(), Quantity: 5}},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^PO-`, order.Code)
	assert.Equal(t, "212.50", order.Total.StringFixed(2), "unit price defaults to the cost price")

	_, err = svc.ChangeStatus(ctx, "", order.ID.String(), model.PurchaseStatusReceived)
	require.NoError(t, err)
	assert.Equal(t, 7, f.productStock(t, chair.ID))

	_, err = svc.Update(ctx, "", order.ID.String(), PurchaseOrderRequest{
		PartnerID: supplier.ID.String(),
		Items:     []OrderItemRequest{{ProductID: chair.ID.String(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidTransition, "only pending purchase orders are editable")

	_, err = svc.ChangeStatus(ctx, "", order.ID.String(), model.PurchaseStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 2, f.productStock(t, chair.ID))

	_, err = svc.ChangeStatus(ctx, "", order.ID.String(), model.PurchaseStatusReceived)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
