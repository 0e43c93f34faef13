package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"erpcrm/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartnerHandler_Lifecycle(t *testing.T) {
	s := newTestServer(t)

	var partner model.Partner
	created(t, s.do(t, http.MethodPost, "/api/partners", "manager", map[string]any{
		"name": "Acme Supplies",
		"type": "supplier",
		"addresses": []map[string]any{
			{"type": "billing", "street": "Rua A", "number": "10", "city": "Recife", "state": "PE", "zip_code": "50000-000"},
		},
	}), &partner)
	assert.Equal(t, "supplier", partner.Type)
	path := "/api/partners/" + partner.ID.String()

	w := s.do(t, http.MethodGet, path, "staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched model.Partner
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &fetched))
	assert.Len(t, fetched.Addresses, 1)

	w = s.do(t, http.MethodPut, path, "manager", map[string]any{"name": "Acme", "type": "both"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/partners?type=client", "staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 1, env.Meta.Total)

	w = s.do(t, http.MethodDelete, path, "manager", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, "staff", nil).Code)

	w = s.do(t, http.MethodGet, "/api/partners?trashed=only", "staff", nil)
	assert.EqualValues(t, 1, decode(t, w).Meta.Total)

	w = s.do(t, http.MethodPost, path+"/restore", "manager", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, "staff", nil).Code)

	// permanent deletes are admin only
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, path+"/force", "manager", nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, path+"/force", model.RoleAdmin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, path+"/restore", model.RoleAdmin, nil).Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/partners/not-an-id", "staff", nil).Code)
}

func TestPartnerHandler_Export(t *testing.T) {
	s := newTestServer(t)
	for _, name := range []string{"Alpha", "Beta"} {
		w := s.do(t, http.MethodPost, "/api/partners", "manager", map[string]any{"name": name, "type": "client"})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/partners/export", "staff", nil).Code)

	w := s.do(t, http.MethodGet, "/api/partners/export", "manager", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, w.Body.String(), "Alpha")
	assert.Contains(t, w.Body.String(), "Beta")
}

func TestFinanceHandlers_PayFlow(t *testing.T) {
	s := newTestServer(t)

	var account model.BankAccount
	created(t, s.do(t, http.MethodPost, "/api/bank-accounts", "manager", map[string]any{
		"name": "Checking", "initial_balance": "500",
	}), &account)
	accountPath := "/api/bank-accounts/" + account.ID.String()

	w := s.do(t, http.MethodPost, accountPath+"/movements", "manager", map[string]any{"type": "input", "amount": "10.555"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w).Errors, "amount")

	w = s.do(t, http.MethodPost, accountPath+"/movements", "manager", map[string]any{"type": "input", "amount": "100"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var supplier model.Partner
	created(t, s.do(t, http.MethodPost, "/api/partners", "manager", map[string]any{"name": "Landlord", "type": "supplier"}), &supplier)

	var payable model.Payable
	created(t, s.do(t, http.MethodPost, "/api/payables", "manager", map[string]any{
		"partner_id":      supplier.ID.String(),
		"bank_account_id": account.ID.String(),
		"description":     "Rent",
		"amount":          "450.00",
		"due_date":        time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
	}), &payable)
	payablePath := "/api/payables/" + payable.ID.String()

	w = s.do(t, http.MethodPost, payablePath+"/pay", "manager", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var paid model.Payable
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &paid))
	assert.Equal(t, model.PayableStatusPaid, paid.Status)

	w = s.do(t, http.MethodPost, payablePath+"/pay", "manager", map[string]any{})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, accountPath, "staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched model.BankAccount
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &fetched))
	assert.Equal(t, "150.00", fetched.CurrentBalance.StringFixed(2))

	// an account holding money cannot be deleted
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodDelete, accountPath, "manager", nil).Code)
}

func TestDashboardHandler(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/dashboard", "", nil).Code)

	w := s.do(t, http.MethodGet, "/api/dashboard?month=march", "manager", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "must be an integer", decode(t, w).Errors["month"])

	w = s.do(t, http.MethodGet, "/api/dashboard?year=2026&month=13", "manager", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w).Errors, "month")

	w = s.do(t, http.MethodGet, "/api/dashboard?year=2026&month=3", "manager", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var metrics []model.Metric
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &metrics))
	require.Len(t, metrics, 10)
	assert.Equal(t, "total_sales", metrics[0].Key)
	assert.Equal(t, "R$", metrics[0].Prefix)
	assert.Zero(t, metrics[0].Value)
}
