package handler

import (
	"net/http"
	"testing"

	"refurbmarket/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditList struct {
	Logs  []model.AuditLog `json:"logs"`
	Total int64            `json:"total"`
}

func TestAdmin_AuditLogsRecordAdminActions(t *testing.T) {
	app := newTestApp(t)
	admin := app.user(t, "admin@example.com", model.RoleAdmin)
	seller := app.user(t, "seller@example.com", model.RoleSeller)
	buyer := app.user(t, "buyer@example.com", model.RoleBuyer)
	p := app.product(t, seller, "camera", "640.00", 2, false)

	rec := app.do(t, http.MethodPatch, "/api/products/"+itoa(p.ID)+"/approve", app.token(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/orders", app.token(t, buyer), orderBody(line(p.ID, 1)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	o := decode[model.Order](t, rec)

	// 管理者は遷移表に縛られない
	rec = app.do(t, http.MethodPatch, "/api/orders/"+itoa(o.ID)+"/status", app.token(t, admin), map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/admin/audit-logs", app.token(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	all := decode[auditList](t, rec)
	assert.Equal(t, int64(2), all.Total)

	rec = app.do(t, http.MethodGet, "/api/admin/audit-logs?resourceType=order&resourceId="+itoa(o.ID), app.token(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	orderLogs := decode[auditList](t, rec)
	require.Len(t, orderLogs.Logs, 1)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, orderLogs.Logs[0].Action)
	assert.Equal(t, admin.ID, orderLogs.Logs[0].ActorUserID)
	assert.Contains(t, orderLogs.Logs[0].AfterJSON, "delivered")

	rec = app.do(t, http.MethodGet, "/api/admin/audit-logs?action=APPROVE_PRODUCT", app.token(t, admin), nil)
	assert.Len(t, decode[auditList](t, rec).Logs, 1)
}

func TestAdmin_AuditLogsGuarded(t *testing.T) {
	app := newTestApp(t)
	admin := app.user(t, "admin@example.com", model.RoleAdmin)
	seller := app.user(t, "seller@example.com", model.RoleSeller)

	rec := app.do(t, http.MethodGet, "/api/admin/audit-logs", app.token(t, seller), nil)
	requireError(t, rec, http.StatusForbidden, "role seller is not authorized to access this route")

	rec = app.do(t, http.MethodGet, "/api/admin/audit-logs", "", nil)
	requireError(t, rec, http.StatusUnauthorized, "not authorized, no token")

	rec = app.do(t, http.MethodGet, "/api/admin/audit-logs?action=DROP_TABLE", app.token(t, admin), nil)
	requireError(t, rec, http.StatusBadRequest, "")

	rec = app.do(t, http.MethodGet, "/api/admin/audit-logs?actorUserId=x", app.token(t, admin), nil)
	requireError(t, rec, http.StatusBadRequest, "invalid actorUserId")
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","db":"up"}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/nowhere", "", nil)
	requireError(t, rec, http.StatusNotFound, "Not Found")
	assert.JSONEq(t, `{"success":false,"error":"Not Found"}`, rec.Body.String())
}
