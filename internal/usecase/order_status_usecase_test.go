package usecase

import (
	"context"
	"testing"

	"refurbmarket/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusFixture struct {
	env    *testEnv
	seller Principal
	other  Principal
	buyer  Principal
	admin  Principal
	order  model.Order
}

func newStatusFixture(t *testing.T) statusFixture {
	t.Helper()
	env := newEnv(t)
	f := statusFixture{
		env:    env,
		seller: env.user(t, "seller@example.com", model.RoleSeller),
		other:  env.user(t, "other@example.com", model.RoleSeller),
		buyer:  env.user(t, "buyer@example.com", model.RoleBuyer),
		admin:  env.user(t, "admin@example.com", model.RoleAdmin),
	}
	p := env.product(t, f.seller, "phone", "10", 5, true)
	o, err := env.orders.PlaceOrder(context.Background(), f.buyer, orderOf(OrderItemInput{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	f.order = o
	return f
}

func (f statusFixture) set(t *testing.T, st model.OrderStatus) {
	t.Helper()
	require.NoError(t, f.env.db.Model(&model.Order{}).Where("id = ?", f.order.ID).Update("order_status", st).Error)
}

func (f statusFixture) current(t *testing.T) model.OrderStatus {
	t.Helper()
	var o model.Order
	require.NoError(t, f.env.db.First(&o, f.order.ID).Error)
	return o.OrderStatus
}

func TestUpdateStatus_SellerForwardPath(t *testing.T) {
	ctx := context.Background()
	f := newStatusFixture(t)

	o, err := f.env.orders.UpdateStatus(ctx, f.seller, f.order.ID, "processing")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, o.OrderStatus)

	o, err = f.env.orders.UpdateStatus(ctx, f.seller, f.order.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, o.OrderStatus)
	assert.Equal(t, model.OrderStatusShipped, f.current(t))

	// sellerの更新は監査ログに残さない
	logs, err := f.env.audit.List(ctx, ListAuditLogsInput{})
	require.NoError(t, err)
	assert.Zero(t, logs.Total)
}

func TestUpdateStatus_SellerRejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		from model.OrderStatus
		to   string
		kind ErrorKind
	}{
		{"pending to shipped skips processing", model.OrderStatusPending, "shipped", KindForbiddenTransition},
		{"pending to delivered", model.OrderStatusPending, "delivered", KindForbiddenTransition},
		{"processing back to pending", model.OrderStatusProcessing, "pending", KindForbiddenTransition},
		{"shipped is settled", model.OrderStatusShipped, "cancelled", KindForbiddenTransition},
		{"delivered is settled", model.OrderStatusDelivered, "processing", KindForbiddenTransition},
		{"cancelled is settled", model.OrderStatusCancelled, "processing", KindForbiddenTransition},
		{"unknown status", model.OrderStatusPending, "teleported", KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStatusFixture(t)
			f.set(t, tt.from)

			_, err := f.env.orders.UpdateStatus(ctx, f.seller, f.order.ID, tt.to)
			assert.Equal(t, tt.kind, kindOf(err), "err=%v", err)
			assert.Equal(t, tt.from, f.current(t))
		})
	}
}

func TestUpdateStatus_NotInvolvedSellerAndBuyer(t *testing.T) {
	ctx := context.Background()
	f := newStatusFixture(t)

	_, err := f.env.orders.UpdateStatus(ctx, f.other, f.order.ID, "processing")
	assert.Equal(t, KindForbidden, kindOf(err))

	_, err = f.env.orders.UpdateStatus(ctx, f.buyer, f.order.ID, "cancelled")
	assert.Equal(t, KindForbidden, kindOf(err))

	_, err = f.env.orders.UpdateStatus(ctx, f.seller, f.order.ID+100, "processing")
	assert.Equal(t, KindNotFound, kindOf(err))

	assert.Equal(t, model.OrderStatusPending, f.current(t))
}

// 管理者はどの遷移でもできて、監査ログが残る
func TestUpdateStatus_AdminOverrideIsAudited(t *testing.T) {
	ctx := context.Background()
	f := newStatusFixture(t)
	f.set(t, model.OrderStatusDelivered)

	o, err := f.env.orders.UpdateStatus(ctx, f.admin, f.order.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, o.OrderStatus)

	logs, err := f.env.audit.List(ctx, ListAuditLogsInput{Action: string(model.AuditActionUpdateOrderStatus)})
	require.NoError(t, err)
	require.Len(t, logs.Logs, 1)
	entry := logs.Logs[0]
	assert.Equal(t, f.admin.UserID, entry.ActorUserID)
	assert.Equal(t, f.order.ID, entry.ResourceID)
	assert.JSONEq(t, `{"orderStatus":"delivered"}`, entry.BeforeJSON)
	assert.JSONEq(t, `{"orderStatus":"pending"}`, entry.AfterJSON)
}
