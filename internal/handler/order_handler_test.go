package handler

import (
	"net/http"
	"testing"

	"refurbmarket/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderList struct {
	Orders []model.Order `json:"orders"`
	Total  int64         `json:"total"`
}

type intentResponse struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func TestOrder_PlaceAndRead(t *testing.T) {
	app := newTestApp(t)
	seller := app.user(t, "seller@example.com", model.RoleSeller)
	buyer := app.user(t, "buyer@example.com", model.RoleBuyer)
	phone := app.product(t, seller, "phone", "120.24", 5, true)
	cover := app.product(t, seller, "case", "170.00", 2, true)

	rec := app.do(t, http.MethodPost, "/api/orders", app.token(t, buyer), orderBody(line(phone.ID, 2), line(cover.ID, 1)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	o := decode[model.Order](t, rec)
	assert.True(t, decimal.RequireFromString("410.48").Equal(o.TotalAmount), o.TotalAmount.String())
	assert.Equal(t, model.OrderStatusPending, o.OrderStatus)
	assert.Equal(t, model.PaymentStatusPending, o.PaymentStatus)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "phone", o.Items[0].ProductNameSnapshot)

	rec = app.do(t, http.MethodGet, "/api/orders/"+itoa(o.ID), app.token(t, buyer), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, o.ID, decode[model.Order](t, rec).ID)

	rec = app.do(t, http.MethodGet, "/api/orders/my-orders", app.token(t, buyer), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[orderList](t, rec)
	require.Len(t, mine.Orders, 1)
	assert.Equal(t, int64(1), mine.Total)

	// 在庫が減っている
	rec = app.do(t, http.MethodGet, "/api/products/"+itoa(phone.ID), "", nil)
	assert.Equal(t, int64(3), decode[model.Product](t, rec).StockQuantity)
}

func TestOrder_InsufficientStockReturnsDetails(t *testing.T) {
	app := newTestApp(t)
	seller := app.user(t, "seller@example.com", model.RoleSeller)
	buyer := app.user(t, "buyer@example.com", model.RoleBuyer)
	p := app.product(t, seller, "console", "300.00", 1, true)

	rec := app.do(t, http.MethodPost, "/api/orders", app.token(t, buyer), orderBody(line(p.ID, 2)))
	er := requireError(t, rec, http.StatusConflict, "not enough stock for console. available: 1")
	require.NotNil(t, er.Details)
	assert.Equal(t, p.ID, er.Details.ProductID)
	assert.Equal(t, int64(1), er.Details.Available)

	rec = app.do(t, http.MethodGet, "/api/orders/my-orders", app.token(t, buyer), nil)
	assert.Empty(t, decode[orderList](t, rec).Orders)
}

func TestOrder_Validation(t *testing.T) {
	app := newTestApp(t)
	seller := app.user(t, "seller@example.com", model.RoleSeller)
	buyer := app.user(t, "buyer@example.com", model.RoleBuyer)
	p := app.product(t, seller, "watch", "80.00", 3, true)

	rec := app.do(t, http.MethodPost, "/api/orders", app.token(t, buyer), orderBody())
	requireError(t, rec, http.StatusBadRequest, "order must contain at least one item")

	body := orderBody(line(p.ID, 1))
	delete(body, "shippingAddress")
	rec = app.do(t, http.MethodPost, "/api/orders", app.token(t, buyer), body)
	requireError(t, rec, http.StatusBadRequest, "shipping address is required")

	rec = app.do(t, http.MethodPost, "/api/orders", app.token(t, buyer), orderBody(line(9999, 1)))
	requireError(t, rec, http.StatusNotFound, "product with id 9999 not found")

	rec = app.do(t, http.MethodPost, "/api/orders", app.token(t, seller), orderBody(line(p.ID, 1)))
	requireError(t, rec, http.StatusForbidden, "role seller is not authorized to access this route")
}

func TestOrder_SellerFlowAndVisibility(t *testing.T) {
	app := newTestApp(t)
	seller := app.user(t, "seller@example.com", model.RoleSeller)
	otherSeller := app.user(t, "other@example.com", model.RoleSeller)
	buyer := app.user(t, "buyer@example.com", model.RoleBuyer)
	stranger := app.user(t, "stranger@example.com", model.RoleBuyer)
	mine := app.product(t, seller, "mine", "50.00", 5, true)
	theirs := app.product(t, otherSeller, "theirs", "70.00", 5, true)

	rec := app.do(t, http.MethodPost, "/api/orders", app.token(t, buyer), orderBody(line(mine.ID, 1), line(theirs.ID, 1)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	o := decode[model.Order](t, rec)

	// 出品者には自分の明細だけ
	rec = app.do(t, http.MethodGet, "/api/orders/seller-orders", app.token(t, seller), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	list := decode[orderList](t, rec)
	require.Len(t, list.Orders, 1)
	require.Len(t, list.Orders[0].Items, 1)
	assert.Equal(t, "mine", list.Orders[0].Items[0].ProductNameSnapshot)

	rec = app.do(t, http.MethodGet, "/api/orders/seller-orders/"+itoa(otherSeller.ID), app.token(t, seller), nil)
	requireError(t, rec, http.StatusForbidden, "sellers can only view their own orders")

	rec = app.do(t, http.MethodGet, "/api/orders/"+itoa(o.ID), app.token(t, stranger), nil)
	requireError(t, rec, http.StatusForbidden, "not authorized to view this order")

	rec = app.do(t, http.MethodPatch, "/api/orders/"+itoa(o.ID)+"/status", app.token(t, seller), map[string]string{"status": "processing"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.OrderStatusProcessing, decode[model.Order](t, rec).OrderStatus)

	rec = app.do(t, http.MethodPatch, "/api/orders/"+itoa(o.ID)+"/status", app.token(t, seller), map[string]string{"status": "delivered"})
	requireError(t, rec, http.StatusForbidden, "cannot move order from processing to delivered")

	rec = app.do(t, http.MethodPatch, "/api/orders/"+itoa(o.ID)+"/status", app.token(t, seller), map[string]string{"status": "teleported"})
	requireError(t, rec, http.StatusBadRequest, "invalid status")

	rec = app.do(t, http.MethodPatch, "/api/orders/"+itoa(o.ID)+"/status", app.token(t, buyer), map[string]string{"status": "cancelled"})
	requireError(t, rec, http.StatusForbidden, "role buyer is not authorized to access this route")

	rec = app.do(t, http.MethodGet, "/api/orders/seller-orders?status=processing", app.token(t, seller), nil)
	assert.Len(t, decode[orderList](t, rec).Orders, 1)
	rec = app.do(t, http.MethodGet, "/api/orders/seller-orders?status=shipped", app.token(t, seller), nil)
	assert.Empty(t, decode[orderList](t, rec).Orders)
}

func TestOrder_PaymentIntentAndVerify(t *testing.T) {
	app := newTestApp(t)
	seller := app.user(t, "seller@example.com", model.RoleSeller)
	buyer := app.user(t, "buyer@example.com", model.RoleBuyer)
	p := app.product(t, seller, "earbuds", "120.25", 5, true)

	rec := app.do(t, http.MethodPost, "/api/payments/intent", app.token(t, buyer), map[string]interface{}{
		"items": []map[string]int64{line(p.ID, 2)},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	intent := decode[intentResponse](t, rec)
	assert.True(t, decimal.RequireFromString("240.50").Equal(intent.Amount))
	assert.Equal(t, "INR", intent.Currency)

	// 署名つきで注文するとpaid
	body := orderBody(line(p.ID, 2))
	body["paymentDetails"] = map[string]string{
		"intentId": intent.ID, "paymentId": "pay_1", "signature": app.gateway.Sign(intent.ID, "pay_1"),
	}
	rec = app.do(t, http.MethodPost, "/api/orders", app.token(t, buyer), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, model.PaymentStatusPaid, decode[model.Order](t, rec).PaymentStatus)

	// 決済情報なしの注文を後から検証する
	rec = app.do(t, http.MethodPost, "/api/orders", app.token(t, buyer), orderBody(line(p.ID, 1)))
	require.Equal(t, http.StatusCreated, rec.Code)
	unpaid := decode[model.Order](t, rec)
	assert.Equal(t, model.PaymentStatusPending, unpaid.PaymentStatus)

	rec = app.do(t, http.MethodPost, "/api/orders/"+itoa(unpaid.ID)+"/payment/verify", app.token(t, buyer), map[string]string{
		"intentId": "mock_intent_x", "paymentId": "pay_2", "signature": "forged",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.PaymentStatusFailed, decode[model.Order](t, rec).PaymentStatus)

	rec = app.do(t, http.MethodPost, "/api/orders/"+itoa(unpaid.ID)+"/payment/verify", app.token(t, buyer), map[string]string{
		"intentId": "mock_intent_x", "paymentId": "pay_3", "signature": app.gateway.Sign("mock_intent_x", "pay_3"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.PaymentStatusPaid, decode[model.Order](t, rec).PaymentStatus)

	rec = app.do(t, http.MethodPost, "/api/orders/"+itoa(unpaid.ID)+"/payment/verify", app.token(t, buyer), map[string]string{
		"intentId": "mock_intent_x", "paymentId": "pay_4",
	})
	requireError(t, rec, http.StatusBadRequest, "order payment is already paid")
}

func TestOrder_ResponsesOmitPaymentSignature(t *testing.T) {
	app := newTestApp(t)
	seller := app.user(t, "seller@example.com", model.RoleSeller)
	buyer := app.user(t, "buyer@example.com", model.RoleBuyer)
	p := app.product(t, seller, "earbuds", "120.25", 5, true)
	sig := app.gateway.Sign("mock_intent_s", "pay_s")

	body := orderBody(line(p.ID, 1))
	body["paymentDetails"] = map[string]string{"intentId": "mock_intent_s", "paymentId": "pay_s", "signature": sig}
	rec := app.do(t, http.MethodPost, "/api/orders", app.token(t, buyer), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decode[model.Order](t, rec)
	assert.Equal(t, model.PaymentStatusPaid, placed.PaymentStatus)
	assert.Equal(t, "pay_s", placed.PaymentDetails.PaymentID)
	assert.NotContains(t, rec.Body.String(), "signature")
	assert.NotContains(t, rec.Body.String(), sig)

	for _, tok := range []string{app.token(t, buyer), app.token(t, seller)} {
		rec = app.do(t, http.MethodGet, "/api/orders/"+itoa(placed.ID), tok, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), sig)
	}

	// 保存された値にも残らない
	var raw string
	require.NoError(t, app.db.Raw("SELECT payment_details FROM orders WHERE id = ?", placed.ID).Scan(&raw).Error)
	assert.Contains(t, raw, "pay_s")
	assert.NotContains(t, raw, sig)
}
