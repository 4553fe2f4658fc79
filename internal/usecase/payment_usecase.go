package usecase

import (
	"context"
	"strings"

	"refurbmarket/internal/domain/model"
	repo "refurbmarket/internal/repository"

	"github.com/shopspring/decimal"
)

// 決済ゲートウェイ。中身（モック/実ゲートウェイ）は差し替え
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (PaymentIntent, error)
	Verify(ctx context.Context, details model.PaymentDetails) (PaymentVerification, error)
}

type PaymentIntent struct {
	ID           string          `json:"id"`
	ClientSecret string          `json:"clientSecret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	Gateway      string          `json:"gateway"`
}

type PaymentVerification struct {
	Success   bool
	PaymentID string
	Gateway   string
}

const defaultCurrency = "INR"

type PaymentIntentInput struct {
	Items    []OrderItemInput
	Currency string
}

// 金額はサーバー側で商品から計算する（クライアントの金額は使わない）
func (u *OrderUsecase) CreatePaymentIntent(ctx context.Context, buyer Principal, in PaymentIntentInput) (PaymentIntent, error) {
	if buyer.Role != model.RoleBuyer {
		return PaymentIntent{}, ErrForbidden("only buyers can pay")
	}
	if u.payments == nil {
		return PaymentIntent{}, ErrInvalidState("payments are not configured")
	}
	if err := validateItems(in.Items); err != nil {
		return PaymentIntent{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if len(currency) != 3 {
		return PaymentIntent{}, ErrValidation("invalid currency")
	}

	_, total, err := snapshotLines(ctx, u.products, in.Items)
	if err != nil {
		return PaymentIntent{}, err
	}

	intent, err := u.payments.CreateIntent(ctx, total, currency)
	if err != nil {
		logWarn(ctx, "payment intent failed", "buyer_id", buyer.UserID, "error", err)
		return PaymentIntent{}, ErrInternal()
	}
	return intent, nil
}

// 注文後の決済確認。未払いの注文だけ。結果はpaid/failedで保存して監査ログに残す
func (u *OrderUsecase) VerifyOrderPayment(ctx context.Context, buyer Principal, orderID int64, details model.PaymentDetails) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, ErrValidation("invalid order id")
	}
	if !details.Supplied() {
		return model.Order{}, ErrValidation("intentId or paymentId is required")
	}
	if u.payments == nil {
		return model.Order{}, ErrInvalidState("payments are not configured")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return model.Order{}, translateStoreError(ctx, "order.payment.find", err, "order not found", "order_id", orderID)
	}
	if o.UserID != buyer.UserID {
		return model.Order{}, ErrForbidden("not authorized to pay for this order")
	}
	if err := payable(o); err != nil {
		return model.Order{}, err
	}

	status, verified := u.resolvePayment(ctx, &details)

	// ゲートウェイ待ちの間に別の検証が終わっているかもしれないので、書く時にもう一度条件を見る
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := payable(before); err != nil {
			return err
		}
		ok, err := r.Orders().UpdatePaymentIfPayable(ctx, orderID, status, verified)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidState("order payment is no longer pending")
		}
		return r.AuditLogs().Create(ctx, auditEntry(buyer, model.AuditActionUpdatePayment, model.AuditResourceOrder, orderID,
			map[string]interface{}{"paymentStatus": before.PaymentStatus},
			map[string]interface{}{"paymentStatus": status, "paymentId": verified.PaymentID},
		))
	})
	if err != nil {
		return model.Order{}, translateStoreError(ctx, "order.payment.update", err, "order not found", "order_id", orderID)
	}

	o.PaymentStatus = status
	o.PaymentDetails = verified
	return o, nil
}

func payable(o model.Order) error {
	if o.PaymentStatus == model.PaymentStatusPaid || o.PaymentStatus == model.PaymentStatusRefunded {
		return ErrInvalidState("order payment is already " + string(o.PaymentStatus))
	}
	if o.OrderStatus == model.OrderStatusCancelled {
		return ErrInvalidState("order is cancelled")
	}
	return nil
}
