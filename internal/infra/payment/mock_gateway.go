package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/logger"
	"refurbmarket/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const gatewayName = "mock"

// 外部ゲートウェイの代わり。intentはuuidで作り、署名があればHMACで確認する
type MockGateway struct {
	secret []byte
}

func NewMockGateway(secret string) (*MockGateway, error) {
	if secret == "" {
		return nil, errors.New("payment secret is empty")
	}
	return &MockGateway{secret: []byte(secret)}, nil
}

func (g *MockGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (usecase.PaymentIntent, error) {
	if !amount.IsPositive() {
		return usecase.PaymentIntent{}, errors.New("amount must be positive")
	}
	id := "mock_intent_" + uuid.NewString()
	logger.WithCtx(ctx).Info("payment intent created", "intent_id", id, "amount", amount.StringFixed(2), "currency", currency)

	return usecase.PaymentIntent{
		ID:           id,
		ClientSecret: "mock_secret_" + uuid.NewString(),
		Amount:       amount,
		Currency:     currency,
		Status:       "created",
		Gateway:      gatewayName,
	}, nil
}

// 署名なしは通す（モック）。署名ありで合わなければ失敗
func (g *MockGateway) Verify(ctx context.Context, d model.PaymentDetails) (usecase.PaymentVerification, error) {
	paymentID := d.PaymentID
	if paymentID == "" {
		paymentID = "mock_payment_" + uuid.NewString()
	}

	if d.Signature != "" && !hmac.Equal([]byte(d.Signature), []byte(g.Sign(d.IntentID, d.PaymentID))) {
		logger.WithCtx(ctx).Warn("payment signature mismatch", "intent_id", d.IntentID)
		return usecase.PaymentVerification{Success: false, PaymentID: paymentID, Gateway: gatewayName}, nil
	}
	return usecase.PaymentVerification{Success: true, PaymentID: paymentID, Gateway: gatewayName}, nil
}

// intentId|paymentId のHMAC-SHA256（hex）
func (g *MockGateway) Sign(intentID, paymentID string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(intentID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
