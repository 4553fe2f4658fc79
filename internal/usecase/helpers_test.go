package usecase

import (
	"context"
	"sync"
	"testing"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/infra/db/dbtest"
	gormrepo "refurbmarket/internal/infra/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// =====================
// Fakes
// =====================

// ゲートウェイのフェイク。successで検証結果を切り替える
type fakeGateway struct {
	success bool
	intents int
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount decimal.Decimal, currency string) (PaymentIntent, error) {
	g.intents++
	return PaymentIntent{ID: "pi_test", Amount: amount, Currency: currency, Status: "created", Gateway: "fake"}, nil
}

func (g *fakeGateway) Verify(_ context.Context, d model.PaymentDetails) (PaymentVerification, error) {
	return PaymentVerification{Success: g.success, PaymentID: "pay_" + d.IntentID, Gateway: "fake"}, nil
}

type countingMetrics struct {
	mu        sync.Mutex
	placed    int
	conflicts int
}

func (m *countingMetrics) OrderPlaced() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placed++
}

func (m *countingMetrics) StockConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

// Invalidateされたidを覚えるだけのキャッシュ
type recordingCache struct {
	mu          sync.Mutex
	invalidated []int64
}

func (c *recordingCache) GetOrLoad(ctx context.Context, _ int64, load func(ctx context.Context) (model.Product, error)) (model.Product, error) {
	return load(ctx)
}

func (c *recordingCache) Invalidate(_ context.Context, ids ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, ids...)
	return nil
}

// =====================
// Env
// =====================

type testEnv struct {
	db       *gorm.DB
	products *ProductUsecase
	orders   *OrderUsecase
	audit    *AuditLogUsecase
	gateway  *fakeGateway
	metrics  *countingMetrics
	cache    *recordingCache
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.NewSQLite(t)

	productRepo := gormrepo.NewProductGormRepository(db)
	orderRepo := gormrepo.NewOrderGormRepository(db)
	tx := gormrepo.NewTxManagerGorm(db)
	gw := &fakeGateway{success: true}
	m := &countingMetrics{}
	c := &recordingCache{}

	return &testEnv{
		db:       db,
		products: NewProductUsecase(productRepo, tx, c),
		orders:   NewOrderUsecase(tx, orderRepo, productRepo, gw, c, m),
		audit:    NewAuditLogUsecase(gormrepo.NewAuditLogGormRepository(db)),
		gateway:  gw,
		metrics:  m,
		cache:    c,
	}
}

func (e *testEnv) user(t *testing.T, email string, role model.Role) Principal {
	t.Helper()
	u := model.User{Name: email, Email: email, PasswordHash: "hash", Role: role}
	require.NoError(t, e.db.Create(&u).Error)
	return Principal{UserID: u.ID, Role: role}
}

func (e *testEnv) product(t *testing.T, seller Principal, name string, price string, stock int64, approved bool) model.Product {
	t.Helper()
	p := model.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Category:      "phones",
		Brand:         "acme",
		Condition:     model.ConditionExcellent,
		StockQuantity: stock,
		SellerID:      seller.UserID,
		Images:        model.StringList{"https://img.example/" + name + ".jpg"},
		Approved:      approved,
	}
	require.NoError(t, e.db.Create(&p).Error)
	return p
}

func (e *testEnv) stockOf(t *testing.T, id int64) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, e.db.First(&p, id).Error)
	return p.StockQuantity
}

func (e *testEnv) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func testAddress() *model.ShippingAddress {
	return &model.ShippingAddress{Street: "1-2-3 Chuo", City: "Tokyo", PostalCode: "100-0001", Country: "JP"}
}

func orderOf(items ...OrderItemInput) PlaceOrderInput {
	return PlaceOrderInput{Items: items, ShippingAddress: testAddress(), PaymentMethod: "card"}
}

func kindOf(err error) ErrorKind {
	he, ok := AsHTTPError(err)
	if !ok {
		return ""
	}
	return he.Kind
}
