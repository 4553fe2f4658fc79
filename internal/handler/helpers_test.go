package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/infra/db/dbtest"
	"refurbmarket/internal/infra/payment"
	infraRepo "refurbmarket/internal/infra/repository"
	"refurbmarket/internal/usecase"
	auth "refurbmarket/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testJWTSecret = "handler-test-secret"

// sqliteの上に本番と同じ組み立てでechoを作る
type testApp struct {
	e       *echo.Echo
	db      *gorm.DB
	issuer  *auth.JWTIssuer
	hasher  *auth.BcryptPasswordHasher
	gateway *payment.MockGateway
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gdb := dbtest.NewSQLite(t)
	users := infraRepo.NewUserGormRepository(gdb)
	products := infraRepo.NewProductGormRepository(gdb)
	orders := infraRepo.NewOrderGormRepository(gdb)
	audit := infraRepo.NewAuditLogGormRepository(gdb)
	txm := infraRepo.NewTxManagerGorm(gdb)

	hasher := auth.NewBcryptPasswordHasher(bcrypt.MinCost)
	issuer, err := auth.NewJWTIssuer(testJWTSecret, time.Hour)
	require.NoError(t, err)
	gateway, err := payment.NewMockGateway("pay-secret")
	require.NoError(t, err)
	clock := auth.SystemClock{}

	sqlDB, err := gdb.DB()
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	NewHealthHandler(sqlDB).RegisterRoutes(e)

	ac := NewAuthChain(testJWTSecret, users)
	api := e.Group("/api")
	NewAuthHandler(
		auth.NewRegisterUserUsecase(users, hasher, issuer, clock),
		auth.NewLoginUsecase(users, hasher, issuer, clock),
	).RegisterRoutes(api, nil)
	NewUserHandler(usecase.NewUserUsecase(users, hasher, hasher)).RegisterRoutes(api, ac)
	NewProductHandler(usecase.NewProductUsecase(products, txm, nil)).RegisterRoutes(api, ac)
	NewOrderHandler(usecase.NewOrderUsecase(txm, orders, products, gateway, nil, nil)).RegisterRoutes(api, ac)
	NewAdminHandler(usecase.NewAuditLogUsecase(audit)).RegisterRoutes(api, ac)

	return &testApp{e: e, db: gdb, issuer: issuer, hasher: hasher, gateway: gateway}
}

func (a *testApp) user(t *testing.T, email string, role model.Role) model.User {
	t.Helper()
	hash, err := a.hasher.Hash("Passw0rd!x")
	require.NoError(t, err)
	u := model.User{Name: "user " + email, Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, infraRepo.NewUserGormRepository(a.db).Create(context.Background(), &u))
	return u
}

func (a *testApp) token(t *testing.T, u model.User) string {
	t.Helper()
	tok, _, err := a.issuer.Issue(u.ID, u.Role, time.Now())
	require.NoError(t, err)
	return tok
}

func (a *testApp) product(t *testing.T, seller model.User, name, price string, stock int64, approved bool) model.Product {
	t.Helper()
	p := model.Product{
		Name:          name,
		Description:   name + " description",
		Price:         decimal.RequireFromString(price),
		Category:      "phones",
		Brand:         "acme",
		Condition:     model.ConditionExcellent,
		StockQuantity: stock,
		SellerID:      seller.ID,
		Images:        model.StringList{"https://img.example/" + name + ".jpg"},
		Approved:      approved,
	}
	require.NoError(t, infraRepo.NewProductGormRepository(a.db).Create(context.Background(), &p))
	return p
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) ErrorResponse {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	er := decode[ErrorResponse](t, rec)
	require.False(t, er.Success)
	if msg != "" {
		require.Equal(t, msg, er.Error)
	}
	return er
}

func shipTo() map[string]string {
	return map[string]string{
		"street": "1 MG Road", "city": "Bengaluru", "state": "KA", "postalCode": "560001", "country": "IN",
	}
}

func orderBody(items ...map[string]int64) map[string]interface{} {
	return map[string]interface{}{
		"items":           items,
		"shippingAddress": shipTo(),
		"paymentMethod":   "card",
	}
}

func line(productID, qty int64) map[string]int64 {
	return map[string]int64{"productId": productID, "quantity": qty}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
