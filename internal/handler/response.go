package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"refurbmarket/internal/logger"
	"refurbmarket/internal/middleware"
	"refurbmarket/internal/repository"
	"refurbmarket/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error"`
	Details *usecase.StockShortage `json:"details,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Details: he.Stock})
	}

	//500
	logger.WithCtx(c.Request().Context()).Error("unhandled error", "error", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// echoのエラー（404ルート、405、429、bind失敗）も同じ形にする
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var ee *echo.HTTPError
	if errors.As(err, &ee) {
		msg := http.StatusText(ee.Code)
		if s, ok := ee.Message.(string); ok && s != "" {
			msg = s
		}
		_ = c.JSON(ee.Code, ErrorResponse{Error: msg})
		return
	}
	_ = writeError(c, err)
}

// 認証まわりのミドルウェア
type AuthChain struct {
	Required echo.MiddlewareFunc // トークン必須
	Optional echo.MiddlewareFunc // あれば読む
}

func NewAuthChain(secret string, users repository.UserRepository) AuthChain {
	guard := middleware.PrincipalGuard(users)
	return AuthChain{
		Required: chain(middleware.AuthJWT(secret), guard),
		Optional: chain(middleware.OptionalAuthJWT(secret), middleware.OptionalPrincipalGuard(users)),
	}
}

func chain(outer, inner echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return outer(inner(next))
	}
}

// 認証済み利用者。無ければ401
func principal(c echo.Context) (usecase.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return usecase.Principal{}, usecase.ErrUnauthorized("not authorized, no token")
	}
	return p, nil
}

func bindJSON(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return usecase.ErrValidation("invalid body")
	}
	return nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.ErrValidation(fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, usecase.ErrValidation("invalid " + name)
	}
	return i, nil
}

func queryInt64Ptr(c echo.Context, name string) (*int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, usecase.ErrValidation("invalid " + name)
	}
	return &i, nil
}

func queryDecimalPtr(c echo.Context, name string) (*decimal.Decimal, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, usecase.ErrValidation("invalid " + name)
	}
	return &d, nil
}

func queryBoolPtr(c echo.Context, name string) (*bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, usecase.ErrValidation("invalid " + name)
	}
	return &b, nil
}

func paging(c echo.Context) (usecase.Paging, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return usecase.Paging{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return usecase.Paging{}, err
	}
	return usecase.Paging{Page: page, Limit: limit}, nil
}
