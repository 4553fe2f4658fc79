package middleware

import (
	"errors"
	"net/http"

	"refurbmarket/internal/logger"
	"refurbmarket/internal/repository"
	"refurbmarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

const msgUserNotFound = "not authorized, user not found"

// トークンのユーザーがまだDBにいるか確認する。roleはDBの値を正とする
func PrincipalGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return principalGuard(userRepo, false)
}

// OptionalAuthJWTの後ろ用。消えたユーザーのトークンは匿名として通す
func OptionalPrincipalGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return principalGuard(userRepo, true)
}

func principalGuard(userRepo repository.UserRepository, optional bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたuser_id を取得する
			userID, ok := c.Get(CtxUserIDKey).(int64)
			if !ok || userID <= 0 {
				return next(c)
			}

			//DBから最新のuserを取得する
			ctx := c.Request().Context()
			user, err := userRepo.FindByID(ctx, userID)
			if err == nil && user == nil {
				err = repository.ErrNotFound
			}
			switch {
			case err == nil:
			case errors.Is(err, repository.ErrNotFound):
				if optional {
					c.Set(CtxUserIDKey, nil)
					c.Set(CtxUserRoleKey, nil)
					return next(c)
				}
				return c.JSON(http.StatusUnauthorized, errorJSON(msgUserNotFound))
			default:
				//DB障害は401にしない
				logger.WithCtx(ctx).Error("principal lookup failed", "op", "auth.principal", "user_id", userID, "error", err)
				return c.JSON(http.StatusInternalServerError, errorJSON("internal error"))
			}

			c.Set(CtxUserRoleKey, user.Role)
			c.Set(CtxPrincipalKey, usecase.Principal{UserID: user.ID, Role: user.Role})
			return next(c)
		}
	}
}

// handlerから認証済み利用者を取り出す
func PrincipalFrom(c echo.Context) (usecase.Principal, bool) {
	p, ok := c.Get(CtxPrincipalKey).(usecase.Principal)
	return p, ok
}
