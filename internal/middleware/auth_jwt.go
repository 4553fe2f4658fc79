package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"refurbmarket/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey    = "user_id"   // int64
	CtxUserRoleKey  = "user_role" // model.Role
	CtxPrincipalKey = "principal" // usecase.Principal
)

const (
	msgNoToken    = "not authorized, no token"
	msgAuthFailed = "authentication failed"
)

var errNoToken = errors.New("no token")

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, role, err := parseBearer(c, secret)
			if errors.Is(err, errNoToken) {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgNoToken))
			}
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgAuthFailed))
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, role)
			return next(c)
		}
	}
}

// トークンがあれば読む。無い・壊れている場合は匿名で通す（商品詳細用）
func OptionalAuthJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, role, err := parseBearer(c, secret)
			if err == nil {
				c.Set(CtxUserIDKey, userID)
				c.Set(CtxUserRoleKey, role)
			}
			return next(c)
		}
	}
}

func parseBearer(c echo.Context, secret string) (int64, model.Role, error) {
	//Authorizationヘッダを取得
	authz := c.Request().Header.Get("Authorization")
	if authz == "" {
		return 0, "", errNoToken
	}

	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return 0, "", errNoToken
	}
	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return 0, "", errNoToken
	}

	//JWTをパースして検証する（HS256だけ）
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return 0, "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid claims")
	}
	//expなしのトークンは受けない（MapClaimsのままだと期限なしで通る）
	if !claims.VerifyExpiresAt(time.Now().Unix(), true) {
		return 0, "", errors.New("missing or expired exp")
	}

	userID, err := parseUserID(claims["id"])
	if err != nil || userID <= 0 {
		return 0, "", errors.New("invalid id")
	}

	//roleを取り出す（buyer/seller/admin）
	rawRole, _ := claims["role"].(string)
	role, ok := model.ParseRole(rawRole)
	if !ok {
		return 0, "", errors.New("invalid role")
	}
	return userID, role, nil
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Success: false, Error: msg}
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid id")
	}
}
