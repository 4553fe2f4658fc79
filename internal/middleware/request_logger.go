package middleware

import (
	"log/slog"
	"time"

	"refurbmarket/internal/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const HeaderRequestID = "X-Request-ID"

// リクエストIDを振って、そのIDつきのloggerをcontextに入れる。終わったら1行ログ
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(HeaderRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, rid)

			l := base.With("request_id", rid)
			c.SetRequest(req.WithContext(logger.Inject(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			attrs := []any{
				"method", req.Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
			}
			if id, ok := c.Get(CtxUserIDKey).(int64); ok {
				attrs = append(attrs, "user_id", id)
			}
			if c.Response().Status >= 500 {
				l.Error("request", attrs...)
			} else {
				l.Info("request", attrs...)
			}
			return nil
		}
	}
}
