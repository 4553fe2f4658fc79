package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"refurbmarket/internal/handler"
	"refurbmarket/internal/metrics"
	"refurbmarket/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type Options struct {
	FEURL         string
	AuthRateLimit float64 // 0以下なら制限なし
	Logger        *slog.Logger
	Metrics       *metrics.Metrics // nilなら/metricsなし
}

// echoを組み立てる。ルートはroutes.go
func New(opts Options, ac handler.AuthChain, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{opts.FEURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, middleware.HeaderRequestID},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestLogger(logger))
	if opts.Metrics != nil {
		e.Use(opts.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}

	var limiter echo.MiddlewareFunc
	if opts.AuthRateLimit > 0 {
		limiter = echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
			Store: echomw.NewRateLimiterMemoryStore(rate.Limit(opts.AuthRateLimit)),
			DenyHandler: func(c echo.Context, _ string, _ error) error {
				return c.JSON(http.StatusTooManyRequests, handler.ErrorResponse{Error: "too many requests, please try again later"})
			},
		})
	}

	RegisterRoutes(e, ac, limiter, h)
	return e
}

// ctxがキャンセルされたら受付をやめて処理中のリクエストを待つ
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
