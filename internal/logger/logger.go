package logger

import (
	"context"
	"io"
	"log/slog"
)

// 本番はJSON（ログ基盤向け）、それ以外はテキスト
func New(w io.Writer, prod bool) *slog.Logger {
	if prod {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type ctxKey struct{}

// request_id付きのloggerをcontextに入れる（RequestLoggerミドルウェアが呼ぶ）
func Inject(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// contextのloggerを返す。無ければslog.Default()
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
