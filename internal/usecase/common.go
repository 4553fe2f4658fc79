package usecase

import (
	"context"
	"errors"
	"log/slog"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/logger"
	repo "refurbmarket/internal/repository"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// 一覧のpage/limit。0は既定値にする
type Paging struct {
	Page  int
	Limit int
}

func (p Paging) normalize() (Paging, error) {
	if p.Page == 0 {
		p.Page = defaultPage
	}
	if p.Limit == 0 {
		p.Limit = defaultLimit
	}
	if p.Page < 1 {
		return Paging{}, ErrValidation("invalid page")
	}
	if p.Limit < 1 || p.Limit > maxLimit {
		return Paging{}, ErrValidation("invalid limit")
	}
	return p, nil
}

// 一覧レスポンスのページ情報
type PageInfo struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

func newPageInfo(p Paging, total int64) PageInfo {
	pages := total / int64(p.Limit)
	if total%int64(p.Limit) != 0 {
		pages++
	}
	return PageInfo{Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}

// DB失敗はop名とidを付けてログに出してから500で返す
func storeFailure(ctx context.Context, op string, err error, attrs ...any) error {
	args := append([]any{slog.String("op", op), slog.Any("error", err)}, attrs...)
	logger.WithCtx(ctx).Error("store failure", args...)
	return ErrInternal()
}

func logWarn(ctx context.Context, msg string, args ...any) {
	logger.WithCtx(ctx).Warn(msg, args...)
}

// すでにHTTPErrorならそのまま、NotFoundは404、それ以外は500
func translateStoreError(ctx context.Context, op string, err error, notFoundMsg string, attrs ...any) error {
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound(notFoundMsg)
	}
	return storeFailure(ctx, op, err, attrs...)
}

// 認証済みの利用者
type Principal struct {
	UserID int64
	Role   model.Role
}
