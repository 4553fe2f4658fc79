package repository

import (
	"context"

	"refurbmarket/internal/domain/model"
)

// 管理者用のユーザー一覧条件
type UserListQuery struct {
	Page  int
	Limit int
	Role  *model.Role
}

// 保存・取得を約束。見つからないときはErrNotFound
type UserRepository interface {
	//新規ユーザー作成（email重複はErrDuplicate）
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//emailは大文字小文字を区別して完全一致
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	//プロフィール項目（name/email/picture/phone）だけ更新する
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
	List(ctx context.Context, q UserListQuery) ([]model.User, int64, error)
}
