package usecase

import (
	"context"
	"errors"
	"strings"

	"refurbmarket/internal/domain/model"
	repo "refurbmarket/internal/repository"
	"refurbmarket/internal/validator"
)

// 平文パスワードからハッシュへ
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 入力パスワードと保存したハッシュを比べる
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

type UserUsecase struct {
	users    repo.UserRepository
	hasher   PasswordHasher
	verifier PasswordVerifier
}

func NewUserUsecase(users repo.UserRepository, hasher PasswordHasher, verifier PasswordVerifier) *UserUsecase {
	return &UserUsecase{users: users, hasher: hasher, verifier: verifier}
}

func (u *UserUsecase) GetProfile(ctx context.Context, p Principal) (model.User, error) {
	user, err := u.users.FindByID(ctx, p.UserID)
	if err != nil {
		return model.User{}, translateStoreError(ctx, "user.profile", err, "user not found", "user_id", p.UserID)
	}
	return *user, nil
}

// nilの項目は変更しない
type UpdateProfileInput struct {
	Name           *string
	Email          *string
	ProfilePicture *string
	Phone          *string
}

func (u *UserUsecase) UpdateProfile(ctx context.Context, p Principal, in UpdateProfileInput) (model.User, error) {
	user, err := u.users.FindByID(ctx, p.UserID)
	if err != nil {
		return model.User{}, translateStoreError(ctx, "user.update.find", err, "user not found", "user_id", p.UserID)
	}

	if in.Name != nil {
		if err := validator.Name(*in.Name); err != nil {
			return model.User{}, ErrValidation(err.Error())
		}
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validator.Email(email); err != nil {
			return model.User{}, ErrValidation(err.Error())
		}
		if email != user.Email {
			existing, err := u.users.FindByEmail(ctx, email)
			if err == nil && existing != nil {
				return model.User{}, ErrValidation("user with this email already exists")
			}
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return model.User{}, storeFailure(ctx, "user.update.email", err, "user_id", p.UserID)
			}
		}
		user.Email = email
	}
	if in.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*in.ProfilePicture)
	}
	if in.Phone != nil {
		if err := validator.Phone(*in.Phone); err != nil {
			return model.User{}, ErrValidation(err.Error())
		}
		user.Phone = strings.TrimSpace(*in.Phone)
	}

	if err := u.users.UpdateProfile(ctx, user); err != nil {
		// 事前チェックとUPDATEの間に同じemailが入った場合
		if errors.Is(err, repo.ErrDuplicate) {
			return model.User{}, ErrValidation("user with this email already exists")
		}
		return model.User{}, translateStoreError(ctx, "user.update", err, "user not found", "user_id", p.UserID)
	}
	return *user, nil
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

func (u *UserUsecase) ChangePassword(ctx context.Context, p Principal, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return ErrValidation("currentPassword and newPassword are required")
	}
	if err := validator.Password(in.NewPassword); err != nil {
		return ErrValidation(err.Error())
	}

	user, err := u.users.FindByID(ctx, p.UserID)
	if err != nil {
		return translateStoreError(ctx, "user.password.find", err, "user not found", "user_id", p.UserID)
	}
	if !u.verifier.Verify(in.CurrentPassword, user.PasswordHash) {
		return ErrUnauthorized("current password is incorrect")
	}

	hash, err := u.hasher.Hash(in.NewPassword)
	if err != nil {
		return storeFailure(ctx, "user.password.hash", err, "user_id", p.UserID)
	}
	if err := u.users.UpdatePasswordHash(ctx, p.UserID, hash); err != nil {
		return translateStoreError(ctx, "user.password.update", err, "user not found", "user_id", p.UserID)
	}
	return nil
}

type ListUsersInput struct {
	Paging
	Role string
}

type UserListOutput struct {
	Users []model.User `json:"users"`
	PageInfo
}

// 管理者のユーザー一覧（roleで絞れる）
func (u *UserUsecase) AdminListUsers(ctx context.Context, in ListUsersInput) (UserListOutput, error) {
	pg, err := in.Paging.normalize()
	if err != nil {
		return UserListOutput{}, err
	}
	q := repo.UserListQuery{Page: pg.Page, Limit: pg.Limit}
	if in.Role != "" {
		r, ok := model.ParseRole(in.Role)
		if !ok {
			return UserListOutput{}, ErrValidation("invalid role")
		}
		q.Role = &r
	}

	users, total, err := u.users.List(ctx, q)
	if err != nil {
		return UserListOutput{}, storeFailure(ctx, "user.list", err)
	}
	return UserListOutput{Users: users, PageInfo: newPageInfo(pg, total)}, nil
}

func (u *UserUsecase) AdminGetUser(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, ErrValidation("invalid user id")
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return model.User{}, translateStoreError(ctx, "user.get", err, "user not found", "user_id", userID)
	}
	return *user, nil
}
