package auth

import (
	"context"
	"errors"
	"strings"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/logger"
	"refurbmarket/internal/repository"
	"refurbmarket/internal/usecase"
	"refurbmarket/internal/validator"
)

// 会員登録の入力
type RegisterUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string // 空ならbuyer
}

// 登録とログインの共通レスポンス
type AuthOutput struct {
	Token     string     `json:"token"`
	ExpiresIn int64      `json:"expiresIn"`
	User      model.User `json:"user"`
}

const errEmailTaken = "user with this email already exists"

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   usecase.PasswordHasher
	issuer   AccessTokenIssuer
	clock    Clock
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher usecase.PasswordHasher,
	issuer AccessTokenIssuer,
	clock Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		clock:    clock,
	}
}

// 会員登録実行。成功したらそのままトークンも返す
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (AuthOutput, error) {
	var out AuthOutput

	if err := validator.Name(in.Name); err != nil {
		return out, usecase.ErrValidation(err.Error())
	}
	email := strings.TrimSpace(in.Email)
	if err := validator.Email(email); err != nil {
		return out, usecase.ErrValidation(err.Error())
	}
	if err := validator.Password(in.Password); err != nil {
		return out, usecase.ErrValidation(err.Error())
	}

	role := model.RoleBuyer
	if strings.TrimSpace(in.Role) != "" {
		r, ok := model.ParseRole(in.Role)
		if !ok || !r.Registerable() {
			return out, usecase.ErrValidation("role must be buyer or seller")
		}
		role = r
	}

	// email重複チェック
	existing, err := u.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return out, usecase.ErrValidation(errEmailTaken)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return out, internal(ctx, "auth.register.lookup", err)
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, internal(ctx, "auth.register.hash", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hashed, // 平文は保存しない
		Role:         role,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		// 同時登録でUNIQUEに当たった場合
		if errors.Is(err, repository.ErrDuplicate) {
			return out, usecase.ErrValidation(errEmailTaken)
		}
		return out, internal(ctx, "auth.register.create", err)
	}

	now := u.clock.Now()
	token, exp, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return out, internal(ctx, "auth.register.token", err)
	}

	out.Token = token
	out.ExpiresIn = int64(exp.Sub(now).Seconds())
	out.User = *user
	return out, nil
}

func internal(ctx context.Context, op string, err error) error {
	logger.WithCtx(ctx).Error("auth failure", "op", op, "error", err)
	return usecase.ErrInternal()
}
