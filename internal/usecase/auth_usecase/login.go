package auth

import (
	"context"
	"errors"
	"strings"

	"refurbmarket/internal/repository"
	"refurbmarket/internal/usecase"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string
	Password string
}

// emailが無い場合もパスワード違いも同じ文言
const invalidCredentials = "invalid email or password"

// 照合と、ユーザーがいないときの空回し
type CredentialChecker interface {
	usecase.PasswordVerifier
	BurnCompare(plain string)
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	checker  CredentialChecker
	issuer   AccessTokenIssuer
	clock    Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	checker CredentialChecker,
	issuer AccessTokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		checker:  checker,
		issuer:   issuer,
		clock:    clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (AuthOutput, error) {
	var out AuthOutput

	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return out, usecase.ErrValidation("email and password are required")
	}

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			u.checker.BurnCompare(in.Password)
			return out, usecase.ErrUnauthorized(invalidCredentials)
		}
		return out, internal(ctx, "auth.login.lookup", err)
	}

	//パスワード照合
	if !u.checker.Verify(in.Password, user.PasswordHash) {
		return out, usecase.ErrUnauthorized(invalidCredentials)
	}

	now := u.clock.Now()
	token, exp, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return out, internal(ctx, "auth.login.token", err)
	}

	out.Token = token
	out.ExpiresIn = int64(exp.Sub(now).Seconds())
	out.User = *user
	return out, nil
}
