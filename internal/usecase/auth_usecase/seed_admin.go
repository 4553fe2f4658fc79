package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/repository"
	"refurbmarket/internal/usecase"
	"refurbmarket/internal/validator"
)

// 管理者は登録APIで作れないので、seedコマンドから作る
type SeedAdminInput struct {
	Name     string
	Email    string
	Password string
}

// 既にあれば何もしない。created=falseで既存を返す
func SeedAdmin(ctx context.Context, users repository.UserRepository, hasher usecase.PasswordHasher, in SeedAdminInput) (*model.User, bool, error) {
	email := strings.TrimSpace(in.Email)
	if err := validator.Email(email); err != nil {
		return nil, false, fmt.Errorf("seed admin: %w", err)
	}
	if err := validator.Password(in.Password); err != nil {
		return nil, false, fmt.Errorf("seed admin: %w", err)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Admin"
	}

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			return nil, false, fmt.Errorf("seed admin: %s is already registered as %s", email, existing.Role)
		}
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, fmt.Errorf("seed admin: find: %w", err)
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return nil, false, fmt.Errorf("seed admin: hash: %w", err)
	}
	admin := &model.User{Name: name, Email: email, PasswordHash: hash, Role: model.RoleAdmin}
	if err := users.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("seed admin: create: %w", err)
	}
	return admin, true, nil
}
