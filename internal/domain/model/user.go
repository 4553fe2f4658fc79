package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// 文字列からRoleへ。未知の値はfalse
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleBuyer:
		return RoleBuyer, true
	case RoleSeller:
		return RoleSeller, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// 会員登録で選べるのはbuyer/sellerだけ（adminはseedで作る）
func (r Role) Registerable() bool {
	switch r {
	case RoleBuyer, RoleSeller:
		return true
	case RoleAdmin:
		return false
	default:
		return false
	}
}

// 商品を出品できるか
func (r Role) CanSell() bool {
	switch r {
	case RoleSeller, RoleAdmin:
		return true
	case RoleBuyer:
		return false
	default:
		return false
	}
}

type User struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"type:varchar(100);not null" json:"name"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"column:password_hash;not null" json:"-"`
	Role           Role      `gorm:"type:varchar(20);not null;default:'buyer';index" json:"role"`
	ProfilePicture string    `gorm:"type:varchar(500)" json:"profilePicture,omitempty"`
	Phone          string    `gorm:"type:varchar(30)" json:"phone,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
