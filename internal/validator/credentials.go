package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrWeakPassword     = errors.New("password is too common")
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name too long")
	ErrInvalidPhone     = errors.New("invalid phone number")
)

const (
	MinPasswordLen = 8
	// bcryptは72バイトより後ろを見ない
	maxPasswordBytes = 72
	maxNameLen       = 100
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9 \-]{6,20}$`)
)

// よくある弱いパスワード
var weakPasswords = map[string]struct{}{
	"password":     {},
	"password123":  {},
	"123456789012": {},
	"1234567890":   {},
	"12345678":     {},
	"qwerty":       {},
	"qwertyuiop":   {},
	"letmein":      {},
	"admin":        {},
	"admin123":     {},
}

// 簡易メール形式チェック
func Email(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || !emailRe.MatchString(s) {
		return ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func Password(pw string) error {
	if len(pw) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	if len(pw) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	if _, ok := weakPasswords[strings.ToLower(strings.TrimSpace(pw))]; ok {
		return ErrWeakPassword
	}
	return nil
}

func Name(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrNameRequired
	}
	if len(s) > maxNameLen {
		return ErrNameTooLong
	}
	return nil
}

// 空はOK（任意項目）
func Phone(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !phoneRe.MatchString(s) {
		return ErrInvalidPhone
	}
	return nil
}
