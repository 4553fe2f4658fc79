package repository

import "errors"

var (
	// 対象なし
	ErrNotFound = errors.New("not found")
	// unique制約違反
	ErrDuplicate = errors.New("duplicate")
)
