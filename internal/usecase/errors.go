package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// エラーの種類。handlerでHTTPステータスとJSONに変換する
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindForbidden           ErrorKind = "forbidden"
	KindForbiddenTransition ErrorKind = "forbidden_transition"
	KindNotFound            ErrorKind = "not_found"
	KindInsufficientStock   ErrorKind = "insufficient_stock"
	KindInvalidState        ErrorKind = "invalid_state"
	KindInternal            ErrorKind = "internal"
)

// 在庫不足の詳細（画面表示用）
type StockShortage struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Available   int64  `json:"available"`
}

type HTTPError struct {
	Status  int
	Kind    ErrorKind
	Message string
	Stock   *StockShortage
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, kind ErrorKind, message string) error {
	return &HTTPError{
		Status:  status,
		Kind:    kind,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 種類ごとのコンストラクタ

func ErrValidation(msg string) error {
	return NewHTTPError(http.StatusBadRequest, KindValidation, msg)
}

func ErrUnauthorized(msg string) error {
	return NewHTTPError(http.StatusUnauthorized, KindUnauthorized, msg)
}

func ErrForbidden(msg string) error {
	return NewHTTPError(http.StatusForbidden, KindForbidden, msg)
}

func ErrForbiddenTransition(msg string) error {
	return NewHTTPError(http.StatusForbidden, KindForbiddenTransition, msg)
}

func ErrNotFound(msg string) error {
	return NewHTTPError(http.StatusNotFound, KindNotFound, msg)
}

func ErrInvalidState(msg string) error {
	return NewHTTPError(http.StatusBadRequest, KindInvalidState, msg)
}

// 500の中身は外に出さない
func ErrInternal() error {
	return NewHTTPError(http.StatusInternalServerError, KindInternal, "internal error")
}

func ErrInsufficientStock(productID int64, name string, available int64) error {
	return &HTTPError{
		Status:  http.StatusConflict,
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("not enough stock for %s. available: %d", name, available),
		Stock:   &StockShortage{ProductID: productID, ProductName: name, Available: available},
	}
}

// errのKindがkindか
func IsKind(err error, kind ErrorKind) bool {
	he, ok := AsHTTPError(err)
	return ok && he.Kind == kind
}
