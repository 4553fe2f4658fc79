package usecase

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   ErrorKind
	}{
		{ErrValidation("x"), http.StatusBadRequest, KindValidation},
		{ErrUnauthorized("x"), http.StatusUnauthorized, KindUnauthorized},
		{ErrForbidden("x"), http.StatusForbidden, KindForbidden},
		{ErrForbiddenTransition("x"), http.StatusForbidden, KindForbiddenTransition},
		{ErrNotFound("x"), http.StatusNotFound, KindNotFound},
		{ErrInvalidState("x"), http.StatusBadRequest, KindInvalidState},
		{ErrInternal(), http.StatusInternalServerError, KindInternal},
		{ErrInsufficientStock(1, "phone", 2), http.StatusConflict, KindInsufficientStock},
	}
	for _, tc := range cases {
		he, ok := AsHTTPError(tc.err)
		require.True(t, ok)
		assert.Equal(t, tc.status, he.Status)
		assert.Equal(t, tc.kind, he.Kind)
	}
}

func TestAsHTTPError_Wrapped(t *testing.T) {
	err := fmt.Errorf("place order: %w", ErrInsufficientStock(3, "ThinkPad", 1))

	he, ok := AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, "not enough stock for ThinkPad. available: 1", he.Message)
	assert.Equal(t, &StockShortage{ProductID: 3, ProductName: "ThinkPad", Available: 1}, he.Stock)
	assert.True(t, IsKind(err, KindInsufficientStock))
	assert.False(t, IsKind(fmt.Errorf("plain"), KindInsufficientStock))
}
