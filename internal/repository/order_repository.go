package repository

import (
	"context"

	"refurbmarket/internal/domain/model"
)

type OrderListQuery struct {
	Page   int
	Limit  int
	Status *model.OrderStatus
}

// 取得系は明細(Items)込みで返す
type OrderRepository interface {
	//ヘッダだけ作る。明細はOrderItemRepositoryで
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, q OrderListQuery) ([]model.Order, int64, error)
	//その出品者の明細を1つでも含む注文
	ListBySellerID(ctx context.Context, sellerID int64, q OrderListQuery) ([]model.Order, int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	//まだ支払えるとき（paid/refundedでもcancelledでもない）だけ書く。書けなければfalse
	UpdatePaymentIfPayable(ctx context.Context, orderID int64, status model.PaymentStatus, details model.PaymentDetails) (bool, error)
}
