package repository

import (
	"context"

	"refurbmarket/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 並び替えに使える列
type ProductSort string

const (
	ProductSortCreatedAt ProductSort = "created_at"
	ProductSortUpdatedAt ProductSort = "updated_at"
	ProductSortPrice     ProductSort = "price"
	ProductSortName      ProductSort = "name"
)

// 一覧検索。Approvedがnilなら承認状態で絞らない（管理者用）
type ProductListQuery struct {
	Page       int
	Limit      int
	Category   string
	Brand      string
	Condition  model.Condition
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SearchTerm string
	SellerID   *int64
	Approved   *bool
	SortBy     ProductSort
	SortDesc   bool
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p *model.Product) error
	//承認フラグも含めて全項目を上書き
	Update(ctx context.Context, p model.Product) error
	SetApproved(ctx context.Context, id int64, approved bool) error
	Delete(ctx context.Context, id int64) error
}
