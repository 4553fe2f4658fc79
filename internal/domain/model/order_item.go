package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。商品・出品者は削除されてもNULLになるだけで、名前と単価はスナップショットで残す
type OrderItem struct {
	ID                   int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID              int64           `gorm:"not null;index" json:"orderId"`
	ProductID            *int64          `gorm:"index" json:"productId"`
	Product              *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL" json:"-"`
	SellerID             *int64          `gorm:"index" json:"sellerId"`
	Seller               *User           `gorm:"foreignKey:SellerID;constraint:OnDelete:SET NULL" json:"-"`
	ProductNameSnapshot  string          `gorm:"type:varchar(255);not null" json:"productName"`
	ProductImageSnapshot string          `gorm:"type:varchar(500)" json:"productImage,omitempty"`
	Quantity             int64           `gorm:"not null;check:chk_order_items_quantity,quantity > 0" json:"quantity"`
	PriceAtPurchase      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"priceAtPurchase"`
	CreatedAt            time.Time       `json:"createdAt"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(i.Quantity))
}
