package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 中古品のコンディション
type Condition string

const (
	ConditionNewSealed Condition = "new_sealed"
	ConditionLikeNew   Condition = "like_new"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
)

func ParseCondition(s string) (Condition, bool) {
	switch c := Condition(strings.ToLower(strings.TrimSpace(s))); c {
	case ConditionNewSealed, ConditionLikeNew, ConditionExcellent, ConditionGood, ConditionFair:
		return c, true
	default:
		return "", false
	}
}

type Product struct {
	ID             int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string           `gorm:"type:varchar(255);not null" json:"name"`
	Description    string           `gorm:"type:text" json:"description"`
	Price          decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"price"`
	OriginalPrice  *decimal.Decimal `gorm:"type:numeric(12,2)" json:"originalPrice,omitempty"`
	DiscountPrice  *decimal.Decimal `gorm:"type:numeric(12,2)" json:"discountPrice,omitempty"`
	Category       string           `gorm:"type:varchar(100);index" json:"category"`
	Brand          string           `gorm:"type:varchar(100);index" json:"brand"`
	Condition      Condition        `gorm:"type:varchar(20);index" json:"condition"`
	StockQuantity  int64            `gorm:"not null;default:0;check:chk_products_stock_quantity,stock_quantity >= 0" json:"stockQuantity"`
	Images         StringList       `gorm:"type:text" json:"images"`
	SellerID       int64            `gorm:"not null;index" json:"sellerId"`
	Seller         *User            `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"-"`
	Specifications Specifications   `gorm:"type:text" json:"specifications"`
	Tags           TagSet           `gorm:"type:text" json:"tags"`
	Approved       bool             `gorm:"not null;default:false;index" json:"approved"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// 購入時の単価。割引価格が入っていて通常価格より安いときだけ割引を使う
func (p Product) PurchasePrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() && p.DiscountPrice.LessThan(p.Price) {
		return *p.DiscountPrice
	}
	return p.Price
}

// 一覧・詳細で出す1枚目の画像
func (p Product) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
