package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusCompleted  OrderStatus = "completed"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusCompleted:
		return st, true
	default:
		return "", false
	}
}

// sellerが動かせる遷移。ここに無いものは全部禁止
var sellerTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
}

func (s OrderStatus) SellerCanTransitionTo(next OrderStatus) bool {
	for _, to := range sellerTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// 発送済み以降 or キャンセル済み。sellerはもう触れない
// completedはdeliveredと同じ扱い
func (s OrderStatus) Settled() bool {
	switch s {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	case OrderStatusPending, OrderStatusProcessing:
		return false
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch st := PaymentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return st, true
	default:
		return "", false
	}
}

type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64           `gorm:"not null;index" json:"userId"`
	User            *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"totalAmount"`
	ShippingAddress ShippingAddress `gorm:"type:text;not null" json:"shippingAddress"`
	PaymentMethod   string          `gorm:"type:varchar(50)" json:"paymentMethod"`
	PaymentDetails  PaymentDetails  `gorm:"type:text" json:"paymentDetails"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"paymentStatus"`
	OrderStatus     OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"orderStatus"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// sellerの明細が1つでも入っているか
func (o Order) InvolvesSeller(sellerID int64) bool {
	for _, it := range o.Items {
		if it.SellerID != nil && *it.SellerID == sellerID {
			return true
		}
	}
	return false
}
