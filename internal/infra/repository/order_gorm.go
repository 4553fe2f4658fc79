package repository

import (
	"context"

	"refurbmarket/internal/domain/model"
	repo "refurbmarket/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// 明細はid順
func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("id asc")
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("id = ?", orderID).
		First(&o).Error
	if isNotFound(err) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, q repo.OrderListQuery) ([]model.Order, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID)
	return r.list(tx, q)
}

// その出品者の明細を含む注文（明細は全部返す。絞るのはusecase）
func (r *OrderGormRepository) ListBySellerID(ctx context.Context, sellerID int64, q repo.OrderListQuery) ([]model.Order, int64, error) {
	sub := r.db.Model(&model.OrderItem{}).Select("order_id").Where("seller_id = ?", sellerID)
	tx := r.db.WithContext(ctx).Model(&model.Order{}).Where("id IN (?)", sub)
	return r.list(tx, q)
}

func (r *OrderGormRepository) list(tx *gorm.DB, q repo.OrderListQuery) ([]model.Order, int64, error) {
	if q.Status != nil {
		tx = tx.Where("order_status = ?", *q.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	orders := []model.Order{}
	err := tx.
		Preload("Items", preloadItems).
		Order("id desc").
		Limit(q.Limit).
		Offset(offsetOf(q.Page, q.Limit)).
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, 0, err
	}
	return orders, total, nil
}

// ヘッダだけ保存（Itemsは別で入れる）
func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

// statusとupdated_atだけ。明細には触らない
func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("order_status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 支払い済み・返金済み・キャンセル済みの注文には書かない。
// 条件付きUPDATE1文なので、後から終わった検証がpaidを上書きすることはない
func (r *OrderGormRepository) UpdatePaymentIfPayable(ctx context.Context, orderID int64, status model.PaymentStatus, details model.PaymentDetails) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status NOT IN ? AND order_status <> ?", orderID,
			[]model.PaymentStatus{model.PaymentStatusPaid, model.PaymentStatusRefunded},
			model.OrderStatusCancelled).
		Updates(map[string]interface{}{
			"payment_status":  status,
			"payment_details": details,
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
