package repository

import (
	"context"
	"encoding/json"
	"strings"

	"refurbmarket/internal/domain/model"
	repo "refurbmarket/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 並び替え列はホワイトリストで決める
var productSortColumns = map[repo.ProductSort]string{
	repo.ProductSortCreatedAt: "created_at",
	repo.ProductSortUpdatedAt: "updated_at",
	repo.ProductSortPrice:     "price",
	repo.ProductSortName:      "name",
}

// 検索/価格帯/ソート/ページング付きで返す。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{})

	if q.Approved != nil {
		tx = tx.Where("approved = ?", *q.Approved)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.Brand != "" {
		tx = tx.Where("brand = ?", q.Brand)
	}
	if q.Condition != "" {
		// conditionはMySQLの予約語なのでmapで渡してクォートさせる
		tx = tx.Where(map[string]interface{}{"condition": q.Condition})
	}
	if q.SellerID != nil {
		tx = tx.Where("seller_id = ?", *q.SellerID)
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	// name/descriptionは部分一致、tagsは要素単位で一致（大文字小文字無視。ILIKEはpostgresだけなのでLOWER）
	if term := strings.ToLower(strings.TrimSpace(q.SearchTerm)); term != "" {
		like := "%" + escapeLike(term) + "%"
		tx = tx.Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!' OR LOWER(tags) LIKE ? ESCAPE '!')",
			like, like, "%"+escapeLike(tagElement(term))+"%")
	}

	//total（件数）
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	//sort
	col, ok := productSortColumns[q.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "asc"
	if q.SortDesc {
		dir = "desc"
	}
	tx = tx.Order(col + " " + dir).Order("id " + dir)

	products := []model.Product{}
	if err := tx.Offset(offsetOf(q.Page, q.Limit)).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if isNotFound(err) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// 商品の更新（承認フラグも上書き）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":           p.Name,
		"description":    p.Description,
		"price":          p.Price,
		"original_price": p.OriginalPrice,
		"discount_price": p.DiscountPrice,
		"category":       p.Category,
		"brand":          p.Brand,
		"condition":      p.Condition,
		"stock_quantity": p.StockQuantity,
		"images":         p.Images,
		"specifications": p.Specifications,
		"tags":           p.Tags,
		"approved":       p.Approved,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 承認フラグだけ変更
func (r *ProductGormRepository) SetApproved(ctx context.Context, id int64, approved bool) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("approved", approved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 物理削除。order_items.product_idはFKでNULLになる
func (r *ProductGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// LIKE用。エスケープ文字は '!'（'\' はDBごとにリテラルの扱いが違う）
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// tagsはJSON配列の文字列で保存しているので、要素1つ分の表現（"term"）で探す
func tagElement(term string) string {
	b, err := json.Marshal(term)
	if err != nil {
		return term
	}
	return string(b)
}
