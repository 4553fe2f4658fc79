package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"refurbmarket/internal/domain/model"
	repo "refurbmarket/internal/repository"

	"github.com/shopspring/decimal"
)

// 商品詳細のキャッシュ。loadはキャッシュに無いときだけ呼ばれる
type ProductCache interface {
	GetOrLoad(ctx context.Context, id int64, load func(ctx context.Context) (model.Product, error)) (model.Product, error)
	Invalidate(ctx context.Context, ids ...int64) error
}

// キャッシュなし
type noCache struct{}

func (noCache) GetOrLoad(ctx context.Context, _ int64, load func(ctx context.Context) (model.Product, error)) (model.Product, error) {
	return load(ctx)
}

func (noCache) Invalidate(context.Context, ...int64) error { return nil }

type ProductUsecase struct {
	products repo.ProductRepository
	tx       repo.TransactionManager
	cache    ProductCache
}

// DI。cacheはnilならキャッシュなし
func NewProductUsecase(products repo.ProductRepository, tx repo.TransactionManager, cache ProductCache) *ProductUsecase {
	if cache == nil {
		cache = noCache{}
	}
	return &ProductUsecase{products: products, tx: tx, cache: cache}
}

// GET /api/products の入力
type ListProductsInput struct {
	Paging
	Category   string
	Brand      string
	Condition  string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SearchTerm string
	SellerID   *int64
	SortBy     string // createdAt / price / name / updatedAt
	SortOrder  string // asc / desc
	Approved   *bool  // 管理者一覧だけ
}

type ProductListOutput struct {
	Products []model.Product `json:"products"`
	PageInfo
}

var productSortKeys = map[string]repo.ProductSort{
	"":          repo.ProductSortCreatedAt,
	"createdAt": repo.ProductSortCreatedAt,
	"updatedAt": repo.ProductSortUpdatedAt,
	"price":     repo.ProductSortPrice,
	"name":      repo.ProductSortName,
}

func (u *ProductUsecase) buildQuery(in ListProductsInput) (repo.ProductListQuery, Paging, error) {
	pg, err := in.Paging.normalize()
	if err != nil {
		return repo.ProductListQuery{}, Paging{}, err
	}
	if len(in.SearchTerm) > 100 {
		return repo.ProductListQuery{}, Paging{}, ErrValidation("searchTerm too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return repo.ProductListQuery{}, Paging{}, ErrValidation("minPrice must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return repo.ProductListQuery{}, Paging{}, ErrValidation("maxPrice must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return repo.ProductListQuery{}, Paging{}, ErrValidation("minPrice must be <= maxPrice")
	}

	var cond model.Condition
	if in.Condition != "" {
		c, ok := model.ParseCondition(in.Condition)
		if !ok {
			return repo.ProductListQuery{}, Paging{}, ErrValidation("invalid condition")
		}
		cond = c
	}

	sortBy, ok := productSortKeys[in.SortBy]
	if !ok {
		return repo.ProductListQuery{}, Paging{}, ErrValidation("invalid sortBy")
	}
	var desc bool
	switch strings.ToLower(in.SortOrder) {
	case "", "desc":
		desc = true
	case "asc":
		desc = false
	default:
		return repo.ProductListQuery{}, Paging{}, ErrValidation("invalid sortOrder")
	}

	return repo.ProductListQuery{
		Page:       pg.Page,
		Limit:      pg.Limit,
		Category:   strings.TrimSpace(in.Category),
		Brand:      strings.TrimSpace(in.Brand),
		Condition:  cond,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		SearchTerm: strings.TrimSpace(in.SearchTerm),
		SellerID:   in.SellerID,
		SortBy:     sortBy,
		SortDesc:   desc,
	}, pg, nil
}

// 公開一覧。承認済みだけ
func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	q, pg, err := u.buildQuery(in)
	if err != nil {
		return ProductListOutput{}, err
	}
	approved := true
	q.Approved = &approved
	return u.list(ctx, q, pg)
}

// 管理者一覧。未承認も含む（Approvedで絞れる）
func (u *ProductUsecase) AdminListProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	q, pg, err := u.buildQuery(in)
	if err != nil {
		return ProductListOutput{}, err
	}
	q.Approved = in.Approved
	return u.list(ctx, q, pg)
}

func (u *ProductUsecase) list(ctx context.Context, q repo.ProductListQuery, pg Paging) (ProductListOutput, error) {
	items, total, err := u.products.List(ctx, q)
	if err != nil {
		return ProductListOutput{}, storeFailure(ctx, "product.list", err)
	}
	return ProductListOutput{Products: items, PageInfo: newPageInfo(pg, total)}, nil
}

// 詳細。未承認は出品者本人と管理者にだけ見える（それ以外には404）
func (u *ProductUsecase) GetProductDetail(ctx context.Context, viewer *Principal, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, ErrValidation("invalid product id")
	}

	p, err := u.cache.GetOrLoad(ctx, productID, func(ctx context.Context) (model.Product, error) {
		return u.products.FindByID(ctx, productID)
	})
	if err != nil {
		return model.Product{}, translateStoreError(ctx, "product.get", err, "product not found", "product_id", productID)
	}

	if !p.Approved && !canManageProduct(viewer, p) {
		return model.Product{}, ErrNotFound("product not found")
	}
	return p, nil
}

// 作成・更新の入力（PUTなので全項目）
type ProductInput struct {
	Name           string
	Description    string
	Price          decimal.Decimal
	OriginalPrice  *decimal.Decimal
	DiscountPrice  *decimal.Decimal
	Category       string
	Brand          string
	Condition      string
	StockQuantity  int64
	Images         []string
	Specifications map[string]string
	Tags           []string
}

func (in ProductInput) validate() (model.Condition, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", ErrValidation("name is required")
	}
	if len(name) > 255 {
		return "", ErrValidation("name too long")
	}
	if !in.Price.IsPositive() {
		return "", ErrValidation("price must be > 0")
	}
	if in.OriginalPrice != nil && !in.OriginalPrice.IsPositive() {
		return "", ErrValidation("originalPrice must be > 0")
	}
	if in.DiscountPrice != nil && !in.DiscountPrice.IsPositive() {
		return "", ErrValidation("discountPrice must be > 0")
	}
	if in.StockQuantity < 0 {
		return "", ErrValidation("stockQuantity must be >= 0")
	}
	for _, img := range in.Images {
		if strings.TrimSpace(img) == "" {
			return "", ErrValidation("images must not contain empty url")
		}
	}
	cond, ok := model.ParseCondition(in.Condition)
	if !ok {
		return "", ErrValidation("condition must be one of new_sealed, like_new, excellent, good, fair")
	}
	return cond, nil
}

func (in ProductInput) apply(p *model.Product, cond model.Condition) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.OriginalPrice = in.OriginalPrice
	p.DiscountPrice = in.DiscountPrice
	p.Category = strings.TrimSpace(in.Category)
	p.Brand = strings.TrimSpace(in.Brand)
	p.Condition = cond
	p.StockQuantity = in.StockQuantity
	p.Images = model.StringList(append([]string{}, in.Images...))
	p.Specifications = model.Specifications{}
	for k, v := range in.Specifications {
		p.Specifications[k] = v
	}
	p.Tags = model.NewTagSet(in.Tags)
}

// 出品。sellerの商品は未承認で作る。管理者が作った商品は承認済み
func (u *ProductUsecase) CreateProduct(ctx context.Context, actor Principal, in ProductInput) (model.Product, error) {
	if !actor.Role.CanSell() {
		return model.Product{}, ErrForbidden("only sellers can create products")
	}
	cond, err := in.validate()
	if err != nil {
		return model.Product{}, err
	}

	p := model.Product{SellerID: actor.UserID, Approved: actor.Role == model.RoleAdmin}
	in.apply(&p, cond)

	if err := u.products.Create(ctx, &p); err != nil {
		return model.Product{}, storeFailure(ctx, "product.create", err, "seller_id", actor.UserID)
	}
	return p, nil
}

// 出品者本人の編集は承認を外す。管理者の編集は承認状態を変えない
func (u *ProductUsecase) UpdateProduct(ctx context.Context, actor Principal, productID int64, in ProductInput) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, ErrValidation("invalid product id")
	}
	cond, err := in.validate()
	if err != nil {
		return model.Product{}, err
	}

	p, err := u.products.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, translateStoreError(ctx, "product.update.find", err, "product not found", "product_id", productID)
	}
	if !canManageProduct(&actor, p) {
		return model.Product{}, ErrForbidden("not authorized to update this product")
	}

	in.apply(&p, cond)
	if actor.Role != model.RoleAdmin {
		p.Approved = false
	}

	if err := u.products.Update(ctx, p); err != nil {
		return model.Product{}, translateStoreError(ctx, "product.update", err, "product not found", "product_id", productID)
	}
	u.invalidate(ctx, productID)

	updated, err := u.products.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, translateStoreError(ctx, "product.update.reload", err, "product not found", "product_id", productID)
	}
	return updated, nil
}

// 承認（管理者だけ）
func (u *ProductUsecase) ApproveProduct(ctx context.Context, actor Principal, productID int64) (model.Product, error) {
	if actor.Role != model.RoleAdmin {
		return model.Product{}, ErrForbidden("admin only")
	}
	if productID <= 0 {
		return model.Product{}, ErrValidation("invalid product id")
	}

	var out model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := r.Products().SetApproved(ctx, productID, true); err != nil {
			return err
		}
		if err := r.AuditLogs().Create(ctx, auditEntry(actor, model.AuditActionApproveProduct, model.AuditResourceProduct, productID,
			map[string]interface{}{"approved": p.Approved},
			map[string]interface{}{"approved": true},
		)); err != nil {
			return err
		}
		p.Approved = true
		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, translateStoreError(ctx, "product.approve", err, "product not found", "product_id", productID)
	}
	u.invalidate(ctx, productID)
	return out, nil
}

// 削除（出品者本人 or 管理者）
func (u *ProductUsecase) DeleteProduct(ctx context.Context, actor Principal, productID int64) error {
	if productID <= 0 {
		return ErrValidation("invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if !canManageProduct(&actor, p) {
			return ErrForbidden("not authorized to delete this product")
		}
		if err := r.Products().Delete(ctx, productID); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, auditEntry(actor, model.AuditActionDeleteProduct, model.AuditResourceProduct, productID,
			map[string]interface{}{"name": p.Name, "sellerId": p.SellerID},
			nil,
		))
	})
	if err != nil {
		return translateStoreError(ctx, "product.delete", err, "product not found", "product_id", productID)
	}
	u.invalidate(ctx, productID)
	return nil
}

// キャッシュ削除の失敗はログだけ（TTLで消える）
func (u *ProductUsecase) invalidate(ctx context.Context, ids ...int64) {
	if err := u.cache.Invalidate(ctx, ids...); err != nil {
		logWarn(ctx, "product cache invalidate failed", "product_ids", ids, "error", err)
	}
}

func canManageProduct(viewer *Principal, p model.Product) bool {
	if viewer == nil {
		return false
	}
	switch viewer.Role {
	case model.RoleAdmin:
		return true
	case model.RoleSeller:
		return p.SellerID == viewer.UserID
	case model.RoleBuyer:
		return false
	default:
		return false
	}
}

func auditEntry(actor Principal, action model.AuditAction, rt model.AuditResourceType, id int64, before, after map[string]interface{}) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  actor.UserID,
		ActorRole:    actor.Role,
		Action:       action,
		ResourceType: rt,
		ResourceID:   id,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
	}
}

func toJSON(v map[string]interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
