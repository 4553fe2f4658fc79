package usecase

import (
	"context"
	"fmt"
	"strings"

	"refurbmarket/internal/domain/model"
	repo "refurbmarket/internal/repository"

	"github.com/shopspring/decimal"
)

// 注文まわりのメトリクス（nilなら記録しない）
type OrderMetrics interface {
	OrderPlaced()
	StockConflict()
}

type noMetrics struct{}

func (noMetrics) OrderPlaced()   {}
func (noMetrics) StockConflict() {}

type OrderUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	products repo.ProductRepository
	payments PaymentGateway
	cache    ProductCache
	metrics  OrderMetrics
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	products repo.ProductRepository,
	payments PaymentGateway,
	cache ProductCache,
	metrics OrderMetrics,
) *OrderUsecase {
	if cache == nil {
		cache = noCache{}
	}
	if metrics == nil {
		metrics = noMetrics{}
	}
	return &OrderUsecase{
		tx:       tx,
		orders:   orders,
		products: products,
		payments: payments,
		cache:    cache,
		metrics:  metrics,
	}
}

type OrderItemInput struct {
	ProductID int64
	Quantity  int64
}

type PlaceOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress *model.ShippingAddress
	PaymentMethod   string
	PaymentDetails  *model.PaymentDetails
}

type OrderListOutput struct {
	Orders []model.Order `json:"orders"`
	PageInfo
}

func validateItems(items []OrderItemInput) error {
	if len(items) == 0 {
		return ErrValidation("order must contain at least one item")
	}
	for _, it := range items {
		if it.ProductID <= 0 {
			return ErrValidation("invalid productId")
		}
		if it.Quantity <= 0 {
			return ErrValidation("quantity must be > 0")
		}
	}
	return nil
}

// 商品を引いて明細スナップショットを作る。価格・出品者は必ずDBの商品から取る
func snapshotLines(ctx context.Context, products repo.ProductRepository, items []OrderItemInput) ([]model.OrderItem, decimal.Decimal, error) {
	lines := make([]model.OrderItem, 0, len(items))
	total := decimal.Zero

	for _, it := range items {
		p, err := products.FindByID(ctx, it.ProductID)
		if err != nil {
			return nil, decimal.Zero, translateStoreError(ctx, "order.snapshot", err,
				fmt.Sprintf("product with id %d not found", it.ProductID), "product_id", it.ProductID)
		}
		if !p.Approved {
			return nil, decimal.Zero, ErrInvalidState(fmt.Sprintf("product %s is not approved for sale", p.Name))
		}
		if it.Quantity > p.StockQuantity {
			return nil, decimal.Zero, ErrInsufficientStock(p.ID, p.Name, p.StockQuantity)
		}

		productID, sellerID := p.ID, p.SellerID
		line := model.OrderItem{
			ProductID:            &productID,
			SellerID:             &sellerID,
			ProductNameSnapshot:  p.Name,
			ProductImageSnapshot: p.CoverImage(),
			Quantity:             it.Quantity,
			PriceAtPurchase:      p.PurchasePrice(),
		}
		lines = append(lines, line)
		total = total.Add(line.LineTotal())
	}
	return lines, total, nil
}

// 注文確定。ヘッダ・明細・在庫減算を1トランザクションでまとめて書く
func (u *OrderUsecase) PlaceOrder(ctx context.Context, buyer Principal, in PlaceOrderInput) (model.Order, error) {
	if buyer.Role != model.RoleBuyer {
		return model.Order{}, ErrForbidden("only buyers can place orders")
	}
	if err := validateItems(in.Items); err != nil {
		return model.Order{}, err
	}
	if in.ShippingAddress == nil {
		return model.Order{}, ErrValidation("shipping address is required")
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return model.Order{}, ErrValidation(err.Error())
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return model.Order{}, ErrValidation("payment method is required")
	}

	paymentStatus, details := u.resolvePayment(ctx, in.PaymentDetails)

	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		lines, total, err := snapshotLines(ctx, r.Products(), in.Items)
		if err != nil {
			return err
		}

		order := model.Order{
			UserID:          buyer.UserID,
			TotalAmount:     total,
			ShippingAddress: *in.ShippingAddress,
			PaymentMethod:   method,
			PaymentDetails:  details,
			PaymentStatus:   paymentStatus,
			OrderStatus:     model.OrderStatusPending,
		}
		if err := r.Orders().Create(ctx, &order); err != nil {
			return err
		}

		created, err := r.OrderItems().CreateBulk(ctx, order.ID, lines)
		if err != nil {
			return err
		}

		// 条件付き減算。ここで負けたら（同時購入）全部rollback
		for _, line := range created {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, *line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return u.shortageAfterRace(ctx, r, *line.ProductID, line.ProductNameSnapshot)
			}
		}

		order.Items = created
		out = order
		return nil
	})
	if err != nil {
		if IsKind(err, KindInsufficientStock) {
			u.metrics.StockConflict()
		}
		return model.Order{}, translateStoreError(ctx, "order.place", err, "order not found", "buyer_id", buyer.UserID)
	}

	u.metrics.OrderPlaced()
	ids := make([]int64, 0, len(out.Items))
	for _, it := range out.Items {
		ids = append(ids, *it.ProductID)
	}
	if err := u.cache.Invalidate(ctx, ids...); err != nil {
		logWarn(ctx, "product cache invalidate failed", "product_ids", ids, "error", err)
	}
	return out, nil
}

// 減算に負けたときの在庫数を取り直してエラーにする
func (u *OrderUsecase) shortageAfterRace(ctx context.Context, r repo.TxRepos, productID int64, name string) error {
	p, err := r.Products().FindByID(ctx, productID)
	if err != nil {
		return ErrInsufficientStock(productID, name, 0)
	}
	return ErrInsufficientStock(productID, p.Name, p.StockQuantity)
}

// 決済情報が無ければpending。あればゲートウェイで検証してpaid/failed
func (u *OrderUsecase) resolvePayment(ctx context.Context, details *model.PaymentDetails) (model.PaymentStatus, model.PaymentDetails) {
	if details == nil || !details.Supplied() || u.payments == nil {
		if details == nil {
			return model.PaymentStatusPending, model.PaymentDetails{}
		}
		return model.PaymentStatusPending, *details
	}

	res, err := u.payments.Verify(ctx, *details)
	if err != nil {
		logWarn(ctx, "payment verification failed", "intent_id", details.IntentID, "error", err)
		return model.PaymentStatusFailed, *details
	}
	verified := *details
	if res.PaymentID != "" {
		verified.PaymentID = res.PaymentID
	}
	verified.Gateway = res.Gateway
	if !res.Success {
		return model.PaymentStatusFailed, verified
	}
	return model.PaymentStatusPaid, verified
}

// 自分の注文一覧（新しい順）
func (u *OrderUsecase) ListMyOrders(ctx context.Context, buyer Principal, paging Paging) (OrderListOutput, error) {
	pg, err := paging.normalize()
	if err != nil {
		return OrderListOutput{}, err
	}

	orders, total, err := u.orders.ListByUserID(ctx, buyer.UserID, repo.OrderListQuery{Page: pg.Page, Limit: pg.Limit})
	if err != nil {
		return OrderListOutput{}, storeFailure(ctx, "order.list_mine", err, "user_id", buyer.UserID)
	}
	return OrderListOutput{Orders: orders, PageInfo: newPageInfo(pg, total)}, nil
}

type SellerOrdersInput struct {
	Paging
	SellerID *int64 // 管理者だけ指定できる
	Status   string
}

// 出品者の注文一覧。明細はその出品者の分だけに絞る
func (u *OrderUsecase) ListSellerOrders(ctx context.Context, viewer Principal, in SellerOrdersInput) (OrderListOutput, error) {
	sellerID := viewer.UserID
	switch viewer.Role {
	case model.RoleSeller:
		if in.SellerID != nil && *in.SellerID != viewer.UserID {
			return OrderListOutput{}, ErrForbidden("sellers can only view their own orders")
		}
	case model.RoleAdmin:
		if in.SellerID != nil {
			sellerID = *in.SellerID
		}
	case model.RoleBuyer:
		return OrderListOutput{}, ErrForbidden("sellers or admins only")
	default:
		return OrderListOutput{}, ErrForbidden("sellers or admins only")
	}
	if sellerID <= 0 {
		return OrderListOutput{}, ErrValidation("invalid sellerId")
	}

	pg, err := in.Paging.normalize()
	if err != nil {
		return OrderListOutput{}, err
	}
	q := repo.OrderListQuery{Page: pg.Page, Limit: pg.Limit}
	if in.Status != "" {
		st, ok := model.ParseOrderStatus(in.Status)
		if !ok {
			return OrderListOutput{}, ErrValidation("invalid status")
		}
		q.Status = &st
	}

	orders, total, err := u.orders.ListBySellerID(ctx, sellerID, q)
	if err != nil {
		return OrderListOutput{}, storeFailure(ctx, "order.list_seller", err, "seller_id", sellerID)
	}
	for i := range orders {
		orders[i].Items = itemsOfSeller(orders[i].Items, sellerID)
	}
	return OrderListOutput{Orders: orders, PageInfo: newPageInfo(pg, total)}, nil
}

// 注文詳細。購入者本人・関係する出品者・管理者だけ
func (u *OrderUsecase) GetOrder(ctx context.Context, viewer Principal, orderID int64) (model.Order, error) {
	if orderID <= 0 {
		return model.Order{}, ErrValidation("invalid order id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		return model.Order{}, translateStoreError(ctx, "order.get", err, "order not found", "order_id", orderID)
	}

	switch viewer.Role {
	case model.RoleAdmin:
		return o, nil
	case model.RoleSeller:
		if o.InvolvesSeller(viewer.UserID) {
			o.Items = itemsOfSeller(o.Items, viewer.UserID)
			return o, nil
		}
	case model.RoleBuyer:
		if o.UserID == viewer.UserID {
			return o, nil
		}
	}
	return model.Order{}, ErrForbidden("not authorized to view this order")
}

func itemsOfSeller(items []model.OrderItem, sellerID int64) []model.OrderItem {
	out := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		if it.SellerID != nil && *it.SellerID == sellerID {
			out = append(out, it)
		}
	}
	return out
}
