package handler

import (
	"net/http"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/middleware"
	"refurbmarket/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /products の公開APIと出品・承認
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 商品のルートを登録
func (h *ProductHandler) RegisterRoutes(api *echo.Group, ac AuthChain) {
	g := api.Group("/products")
	g.GET("", h.list)
	g.GET("/admin", h.adminList, ac.Required, middleware.RequireRole(model.RoleAdmin))
	g.GET("/:id", h.detail, ac.Optional)

	g.POST("", h.create, ac.Required, middleware.RequireRole(model.RoleSeller, model.RoleAdmin))
	g.PUT("/:id", h.update, ac.Required, middleware.RequireRole(model.RoleSeller, model.RoleAdmin))
	g.DELETE("/:id", h.delete, ac.Required, middleware.RequireRole(model.RoleSeller, model.RoleAdmin))
	g.PATCH("/:id/approve", h.approve, ac.Required, middleware.RequireRole(model.RoleAdmin))
}

type productRequest struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	OriginalPrice  *decimal.Decimal  `json:"originalPrice"`
	DiscountPrice  *decimal.Decimal  `json:"discountPrice"`
	Category       string            `json:"category"`
	Brand          string            `json:"brand"`
	Condition      string            `json:"condition"`
	StockQuantity  int64             `json:"stockQuantity"`
	Images         []string          `json:"images"`
	Specifications map[string]string `json:"specifications"`
	Tags           []string          `json:"tags"`
}

func (r productRequest) toInput() usecase.ProductInput {
	return usecase.ProductInput{
		Name:           r.Name,
		Description:    r.Description,
		Price:          r.Price,
		OriginalPrice:  r.OriginalPrice,
		DiscountPrice:  r.DiscountPrice,
		Category:       r.Category,
		Brand:          r.Brand,
		Condition:      r.Condition,
		StockQuantity:  r.StockQuantity,
		Images:         r.Images,
		Specifications: r.Specifications,
		Tags:           r.Tags,
	}
}

// クエリから一覧条件を作る
func listInput(c echo.Context) (usecase.ListProductsInput, error) {
	pg, err := paging(c)
	if err != nil {
		return usecase.ListProductsInput{}, err
	}
	minPrice, err := queryDecimalPtr(c, "minPrice")
	if err != nil {
		return usecase.ListProductsInput{}, err
	}
	maxPrice, err := queryDecimalPtr(c, "maxPrice")
	if err != nil {
		return usecase.ListProductsInput{}, err
	}
	sellerID, err := queryInt64Ptr(c, "sellerId")
	if err != nil {
		return usecase.ListProductsInput{}, err
	}

	return usecase.ListProductsInput{
		Paging:     pg,
		Category:   c.QueryParam("category"),
		Brand:      c.QueryParam("brand"),
		Condition:  c.QueryParam("condition"),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		SearchTerm: c.QueryParam("searchTerm"),
		SellerID:   sellerID,
		SortBy:     c.QueryParam("sortBy"),
		SortOrder:  c.QueryParam("sortOrder"),
	}, nil
}

func (h *ProductHandler) list(c echo.Context) error {
	in, err := listInput(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) adminList(c echo.Context) error {
	in, err := listInput(c)
	if err != nil {
		return writeError(c, err)
	}
	if in.Approved, err = queryBoolPtr(c, "approved"); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AdminListProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var viewer *usecase.Principal
	if p, ok := middleware.PrincipalFrom(c); ok {
		viewer = &p
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), viewer, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) create(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var req productRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.CreateProduct(c.Request().Context(), actor, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) update(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req productRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.UpdateProduct(c.Request().Context(), actor, id, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) delete(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.DeleteProduct(c.Request().Context(), actor, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "product removed"})
}

func (h *ProductHandler) approve(c echo.Context) error {
	actor, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.ApproveProduct(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
