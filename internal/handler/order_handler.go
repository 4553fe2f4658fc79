package handler

import (
	"net/http"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/middleware"
	"refurbmarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group, ac AuthChain) {
	buyer := middleware.RequireRole(model.RoleBuyer)
	sellerOrAdmin := middleware.RequireRole(model.RoleSeller, model.RoleAdmin)

	g := api.Group("/orders", ac.Required)
	g.POST("", h.create, buyer)
	g.GET("/my-orders", h.myOrders, buyer)
	g.GET("/seller-orders", h.sellerOrders, sellerOrAdmin)
	g.GET("/seller-orders/:sellerId", h.sellerOrders, sellerOrAdmin)
	g.GET("/:id", h.detail)
	g.PATCH("/:id/status", h.updateStatus, sellerOrAdmin)
	g.POST("/:id/payment/verify", h.verifyPayment, buyer)

	api.POST("/payments/intent", h.paymentIntent, ac.Required, buyer)
}

type orderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

type paymentDetailsRequest struct {
	Method    string `json:"method"`
	IntentID  string `json:"intentId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

func (r paymentDetailsRequest) toModel() model.PaymentDetails {
	return model.PaymentDetails{IntentID: r.IntentID, PaymentID: r.PaymentID, Signature: r.Signature}
}

type createOrderRequest struct {
	Items           []orderItemRequest     `json:"items"`
	ShippingAddress *model.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	PaymentDetails  *paymentDetailsRequest `json:"paymentDetails"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type paymentIntentRequest struct {
	Items    []orderItemRequest `json:"items"`
	Currency string             `json:"currency"`
}

func toItemInputs(items []orderItemRequest) []usecase.OrderItemInput {
	out := make([]usecase.OrderItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, usecase.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

func (h *OrderHandler) create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var req createOrderRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	in := usecase.PlaceOrderInput{
		Items:           toItemInputs(req.Items),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	}
	if req.PaymentDetails != nil {
		d := req.PaymentDetails.toModel()
		in.PaymentDetails = &d
		if in.PaymentMethod == "" {
			in.PaymentMethod = req.PaymentDetails.Method
		}
	}

	o, err := h.uc.PlaceOrder(c.Request().Context(), p, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) myOrders(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	pg, err := paging(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), p, pg)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// sellerIdはパスでもクエリでも受ける
func (h *OrderHandler) sellerOrders(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	pg, err := paging(c)
	if err != nil {
		return writeError(c, err)
	}

	in := usecase.SellerOrdersInput{Paging: pg, Status: c.QueryParam("status")}
	if c.Param("sellerId") != "" {
		id, err := pathID(c, "sellerId")
		if err != nil {
			return writeError(c, err)
		}
		in.SellerID = &id
	} else if in.SellerID, err = queryInt64Ptr(c, "sellerId"); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListSellerOrders(c.Request().Context(), p, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	o, err := h.uc.GetOrder(c.Request().Context(), p, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	o, err := h.uc.UpdateStatus(c.Request().Context(), p, id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) verifyPayment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req paymentDetailsRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	o, err := h.uc.VerifyOrderPayment(c.Request().Context(), p, id, req.toModel())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) paymentIntent(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var req paymentIntentRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	intent, err := h.uc.CreatePaymentIntent(c.Request().Context(), p, usecase.PaymentIntentInput{
		Items:    toItemInputs(req.Items),
		Currency: req.Currency,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, intent)
}
