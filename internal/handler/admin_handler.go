package handler

import (
	"net/http"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/middleware"
	"refurbmarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin（監査ログ参照）
type AdminHandler struct {
	audit *usecase.AuditLogUsecase
}

func NewAdminHandler(audit *usecase.AuditLogUsecase) *AdminHandler {
	return &AdminHandler{audit: audit}
}

func (h *AdminHandler) RegisterRoutes(api *echo.Group, ac AuthChain) {
	g := api.Group("/admin", ac.Required, middleware.RequireRole(model.RoleAdmin))
	g.GET("/audit-logs", h.auditLogs)
}

func (h *AdminHandler) auditLogs(c echo.Context) error {
	pg, err := paging(c)
	if err != nil {
		return writeError(c, err)
	}
	actor, err := queryInt64Ptr(c, "actorUserId")
	if err != nil {
		return writeError(c, err)
	}
	resource, err := queryInt64Ptr(c, "resourceId")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.audit.List(c.Request().Context(), usecase.ListAuditLogsInput{
		Paging:       pg,
		ActorUserID:  actor,
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resourceType"),
		ResourceID:   resource,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
