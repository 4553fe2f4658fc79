package handler

import (
	"net/http"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/middleware"
	"refurbmarket/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /users（プロフィールと管理者のユーザー参照）
type UserHandler struct {
	uc *usecase.UserUsecase
}

func NewUserHandler(uc *usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

func (h *UserHandler) RegisterRoutes(api *echo.Group, ac AuthChain) {
	g := api.Group("/users", ac.Required)
	g.GET("/profile", h.getProfile)
	g.PUT("/profile", h.updateProfile)
	g.PATCH("/profile/change-password", h.changePassword)

	admin := g.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", h.adminList)
	admin.GET("/users/:id", h.adminGet)
}

type updateProfileRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	ProfilePicture *string `json:"profilePicture"`
	Phone          *string `json:"phone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *UserHandler) getProfile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	u, err := h.uc.GetProfile(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) updateProfile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var req updateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	u, err := h.uc.UpdateProfile(c.Request().Context(), p, usecase.UpdateProfileInput{
		Name:           req.Name,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
		Phone:          req.Phone,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) changePassword(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var req changePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	if err := h.uc.ChangePassword(c.Request().Context(), p, usecase.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "password updated"})
}

func (h *UserHandler) adminList(c echo.Context) error {
	pg, err := paging(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AdminListUsers(c.Request().Context(), usecase.ListUsersInput{
		Paging: pg,
		Role:   c.QueryParam("role"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) adminGet(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	u, err := h.uc.AdminGetUser(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
