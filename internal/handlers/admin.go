package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medremind/reminder-api/internal/logging"
	"github.com/medremind/reminder-api/internal/store"
	"github.com/medremind/reminder-api/internal/util"
)

type AdminHandler struct {
	Store *store.GormUserStore
}

// AssignRole replaces the user's current roles with the given one.
func (h *AdminHandler) AssignRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.assign_role")

	userID := c.Param("id")
	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil || req.Role == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("assign_role_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot assign role")
	}

	if err := h.Store.AssignRole(ctx, user, req.Role); err != nil {
		l.Error("assign_role_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot assign role")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("User %s assigned to role %s", user.Username, req.Role),
	})
}

func (h *AdminHandler) AllUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.all_users")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, users, err := h.Store.ListUsers(ctx, offset, limit)
	if err != nil {
		l.Error("list_users_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list users")
	}
	if total == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no users found")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": users,
		"meta": echo.Map{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *AdminHandler) ChangeUserStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.change_user_status")

	userID := c.Param("id")
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		l.Error("change_status_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot change user status")
	}

	user.IsActive = req.IsActive
	if err := h.Store.Update(ctx, user); err != nil {
		l.Error("change_status_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot change user status")
	}

	status := "deactivated"
	if user.IsActive {
		status = "activated"
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("User %s %s", user.Username, status),
	})
}
