package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"notify-gateway/models"
	"notify-gateway/utils"
)

type sessionRequest struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	PermanentID string `json:"permanentId"`
	VendorID    string `json:"vendorId"`
	Token       string `json:"token"`
}

// PutSession is how the dashboard hands a fresh login to the gateway: the
// session is stored and a socket connection attempt is scheduled.
func (h *APIHandler) PutSession(c echo.Context) error {
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return utils.NewBadRequestError("Invalid session payload", err)
	}
	if req.UserID == "" || req.Token == "" {
		return utils.NewBadRequestError("Session requires userId and token")
	}
	role := models.Role(req.Role)
	if role != models.RoleAdmin && role != models.RoleVendor {
		return utils.NewBadRequestError("Session role must be admin or vendor")
	}

	identity := models.Identity{
		UserID:      req.UserID,
		Role:        role,
		PermanentID: req.PermanentID,
	}
	if err := h.store.SaveSession(identity, req.Token); err != nil {
		return utils.NewInternalServerError("Failed to store session", err)
	}
	if req.VendorID != "" {
		if err := h.store.SaveVendorID(req.VendorID); err != nil {
			return utils.NewInternalServerError("Failed to store vendor ID", err)
		}
	}

	h.logger.Info("Session stored", "userId", req.UserID, "role", req.Role)
	h.manager.Connect()

	return c.JSON(http.StatusOK, utils.SuccessResponse("Session stored", nil))
}

// DeleteSession is logout: the socket comes down, the inbox empties, and
// the stored session is dropped.
func (h *APIHandler) DeleteSession(c echo.Context) error {
	h.manager.Disconnect()
	h.store.Clear()

	h.logger.Info("Session cleared", slog.String("remote", c.RealIP()))
	return c.JSON(http.StatusOK, utils.SuccessResponse("Session cleared", nil))
}
