package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/identity"
	domain "github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// UpdateStatusRequest carries the target status for an admin status change.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePaymentStatusRequest carries the target payment status.
type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// CancelRequest carries the customer's cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// OrderHandler serves checkout, customer order views and the admin order
// operations.
type OrderHandler struct {
	BaseHandler
	orders *apporder.Service
}

func NewOrderHandler(svc *apporder.Service, log *zap.Logger) *OrderHandler {
	return &OrderHandler{BaseHandler: NewBaseHandler(log), orders: svc}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var in apporder.CreateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BadRequest(c, err)
		return
	}

	o, err := h.orders.Create(c.Request.Context(), claims.UserID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, o)
}

// ListMine handles GET /orders/my.
func (h *OrderHandler) ListMine(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	res, err := h.orders.ListMine(c.Request.Context(), claims.UserID, c.Request.URL.Query())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, res.Items, dto.MetaFrom(res.Pagination))
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid order ID")
		return
	}

	isAdmin := claims.Role == identity.RoleAdmin.String()
	o, err := h.orders.Get(c.Request.Context(), id, claims.UserID, isAdmin)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// Cancel handles POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid order ID")
		return
	}

	var in CancelRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BadRequest(c, err)
		return
	}

	o, err := h.orders.Cancel(c.Request.Context(), id, claims.UserID, in.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// ListAdmin handles GET /orders/admin.
func (h *OrderHandler) ListAdmin(c *gin.Context) {
	res, err := h.orders.ListAdmin(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, res.Items, dto.MetaFrom(res.Pagination))
}

// UpdateStatus handles PUT /orders/admin/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid order ID")
		return
	}

	var in UpdateStatusRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BadRequest(c, err)
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), id, domain.OrderStatus(in.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}

// UpdatePaymentStatus handles PUT /orders/admin/:id/payment-status.
func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid order ID")
		return
	}

	var in UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BadRequest(c, err)
		return
	}

	o, err := h.orders.UpdatePaymentStatus(c.Request.Context(), id, domain.PaymentStatus(in.PaymentStatus))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, o)
}
