package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// AuthHandler serves login, token refresh, logout and account lookup.
type AuthHandler struct {
	BaseHandler
	identity *identity.Service
}

func NewAuthHandler(svc *identity.Service, log *zap.Logger) *AuthHandler {
	return &AuthHandler{BaseHandler: NewBaseHandler(log), identity: svc}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var in identity.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BadRequest(c, err)
		return
	}

	pair, user, err := h.identity.Login(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"tokens": pair, "user": user})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var in identity.RefreshInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BadRequest(c, err)
		return
	}

	pair, err := h.identity.Refresh(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"tokens": pair})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if err := h.identity.Logout(c.Request.Context(), claims); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Logged out"})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		h.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.identity.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
