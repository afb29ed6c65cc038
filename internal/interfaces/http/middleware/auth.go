package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

const (
	// ContextClaims is the gin context key holding the verified token claims.
	ContextClaims = "auth_claims"
)

// JWTAuth verifies the bearer token, rejects revoked tokens and stores the
// claims in the request context.
func JWTAuth(tokens *auth.JWTManager, blacklist auth.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			unauthorized(c, "Missing or malformed Authorization header")
			return
		}

		claims, err := tokens.VerifyAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			unauthorized(c, "Token is invalid or expired")
			return
		}

		revoked, err := blacklist.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil || revoked {
			unauthorized(c, "Token is invalid or expired")
			return
		}

		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireRole admits only requests whose token carries one of the given
// roles. Must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			unauthorized(c, "Authentication required")
			return
		}
		if !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.Response{
				Success:   false,
				Error:     &dto.ErrorBody{Code: "FORBIDDEN", Message: "Insufficient permissions"},
				RequestID: c.GetString("request_id"),
			})
			return
		}
		c.Next()
	}
}

// ClaimsFrom extracts the verified claims stored by JWTAuth, or nil.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Response{
		Success:   false,
		Error:     &dto.ErrorBody{Code: "UNAUTHORIZED", Message: message},
		RequestID: c.GetString("request_id"),
	})
}
