package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

const (
	headerUserID = "X-User-ID"
	headerAdmin  = "X-Admin"

	ctxUserID = "userID"
)

// RequireUser trusts the identity header set by the upstream gateway.
// Requests without it are rejected before reaching a handler.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(headerUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{
				Success: false,
				Error:   &errorBody{Code: string(apperr.CodeUnauthorized), Message: "missing user identity"},
			})
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

// RequireAdmin gates the administrative surface on the gateway-asserted
// admin flag.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(headerAdmin) != "true" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{
				Success: false,
				Error:   &errorBody{Code: string(apperr.CodeUnauthorized), Message: "admin access required"},
			})
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
