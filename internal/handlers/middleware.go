package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the authenticated buyer id, set by the gateway in front of this service.
const HeaderUserID = "X-User-Id"

const buyerKey = "buyerID"

func requireBuyer() gin.HandlerFunc {
	return func(c *gin.Context) {
		buyer := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if buyer == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_user_id"})
			return
		}
		c.Set(buyerKey, buyer)
		c.Next()
	}
}

func buyerID(c *gin.Context) string {
	return c.GetString(buyerKey)
}
