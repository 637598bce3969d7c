package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-health/lifeline-api/internal/middleware"
	"github.com/lifeline-health/lifeline-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func paginationParams(c *gin.Context) (int, int) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	return limit, offset
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
