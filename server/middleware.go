package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"call-insights/entities"
	"call-insights/repository"
)

const apiKeyHeader = "X-API-KEY"
const tenantContextKey = "tenant"

// AttachLogger copies the application logger onto each request context so
// zerolog.Ctx works in services below the HTTP layer.
func AttachLogger(base context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(base)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

// RequireAPIKey validates the X-API-KEY header and injects the matching
// tenant for downstream handlers. Every tenant-scoped route sits behind it.
func RequireAPIKey(repo repository.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(apiKeyHeader))
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-API-KEY header required"})
			return
		}

		tenant, err := repo.FindTenantByAPIKey(c.Request.Context(), key)
		if errors.Is(err, repository.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("tenant lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(tenantContextKey, tenant)
		c.Next()
	}
}

func tenantFrom(c *gin.Context) (*entities.Tenant, bool) {
	v, ok := c.Get(tenantContextKey)
	if !ok {
		return nil, false
	}
	tenant, ok := v.(*entities.Tenant)
	return tenant, ok
}
