package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// TenantParam is the route parameter naming the tenant.
const TenantParam = "tenant"

const ginKeyTenant = "tenant_id"

// maxTenantIDLength bounds the path segment; guild IDs are far shorter.
const maxTenantIDLength = 64

// Tenant resolves the :tenant path parameter and adds it to the request
// logger. A blank or oversized tenant is a 400.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := strings.TrimSpace(c.Param(TenantParam))
		if tenant == "" || len(tenant) > maxTenantIDLength {
			abort(c, http.StatusBadRequest, dto.ErrorCodeValidation, "invalid tenant id")
			return
		}

		c.Set(ginKeyTenant, tenant)
		c.Request = c.Request.WithContext(logging.WithTenantID(c.Request.Context(), tenant))

		c.Next()
	}
}

// TenantID returns the tenant resolved by Tenant.
func TenantID(c *gin.Context) string {
	return c.GetString(ginKeyTenant)
}
