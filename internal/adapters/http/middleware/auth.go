package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
)

const (
	ginKeyClaims = "claims"

	defaultSubjectHeader = "X-User-ID"
	defaultRolesHeader   = "X-User-Roles"
)

// Claims is the caller identity forwarded by the gateway.
type Claims struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the caller holds role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// ExtractClaims reads the identity headers named in cfg. Roles are
// comma-separated.
func ExtractClaims(c *gin.Context, cfg config.AuthConfig) *Claims {
	subjectHeader := orDefault(cfg.SubjectHeader, defaultSubjectHeader)
	rolesHeader := orDefault(cfg.RolesHeader, defaultRolesHeader)

	claims := &Claims{Subject: strings.TrimSpace(c.GetHeader(subjectHeader))}

	for role := range strings.SplitSeq(c.GetHeader(rolesHeader), ",") {
		if role = strings.TrimSpace(role); role != "" {
			claims.Roles = append(claims.Roles, role)
		}
	}

	return claims
}

// GetClaims returns the claims stored by RequireWriter, or nil.
func GetClaims(c *gin.Context) *Claims {
	claims, _ := c.Get(ginKeyClaims)
	cl, _ := claims.(*Claims)

	return cl
}

// RequireWriter guards mutating routes. With auth disabled every caller
// passes; otherwise the caller needs a subject (401) and the writer role (403).
func RequireWriter(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		claims := ExtractClaims(c, cfg)
		if claims.Subject == "" {
			abort(c, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "authentication required")
			return
		}

		if !claims.HasRole(cfg.WriterRole) {
			abort(c, http.StatusForbidden, dto.ErrorCodeForbidden, "role "+cfg.WriterRole+" required")
			return
		}

		c.Set(ginKeyClaims, claims)
		c.Next()
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}

	return v
}
