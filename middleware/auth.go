package middleware

import (
	"context"
	"strings"

	"docqa-platform/internal/auth"
	"docqa-platform/models"
	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by authentication.
const (
	ContextPrincipalKind = "principal_kind"
	ContextTenant        = "tenant"
	ContextAdminClaims   = "admin_claims"

	PrincipalAdmin  = "admin"
	PrincipalTenant = "tenant"
)

// TenantResolver resolves credentials and ids to tenants.
// *services.TenantService implements it.
type TenantResolver interface {
	ResolveByKey(ctx context.Context, apiKey string) (*models.Tenant, error)
	Get(ctx context.Context, tenantID string) (*models.Tenant, error)
}

// AccessControl authenticates the two credential kinds: tenant API keys
// (identified by their prefix) and admin bearer tokens. The kind is decided
// by the credential shape, never by the route.
type AccessControl struct {
	tokens  *auth.TokenService
	tenants TenantResolver
}

func NewAccessControl(tokens *auth.TokenService, tenants TenantResolver) *AccessControl {
	return &AccessControl{tokens: tokens, tenants: tenants}
}

// credential pulls the raw credential from the request: Authorization bearer
// first, X-API-Key as the fallback for tenant keys.
func credential(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return strings.TrimSpace(header)
	}
	return strings.TrimSpace(c.GetHeader("X-API-Key"))
}

// Authenticate resolves the request credential to a principal. Keys of
// suspended, deleted or unknown tenants are indistinguishable from invalid
// credentials.
func (a *AccessControl) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		cred := credential(c)
		if cred == "" {
			utils.RespondWithUnauthorized(c, "Credential required")
			c.Abort()
			return
		}

		if utils.IsTenantKey(cred) {
			tenant, err := a.tenants.ResolveByKey(c.Request.Context(), cred)
			if err != nil {
				utils.RespondWithAppError(c, err)
				c.Abort()
				return
			}
			c.Set(ContextPrincipalKind, PrincipalTenant)
			c.Set(ContextTenant, tenant)
			c.Next()
			return
		}

		claims, err := a.tokens.Validate(c.Request.Context(), cred)
		if err != nil {
			utils.RespondWithAppError(c, err)
			c.Abort()
			return
		}
		c.Set(ContextPrincipalKind, PrincipalAdmin)
		c.Set(ContextAdminClaims, claims)
		c.Next()
	}
}

// RequireAdmin refuses any principal that is not an admin. The message does
// not reveal whether the route exists for tenants.
func (a *AccessControl) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextPrincipalKind) != PrincipalAdmin {
			utils.RespondWithForbidden(c, "Not permitted")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireTenant authorizes access to the tenant named by the route param.
// Admins reach any tenant; a tenant key only reaches its own id, and the
// refusal for someone else's id matches the refusal for a nonexistent one.
func (a *AccessControl) RequireTenant(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID := c.Param(param)
		if targetID == "" {
			utils.RespondWithBadRequest(c, "Tenant id required", nil)
			c.Abort()
			return
		}

		switch c.GetString(ContextPrincipalKind) {
		case PrincipalAdmin:
			tenant, err := a.tenants.Get(c.Request.Context(), targetID)
			if err != nil {
				utils.RespondWithAppError(c, err)
				c.Abort()
				return
			}
			c.Set(ContextTenant, tenant)
			c.Next()

		case PrincipalTenant:
			tenant := CurrentTenant(c)
			if tenant == nil || tenant.TenantID != targetID {
				utils.RespondWithForbidden(c, "Not permitted for this tenant")
				c.Abort()
				return
			}
			c.Next()

		default:
			utils.RespondWithUnauthorized(c, "Credential required")
			c.Abort()
		}
	}
}

// CurrentTenant returns the tenant in scope for the request, if any.
func CurrentTenant(c *gin.Context) *models.Tenant {
	value, exists := c.Get(ContextTenant)
	if !exists {
		return nil
	}
	tenant, ok := value.(*models.Tenant)
	if !ok {
		return nil
	}
	return tenant
}

// IsAdmin reports whether the request principal is an admin.
func IsAdmin(c *gin.Context) bool {
	return c.GetString(ContextPrincipalKind) == PrincipalAdmin
}
