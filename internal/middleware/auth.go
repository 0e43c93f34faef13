package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"erpcrm/internal/model"
	"erpcrm/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenCookie = "access_token"
	// ContextUserID and ContextUserRole are the gin context keys set after authentication
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

// PermissionSource loads the permission codes granted to a role
type PermissionSource interface {
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
}

// permCacheEntry stores cached permission codes for a role with TTL
type permCacheEntry struct {
	codes     []string
	expiresAt time.Time
}

// Auth validates JWTs and enforces permission codes
type Auth struct {
	secret        []byte
	perms         PermissionSource
	permCache     sync.Map // roleName -> permCacheEntry
	permCacheTTL  time.Duration
	secureCookies bool
}

// NewAuth creates the auth middleware set. secureCookies marks cookies Secure and SameSite=None
func NewAuth(secret string, perms PermissionSource, secureCookies bool) *Auth {
	return &Auth{
		secret:        []byte(secret),
		perms:         perms,
		permCacheTTL:  5 * time.Minute,
		secureCookies: secureCookies,
	}
}

// ParseToken validates a token string and returns its subject and role
func (a *Auth) ParseToken(tokenString string) (userID, role string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid token claims")
	}
	userID, _ = claims["sub"].(string)
	role, _ = claims["role"].(string)
	if userID == "" || role == "" {
		return "", "", errors.New("token is missing subject or role")
	}
	return userID, role, nil
}

// tokenFromRequest reads the cookie first and falls back to the Authorization header
func tokenFromRequest(c *gin.Context) (string, error) {
	if tokenString, err := c.Cookie(accessTokenCookie); err == nil && tokenString != "" {
		return tokenString, nil
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("Authorization is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("Invalid authorization format. Expected 'Bearer <token>'")
	}
	return parts[1], nil
}

func (a *Auth) authenticate(c *gin.Context) bool {
	tokenString, err := tokenFromRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return false
	}
	userID, role, err := a.ParseToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
		return false
	}
	c.Set(ContextUserID, userID)
	c.Set(ContextUserRole, role)
	return true
}

// RequireAuth only checks that the request carries a valid token
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

// RequirePermission validates the JWT and checks the role holds every required code.
// The admin role always passes.
func (a *Auth) RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		role := c.GetString(ContextUserRole)
		if role == model.RoleAdmin {
			c.Next()
			return
		}

		userPerms, err := a.PermissionsForRole(c.Request.Context(), role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return
		}

		permSet := make(map[string]bool, len(userPerms))
		for _, p := range userPerms {
			permSet[p] = true
		}
		for _, required := range requiredPerms {
			if !permSet[required] {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "This action is unauthorized."))
				return
			}
		}

		c.Next()
	}
}

// PermissionsForRole returns cached or freshly loaded permission codes for a role
func (a *Auth) PermissionsForRole(ctx context.Context, roleName string) ([]string, error) {
	if entry, ok := a.permCache.Load(roleName); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.codes, nil
		}
	}

	codes, err := a.perms.GetPermissionsByRoleName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	a.permCache.Store(roleName, permCacheEntry{
		codes:     codes,
		expiresAt: time.Now().Add(a.permCacheTTL),
	})
	return codes, nil
}

// InvalidateRole removes cached permissions for a role, or every role when empty
func (a *Auth) InvalidateRole(roleName string) {
	if roleName != "" {
		a.permCache.Delete(roleName)
		return
	}
	a.permCache.Range(func(key, _ any) bool {
		a.permCache.Delete(key)
		return true
	})
}

func (a *Auth) cookieMode() (http.SameSite, bool) {
	if a.secureCookies {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}

// SetTokenCookie stores the access token as an HttpOnly cookie
func (a *Auth) SetTokenCookie(c *gin.Context, token string, maxAge time.Duration) {
	sameSite, secure := a.cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, token, int(maxAge.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie removes the access token cookie
func (a *Auth) ClearTokenCookie(c *gin.Context) {
	sameSite, secure := a.cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", secure, true)
}

// UserID returns the authenticated user's id, empty when unauthenticated
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
