package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"restaurant-api/models"
	"restaurant-api/policy"
	"restaurant-api/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID   = "userID"
	ctxUsername = "username"
	ctxRole     = "role"
)

type Claims struct {
	UserID   uint            `json:"user_id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a given user
func GenerateToken(user *models.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// AuthRequired validates the JWT and injects claims into context
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Authorization header required (Bearer <token>)")
			return
		}
		claims, err := ParseToken(tokenStr, secret)
		if err != nil || !models.ValidRole(claims.Role) {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)
		c.Set(ctxRole, string(claims.Role))
		c.Next()
	}
}

// UserLookup confirms that a token's user is still on record.
type UserLookup interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// ActiveUser rejects tokens issued to users deleted since. It runs after
// AuthRequired.
func ActiveUser(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		found, err := users.Exists(c.Request.Context(), GetUserID(c))
		if err != nil {
			GetLogger(c).WithError(err).Error("user lookup failed")
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !found {
			abort(c, http.StatusUnauthorized, "Account no longer exists")
			return
		}
		c.Next()
	}
}

// bearerToken reads the Authorization header. EventSource clients cannot set
// headers, so GET requests may pass access_token in the query instead.
func bearerToken(c *gin.Context) (string, bool) {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer "), true
	}
	if c.Request.Method == http.MethodGet {
		if t := c.Query("access_token"); t != "" {
			return t, true
		}
	}
	return "", false
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get(ctxRole)
		if !exists {
			abort(c, http.StatusForbidden, "Role not found in context")
			return
		}
		callerRole := models.UserRole(roleVal.(string))
		for _, r := range roles {
			if callerRole == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Access denied. Required role(s): "+rolesString(roles))
	}
}

// Allow gates a route on the policy entry for op.
func Allow(op policy.Operation) gin.HandlerFunc {
	return RoleRequired(policy.Roles(op)...)
}

func rolesString(roles []models.UserRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) uint {
	val, _ := c.Get(ctxUserID)
	id, _ := val.(uint)
	return id
}

// GetRole extracts caller role from context
func GetRole(c *gin.Context) models.UserRole {
	val, _ := c.Get(ctxRole)
	role, _ := val.(string)
	return models.UserRole(role)
}

// GetActor is the authenticated caller as the services see it.
func GetActor(c *gin.Context) services.Actor {
	return services.Actor{UserID: GetUserID(c), Role: GetRole(c)}
}
