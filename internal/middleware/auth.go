package middleware

import (
	"net/http"
	"strings"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/permission"
	"github.com/SergeiKhy/linkpulse/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
)

// TokenParser проверяет access-токен
type TokenParser interface {
	ParseToken(token string) (*service.Claims, error)
}

// Authenticate требует заголовок Authorization: Bearer <token>
func Authenticate(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Требуется токен доступа в заголовке Authorization: Bearer",
			})
			return
		}

		claims, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Недействительный или просроченный токен",
			})
			return
		}

		// ParseToken уже проверил subject
		id, _ := claims.UserID()
		c.Set(ctxUserID, id)
		c.Set(ctxUserRole, claims.Role)
		c.Next()
	}
}

// RequirePermission пропускает только роли, которым разрешена capability
func RequirePermission(capability permission.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := Role(c)
		if !permission.IsAllowed(role, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Недостаточно прав для операции " + string(capability),
			})
			return
		}
		c.Next()
	}
}

// UserID id пользователя из контекста запроса
func UserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func Role(c *gin.Context) (models.Role, bool) {
	v, exists := c.Get(ctxUserRole)
	if !exists {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}
