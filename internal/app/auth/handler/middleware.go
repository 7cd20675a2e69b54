package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"furnibles/internal/app/auth/entity"
	"furnibles/internal/app/auth/service"
	"furnibles/internal/app/auth/util"
	"furnibles/pkg/logger"
	"furnibles/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// blacklistCheckTimeout ограничивает ожидание ответа от чёрного списка,
// чтобы медленное хранилище не подвешивало весь pipeline запроса
const blacklistCheckTimeout = 2 * time.Second

type AuthMiddleware struct {
	authService service.AuthServiceInterface
}

func NewAuthMiddleware(authService service.AuthServiceInterface) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate проверяет bearer токен и прогоняет его через Revocation Gate.
// Применяется ко всем маршрутам, кроме явно публичных (они живут вне
// защищённых групп роутера).
//
// Политика при недоступности чёрного списка - fail-open: запрос пропускается.
// Это осознанное продуктовое решение (доступность важнее строгого отзыва),
// не «чинить» на fail-closed без изменения требований.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		token := parts[1]

		// Криптографическая проверка: подпись, срок действия
		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			if errors.Is(err, util.ErrExpiredToken) {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		// Negative-check: токен криптографически валиден, но мог быть отозван
		ctx, cancel := context.WithTimeout(c.Request.Context(), blacklistCheckTimeout)
		revoked, err := m.authService.IsTokenRevoked(ctx, token)
		cancel()

		if err != nil {
			// Fail-open: пропускаем запрос, фиксируем сбой проверки
			logger.Warn().Err(err).Msg("Blacklist check failed, allowing request")
			metrics.AuthBlacklistCheckFailures.Inc()
		} else if revoked {
			metrics.AuthRevokedTokensDenied.Inc()
			abortUnauthorized(c, "Token has been revoked")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// RequireRole пропускает только пользователей с одной из перечисленных ролей
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			abortUnauthorized(c, "Unauthorized")
			return
		}

		role, ok := value.(entity.Role)
		if !ok {
			abortUnauthorized(c, "Unauthorized")
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, entity.ErrorResponse{
			Error:   "Forbidden",
			Message: "Insufficient permissions",
		})
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
		Error:   "Unauthorized",
		Message: message,
	})
	c.Abort()
}
