package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const operatorKey = "operator"

// jwtMiddleware пропускает только запросы с действующим токеном оператора.
// Без аутентификатора изменяющие запросы открыты.
func (rs *RestServer) jwtMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.auth == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			fail(c, http.StatusUnauthorized, "Отсутствует токен авторизации")
			c.Abort()
			return
		}

		// Формат "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			fail(c, http.StatusUnauthorized, "Неверный формат токена")
			c.Abort()
			return
		}

		claims, err := rs.auth.Tokens().Validate(parts[1])
		if err != nil {
			fail(c, http.StatusUnauthorized, "Недействительный токен")
			c.Abort()
			return
		}

		c.Set(operatorKey, claims.Name)
		c.Next()
	}
}

// operatorName возвращает имя оператора из контекста или "anonymous"
func operatorName(c *gin.Context) string {
	if name, ok := c.Get(operatorKey); ok {
		return name.(string)
	}
	return "anonymous"
}
