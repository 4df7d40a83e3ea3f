package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	httpx "github.com/tuff-sh/tuffhub/pkg/http"
	"github.com/tuff-sh/tuffhub/pkg/http/jwt"
)

const (
	bearerSchema = "Bearer "

	// LocalUserId 当前登录用户 id
	LocalUserId = "userId"
)

// AuthMiddleware 校验 Authorization 头并把 userId 写入 Locals
func AuthMiddleware(auth *httpx.Auth, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return httpx.WithRepErrMsg(c, fiber.StatusUnauthorized, httpx.AuthorizationEmpty.Code, httpx.AuthorizationEmpty.Msg, c.Path())
		}

		if !strings.HasPrefix(authHeader, bearerSchema) {
			return httpx.WithRepErrMsg(c, fiber.StatusUnauthorized, httpx.TokenFormatIncorrect.Code, httpx.TokenFormatIncorrect.Msg, c.Path())
		}

		tokenStr := strings.TrimPrefix(authHeader, bearerSchema)
		if tokenStr == "" {
			return httpx.WithRepErrMsg(c, fiber.StatusUnauthorized, httpx.TokenBeEmpty.Code, httpx.TokenBeEmpty.Msg, c.Path())
		}

		claims, err := jwt.ParseToken(tokenStr, auth.SecretKey)
		if err != nil {
			return httpx.WithRepErrMsg(c, fiber.StatusUnauthorized, httpx.InvalidToken.Code, httpx.InvalidToken.Msg, c.Path())
		}

		// 登录时写入 redis，注销后即使 token 未过期也会被拒绝
		if rdb != nil {
			key := auth.RedisKeyPrefix + claims.UserId
			val, err := rdb.Get(c.Context(), key).Result()
			if err != nil || val != tokenStr {
				return httpx.WithRepErrMsg(c, fiber.StatusUnauthorized, httpx.TokenExpired.Code, httpx.TokenExpired.Msg, c.Path())
			}
		}

		c.Locals(LocalUserId, claims.UserId)
		return c.Next()
	}
}

// OptionalAuthMiddleware 可选登录，解析失败按匿名处理
func OptionalAuthMiddleware(auth *httpx.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if strings.HasPrefix(authHeader, bearerSchema) {
			tokenStr := strings.TrimPrefix(authHeader, bearerSchema)
			if claims, err := jwt.ParseToken(tokenStr, auth.SecretKey); err == nil {
				c.Locals(LocalUserId, claims.UserId)
			}
		}
		return c.Next()
	}
}

// UserIdFromCtx 读取 AuthMiddleware 写入的 userId，匿名时返回空串
func UserIdFromCtx(c *fiber.Ctx) string {
	if v, ok := c.Locals(LocalUserId).(string); ok {
		return v
	}
	return ""
}
