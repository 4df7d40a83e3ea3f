package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tuff-sh/tuffhub/pkg/id"
	"github.com/tuff-sh/tuffhub/pkg/log"
)

const headerRequestId = "X-Request-Id"

var accessLogSkip = []string{
	"/health",
	"/metrics",
	"/debug/pprof",
}

// AccessLog 访问日志中间件
func AccessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, prefix := range accessLogSkip {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		reqId := c.Get(headerRequestId)
		if reqId == "" {
			reqId = id.ShortId()
		}
		c.Set(headerRequestId, reqId)

		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		log.Infow("access",
			"requestId", reqId,
			"method", c.Method(),
			"path", path,
			"status", c.Response().StatusCode(),
			"latency", latency.String(),
			"ip", c.IP(),
		)
		return err
	}
}
