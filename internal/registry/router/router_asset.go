package router

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/tuff-sh/tuffhub/pkg/http/middleware"
)

// assetRouter 资产下载，可匿名访问但 BETA 包需要身份
func (rt *Router) assetRouter(r fiber.Router, optionalAuth fiber.Handler) {
	r.Get("/plugins/assets/*", optionalAuth, rt.downloadAsset)
}

func (rt *Router) downloadAsset(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)
	key := c.Params("*")

	asset, err := rt.Registry.DownloadAsset(userId, key)
	if err != nil {
		return writeServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, asset.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", asset.Filename))
	return c.Send(asset.Data)
}
