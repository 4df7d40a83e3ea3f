package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tuff-sh/tuffhub/internal/registry/model"
	httpx "github.com/tuff-sh/tuffhub/pkg/http"
)

// marketRouter 市场侧只读接口，无需登录
func (rt *Router) marketRouter(r fiber.Router) {
	marketGroup := r.Group("/market")
	{
		marketGroup.Get("/plugins", rt.listMarketPlugins)
		marketGroup.Get("/plugins/:pluginId", rt.getMarketPlugin)
		marketGroup.Post("/plugins/:pluginId/install", rt.recordInstall)
		marketGroup.Get("/categories", rt.listCategories)
	}
}

func (rt *Router) listMarketPlugins(c *fiber.Ctx) error {
	details, err := rt.Registry.ListMarketPlugins()
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, details)
}

func (rt *Router) getMarketPlugin(c *fiber.Ctx) error {
	detail, err := rt.Registry.GetPlugin("", c.Params("pluginId"), true)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, detail)
}

func (rt *Router) recordInstall(c *fiber.Ctx) error {
	plugin, err := rt.Registry.RecordInstall(c.Params("pluginId"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, fiber.Map{"installs": plugin.Installs})
}

func (rt *Router) listCategories(c *fiber.Ctx) error {
	return httpx.WithRepJSON(c, model.Categories)
}
