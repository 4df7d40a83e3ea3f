package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tuff-sh/tuffhub/internal/registry/model"
	httpx "github.com/tuff-sh/tuffhub/pkg/http"
	"github.com/tuff-sh/tuffhub/pkg/http/middleware"
)

// updateRouter 发布动态，读公开、写仅管理员
func (rt *Router) updateRouter(r fiber.Router, auth fiber.Handler) {
	updateGroup := r.Group("/updates")
	{
		updateGroup.Get("", rt.listUpdates)
		updateGroup.Get("/:updateId", rt.getUpdate)
		updateGroup.Post("", auth, rt.createUpdate)
		updateGroup.Put("/:updateId", auth, rt.updateUpdate)
		updateGroup.Delete("/:updateId", auth, rt.deleteUpdate)
	}
}

func (rt *Router) listUpdates(c *fiber.Ctx) error {
	updates, err := rt.Updates.List()
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, updates)
}

func (rt *Router) getUpdate(c *fiber.Ctx) error {
	update, err := rt.Updates.Get(c.Params("updateId"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, update)
}

func (rt *Router) createUpdate(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	var req model.ReleaseUpdateReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	update, err := rt.Updates.Create(userId, &req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, update)
}

func (rt *Router) updateUpdate(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	var req model.ReleaseUpdateReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	update, err := rt.Updates.Update(userId, c.Params("updateId"), &req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, update)
}

func (rt *Router) deleteUpdate(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)
	if err := rt.Updates.Delete(userId, c.Params("updateId")); err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepMsg(c, httpx.Success.Code, httpx.Success.Msg)
}
