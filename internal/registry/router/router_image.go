package router

import (
	"github.com/gofiber/fiber/v2"
	httpx "github.com/tuff-sh/tuffhub/pkg/http"
	"github.com/tuff-sh/tuffhub/pkg/http/middleware"
)

// imageRouter 图片库，读取公开、管理仅管理员
func (rt *Router) imageRouter(r fiber.Router, auth fiber.Handler) {
	imageGroup := r.Group("/images")
	{
		imageGroup.Get("/:filename", rt.getImage)
		imageGroup.Get("", auth, rt.listImages)
		imageGroup.Post("", auth, rt.uploadImage)
		imageGroup.Delete("/:filename", auth, rt.deleteImage)
	}
}

func (rt *Router) getImage(c *fiber.Ctx) error {
	data, contentType, err := rt.Images.Get(c.Params("filename"))
	if err != nil {
		return writeServiceError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

func (rt *Router) listImages(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)
	objects, err := rt.Images.List(userId)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, objects)
}

func (rt *Router) uploadImage(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	fh, err := c.FormFile("image")
	if err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, "image file is required", c.Path())
	}
	data, _, err := readFileHeader(fh)
	if err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	info, err := rt.Images.Upload(userId, fh.Filename, data)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, info)
}

func (rt *Router) deleteImage(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)
	if err := rt.Images.Delete(userId, c.Params("filename")); err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepMsg(c, httpx.Success.Code, httpx.Success.Msg)
}
