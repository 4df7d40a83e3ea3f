package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tuff-sh/tuffhub/internal/registry/model"
	httpx "github.com/tuff-sh/tuffhub/pkg/http"
	"github.com/tuff-sh/tuffhub/pkg/http/middleware"
)

func (rt *Router) authRouter(r fiber.Router, auth fiber.Handler) {
	authGroup := r.Group("/auth")
	{
		authGroup.Post("/login", rt.login)
		authGroup.Post("/logout", auth, rt.logout)
		authGroup.Get("/refresh", auth, rt.refresh)
		authGroup.Get("/me", auth, rt.me)
	}
}

func (rt *Router) login(c *fiber.Ctx) error {
	var req model.LoginReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}
	if req.Username == "" || req.Password == "" {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.UsernameArePasswordIsRequired.Code, httpx.UsernameArePasswordIsRequired.Msg, c.Path())
	}

	result, err := rt.Auth.Login(&req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, result)
}

func (rt *Router) logout(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)
	if err := rt.Auth.Logout(userId); err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepMsg(c, httpx.Success.Code, httpx.Success.Msg)
}

func (rt *Router) refresh(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)
	refreshToken := c.Get("X-Refresh-Token")
	if refreshToken == "" {
		return httpx.WithRepErrMsg(c, fiber.StatusUnauthorized, httpx.TokenBeEmpty.Code, httpx.TokenBeEmpty.Msg, c.Path())
	}

	tokens, err := rt.Auth.Refresh(userId, refreshToken)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, tokens)
}

func (rt *Router) me(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)
	user, err := rt.Auth.CurrentUser(userId)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, user)
}
