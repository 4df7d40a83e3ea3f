// Copyright 2025 Tuff Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tuff-sh/tuffhub/internal/registry/service"
	"github.com/tuff-sh/tuffhub/pkg/ctx"
	httpx "github.com/tuff-sh/tuffhub/pkg/http"
	"github.com/tuff-sh/tuffhub/pkg/http/middleware"
	"github.com/tuff-sh/tuffhub/pkg/log"
	"github.com/tuff-sh/tuffhub/pkg/version"
)

type Router struct {
	Http     *httpx.Http
	Ctx      *ctx.Context
	Registry *service.RegistryService
	Auth     *service.AuthService
	Updates  *service.UpdateService
	Images   *service.ImageService
}

func NewRouter(httpConf *httpx.Http, ctx *ctx.Context,
	registry *service.RegistryService,
	auth *service.AuthService,
	updates *service.UpdateService,
	images *service.ImageService) *Router {
	return &Router{
		Http:     httpConf,
		Ctx:      ctx,
		Registry: registry,
		Auth:     auth,
		Updates:  updates,
		Images:   images,
	}
}

func (rt *Router) Router() *fiber.App {

	app := httpx.NewFiberApp(rt.Http)

	app.Use(recover.New())
	app.Use(middleware.Cors())

	if rt.Http.AccessLog {
		app.Use(middleware.AccessLog())
	}

	if rt.Http.PProf {
		app.Use(pprof.New())
	}

	if rt.Http.ExposeMetrics {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.GetVersion())
	})

	contextPath := rt.Http.ContextPath
	if contextPath == "" {
		contextPath = "/api"
	}
	api := app.Group(contextPath)

	auth := middleware.AuthMiddleware(&rt.Http.Auth, rt.Ctx.GetRedis())
	optionalAuth := middleware.OptionalAuthMiddleware(&rt.Http.Auth)

	rt.authRouter(api, auth)
	rt.assetRouter(api, optionalAuth)
	rt.pluginRouter(api, auth)
	rt.marketRouter(api)
	rt.updateRouter(api, auth)
	rt.imageRouter(api, auth)
	rt.teamRouter(api)

	return app
}

// writeServiceError 把业务错误映射为 HTTP 状态码与错误码
func writeServiceError(c *fiber.Ctx, err error) error {
	var status int
	var code *httpx.Response
	switch service.KindOf(err) {
	case service.KindValidation:
		status, code = fiber.StatusBadRequest, httpx.BadRequest
	case service.KindNotFound:
		status, code = fiber.StatusNotFound, httpx.NotFound
	case service.KindForbidden:
		status, code = fiber.StatusForbidden, httpx.Forbidden
	case service.KindConflict:
		status, code = fiber.StatusConflict, httpx.Conflict
	case service.KindQuotaExceeded:
		status, code = fiber.StatusBadRequest, httpx.QuotaExceeded
	case service.KindRateLimited:
		status, code = fiber.StatusTooManyRequests, httpx.RateLimited
	case service.KindStorageUnavailable:
		status, code = fiber.StatusServiceUnavailable, httpx.StorageUnavailable
	default:
		status, code = fiber.StatusInternalServerError, httpx.InternalError
	}

	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Errorw("request failed", "path", c.Path(), "error", err)
		msg = code.Msg
	}
	return httpx.WithRepErrMsg(c, status, code.Code, msg, c.Path())
}
