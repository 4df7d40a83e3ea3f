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
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tuff-sh/tuffhub/internal/registry/model"
	httpx "github.com/tuff-sh/tuffhub/pkg/http"
	"github.com/tuff-sh/tuffhub/pkg/http/middleware"
)

func (rt *Router) pluginRouter(r fiber.Router, auth fiber.Handler) {
	pluginGroup := r.Group("/plugins")
	{
		// 控制台列表与创建
		pluginGroup.Get("", auth, rt.listDashboardPlugins)
		pluginGroup.Post("", auth, rt.createPlugin)

		// 发布前预览包元数据，固定路径要放在 /:pluginId 之前
		pluginGroup.Post("/preview", auth, rt.previewPackage)

		// 版本审核与删除
		pluginGroup.Post("/versions/:versionId/status", auth, rt.setVersionStatus)
		pluginGroup.Delete("/versions/:versionId", auth, rt.deleteVersion)

		// 插件管理
		pluginGroup.Get("/:pluginId", auth, rt.getPlugin)
		pluginGroup.Put("/:pluginId", auth, rt.updatePlugin)
		pluginGroup.Delete("/:pluginId", auth, rt.deletePlugin)
		pluginGroup.Post("/:pluginId/status", auth, rt.setPluginStatus)

		// 版本列表与发布
		pluginGroup.Get("/:pluginId/versions", auth, rt.listVersions)
		pluginGroup.Post("/:pluginId/versions", auth, rt.publishVersion)
	}
}

func (rt *Router) listDashboardPlugins(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	details, err := rt.Registry.ListDashboardPlugins(userId, statuses)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, details)
}

func (rt *Router) createPlugin(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	var req model.CreatePluginReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	plugin, err := rt.Registry.CreatePlugin(userId, &req)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, plugin)
}

func (rt *Router) getPlugin(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	detail, err := rt.Registry.GetPlugin(userId, c.Params("pluginId"), false)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, detail)
}

func (rt *Router) updatePlugin(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	var req model.UpdatePluginReq
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	// 图标走可选的 multipart 字段
	icon, iconType, err := readOptionalFile(c, "icon")
	if err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	plugin, err := rt.Registry.UpdatePlugin(userId, c.Params("pluginId"), &req, icon, iconType)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, plugin)
}

func (rt *Router) deletePlugin(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	if err := rt.Registry.DeletePlugin(userId, c.Params("pluginId")); err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepMsg(c, httpx.Success.Code, httpx.Success.Msg)
}

func (rt *Router) setPluginStatus(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	plugin, err := rt.Registry.SetPluginStatus(userId, c.Params("pluginId"), req.Status)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, plugin)
}

func (rt *Router) listVersions(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	detail, err := rt.Registry.GetPlugin(userId, c.Params("pluginId"), false)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, detail.Versions)
}

func (rt *Router) publishVersion(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	req := model.PublishVersionReq{
		Version:   c.FormValue("version"),
		Channel:   c.FormValue("channel"),
		Changelog: c.FormValue("changelog"),
		Homepage:  c.FormValue("homepage"),
	}

	pkg, _, err := readOptionalFile(c, "package")
	if err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}
	icon, iconType, err := readOptionalFile(c, "icon")
	if err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	version, err := rt.Registry.PublishVersion(userId, c.Params("pluginId"), &req, pkg, icon, iconType)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, version)
}

func (rt *Router) setVersionStatus(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, httpx.RequestParameterParsingFailed.Msg, c.Path())
	}

	version, err := rt.Registry.SetVersionStatus(userId, c.Params("versionId"), req.Status)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, version)
}

func (rt *Router) deleteVersion(c *fiber.Ctx) error {
	userId := middleware.UserIdFromCtx(c)

	if err := rt.Registry.DeleteVersion(userId, c.Params("versionId")); err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepMsg(c, httpx.Success.Code, httpx.Success.Msg)
}

func (rt *Router) previewPackage(c *fiber.Ctx) error {
	pkg, _, err := readOptionalFile(c, "package")
	if err != nil {
		return httpx.WithRepErrMsg(c, fiber.StatusBadRequest, httpx.RequestParameterParsingFailed.Code, err.Error(), c.Path())
	}

	preview, err := rt.Registry.PreviewPackage(pkg)
	if err != nil {
		return writeServiceError(c, err)
	}
	return httpx.WithRepJSON(c, preview)
}

// readOptionalFile 读取 multipart 文件字段，字段缺失时返回空内容
func readOptionalFile(c *fiber.Ctx, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", nil
	}
	return readFileHeader(fh)
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Header.Get("Content-Type"), nil
}
