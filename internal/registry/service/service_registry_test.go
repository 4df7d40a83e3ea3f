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

package service

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuff-sh/tuffhub/internal/registry/model"
	"github.com/tuff-sh/tuffhub/internal/registry/repo"
	"github.com/tuff-sh/tuffhub/pkg/ctx"
	"github.com/tuff-sh/tuffhub/pkg/log"
	"github.com/tuff-sh/tuffhub/pkg/storage"
)

func TestMain(m *testing.M) {
	log.MustInit(log.SetDefaults())
	os.Exit(m.Run())
}

type testEnv struct {
	svc   *RegistryService
	store *repo.MemoryStore
	blob  *storage.MemoryStorage
}

const (
	ownerId    = "user-owner"
	adminId    = "user-admin"
	orgMateId  = "user-orgmate"
	strangerId = "user-stranger"
	orgId      = "org-tuff"
)

func newTestEnv(t *testing.T, limits Limits) *testEnv {
	t.Helper()
	store := repo.NewMemoryStore()
	blob := storage.NewMemory(nil)
	appCtx := ctx.NewContext(context.Background(), nil, nil, log.GetLogger())

	users := []model.User{
		{BaseModel: model.BaseModel{Id: ownerId}, Username: "owner"},
		{BaseModel: model.BaseModel{Id: adminId}, Username: "admin", IsAdmin: true},
		{BaseModel: model.BaseModel{Id: orgMateId}, Username: "orgmate"},
		{BaseModel: model.BaseModel{Id: strangerId}, Username: "stranger"},
	}
	for i := range users {
		require.NoError(t, store.CreateUser(&users[i]))
	}
	require.NoError(t, store.AddOrgMember(&model.OrganizationMember{
		BaseModel: model.BaseModel{Id: "m0"}, OrgId: orgId, UserId: ownerId,
	}))
	require.NoError(t, store.AddOrgMember(&model.OrganizationMember{
		BaseModel: model.BaseModel{Id: "m1"}, OrgId: orgId, UserId: orgMateId,
	}))

	return &testEnv{
		svc:   NewRegistryService(appCtx, store, blob, limits),
		store: store,
		blob:  blob,
	}
}

// fastLimits 冷却接近于零，避免连续发布互相干扰
func fastLimits() Limits {
	return Limits{
		MaxPluginsPerUser:  10,
		SubmissionCooldown: time.Nanosecond,
		MaxPackageSize:     5 * 1024 * 1024,
	}
}

func buildTpex(t *testing.T, manifest, readme string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	files := map[string]string{}
	if manifest != "" {
		files["manifest.json"] = manifest
	}
	if readme != "" {
		files["README.md"] = readme
	}
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Mode: 0644, Size: int64(len(content)), Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func createPlugin(t *testing.T, env *testEnv, userId, slug string) *model.Plugin {
	t.Helper()
	plugin, err := env.svc.CreatePlugin(userId, &model.CreatePluginReq{
		Slug:           slug,
		Name:           "Plugin " + slug,
		Description:    "A plugin for " + slug,
		Category:       "productivity",
		ReadmeMarkdown: "# " + slug,
	})
	require.NoError(t, err)
	return plugin
}

func publish(t *testing.T, env *testEnv, userId, pluginId, ver, channel string) *model.PluginVersion {
	t.Helper()
	pkg := buildTpex(t, `{"name":"p"}`, "readme")
	v, err := env.svc.PublishVersion(userId, pluginId, &model.PublishVersionReq{
		Version: ver, Channel: channel, Changelog: "changes",
	}, pkg, nil, "")
	require.NoError(t, err)
	return v
}

func TestCreatePluginDefaults(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	plugin := createPlugin(t, env, ownerId, "clipboard-pro")
	assert.Equal(t, model.StatusDraft, plugin.Status)
	assert.EqualValues(t, 0, plugin.Installs)
	assert.Equal(t, ownerId, plugin.OwnerUserId)
	assert.Nil(t, plugin.LatestVersionId)
}

func TestCreatePluginSlugValidation(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	for _, slug := range []string{"", "ab", "-leading", "trailing-", "UPPER", "has space", "a!b"} {
		_, err := env.svc.CreatePlugin(ownerId, &model.CreatePluginReq{
			Slug: slug, Name: "x", Description: "d", Category: "utilities", ReadmeMarkdown: "# r",
		})
		require.Error(t, err, "slug %q", slug)
		assert.Equal(t, KindValidation, KindOf(err), "slug %q", slug)
	}

	// 前后空白会被剪掉
	plugin, err := env.svc.CreatePlugin(ownerId, &model.CreatePluginReq{
		Slug: "  my-plugin.v2  ", Name: "x", Description: "d", Category: "utilities", ReadmeMarkdown: "# r",
	})
	require.NoError(t, err)
	assert.Equal(t, "my-plugin.v2", plugin.Slug)
}

func TestCreatePluginUnknownCategory(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	_, err := env.svc.CreatePlugin(ownerId, &model.CreatePluginReq{
		Slug: "some-plugin", Name: "x", Description: "d", Category: "gaming", ReadmeMarkdown: "# r",
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCreatePluginRequiredFields(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	// 简介不能为空
	_, err := env.svc.CreatePlugin(ownerId, &model.CreatePluginReq{
		Slug: "needs-summary", Name: "x", Category: "utilities", ReadmeMarkdown: "# r",
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	// README 不能为空，全空白同样不行
	_, err = env.svc.CreatePlugin(ownerId, &model.CreatePluginReq{
		Slug: "needs-readme", Name: "x", Description: "d", Category: "utilities", ReadmeMarkdown: "   ",
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	// 主页必须是 http/https 地址
	for _, homepage := range []string{"not a url at all", "ftp://example.com", "javascript:alert(1)"} {
		_, err = env.svc.CreatePlugin(ownerId, &model.CreatePluginReq{
			Slug: "bad-homepage", Name: "x", Description: "d", Category: "utilities",
			ReadmeMarkdown: "# r", Homepage: homepage,
		})
		require.Error(t, err, "homepage %q", homepage)
		assert.Equal(t, KindValidation, KindOf(err), "homepage %q", homepage)
	}

	plugin, err := env.svc.CreatePlugin(ownerId, &model.CreatePluginReq{
		Slug: "good-homepage", Name: "x", Description: "d", Category: "utilities",
		ReadmeMarkdown: "# r", Homepage: "https://example.com/docs",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/docs", plugin.Homepage)
	assert.Equal(t, "# r", plugin.ReadmeMarkdown)
}

func TestCreatePluginOwnerOrgDerived(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	// 归属组织来自创建者的成员关系，请求体无法指定
	plugin := createPlugin(t, env, ownerId, "org-derived")
	assert.Equal(t, orgId, plugin.OwnerOrgId)

	loner := createPlugin(t, env, strangerId, "no-org")
	assert.Empty(t, loner.OwnerOrgId)
}

func TestCreatePluginInitialStatusAdminOnly(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	_, err := env.svc.CreatePlugin(ownerId, &model.CreatePluginReq{
		Slug: "sneaky-status", Name: "x", Description: "d", Category: "utilities",
		ReadmeMarkdown: "# r", Status: model.StatusApproved,
	})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = env.svc.CreatePlugin(adminId, &model.CreatePluginReq{
		Slug: "bad-status", Name: "x", Description: "d", Category: "utilities",
		ReadmeMarkdown: "# r", Status: "live",
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	plugin, err := env.svc.CreatePlugin(adminId, &model.CreatePluginReq{
		Slug: "pre-approved", Name: "x", Description: "d", Category: "utilities",
		ReadmeMarkdown: "# r", Status: model.StatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, plugin.Status)
}

func TestCreatePluginQuota(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	for i := 0; i < 10; i++ {
		createPlugin(t, env, ownerId, fmt.Sprintf("plugin-%02d", i))
	}
	_, err := env.svc.CreatePlugin(ownerId, &model.CreatePluginReq{
		Slug: "plugin-10", Name: "x", Description: "d", Category: "utilities", ReadmeMarkdown: "# r",
	})
	require.Error(t, err)
	assert.Equal(t, KindQuotaExceeded, KindOf(err))

	// 管理员不受配额限制
	for i := 0; i < 11; i++ {
		createPlugin(t, env, adminId, fmt.Sprintf("admin-plugin-%02d", i))
	}
}

func TestCreatePluginSlugConflict(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	createPlugin(t, env, ownerId, "taken-slug")
	_, err := env.svc.CreatePlugin(strangerId, &model.CreatePluginReq{
		Slug: "taken-slug", Name: "x", Description: "d", Category: "utilities", ReadmeMarkdown: "# r",
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestUpdatePluginSlugImmutable(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	plugin := createPlugin(t, env, ownerId, "stable-slug")
	newSlug := "other-slug"
	_, err := env.svc.UpdatePlugin(ownerId, plugin.Id, &model.UpdatePluginReq{Slug: &newSlug}, nil, "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	// 传回相同 slug 不算修改
	same := plugin.Slug
	name := "Renamed"
	updated, err := env.svc.UpdatePlugin(ownerId, plugin.Id, &model.UpdatePluginReq{Slug: &same, Name: &name}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestUpdatePluginAdminOnlyFields(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	plugin := createPlugin(t, env, ownerId, "official-check")
	official := true
	_, err := env.svc.UpdatePlugin(ownerId, plugin.Id, &model.UpdatePluginReq{IsOfficial: &official}, nil, "")
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	updated, err := env.svc.UpdatePlugin(adminId, plugin.Id, &model.UpdatePluginReq{IsOfficial: &official}, nil, "")
	require.NoError(t, err)
	assert.True(t, updated.IsOfficial)
}

func TestUpdatePluginReadmeAndHomepage(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "readme-check")

	// README 可以改但不能清空
	blank := "   "
	_, err := env.svc.UpdatePlugin(ownerId, plugin.Id, &model.UpdatePluginReq{ReadmeMarkdown: &blank}, nil, "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	readme := "# Updated docs"
	updated, err := env.svc.UpdatePlugin(ownerId, plugin.Id, &model.UpdatePluginReq{ReadmeMarkdown: &readme}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "# Updated docs", updated.ReadmeMarkdown)

	bad := "not a url at all"
	_, err = env.svc.UpdatePlugin(ownerId, plugin.Id, &model.UpdatePluginReq{Homepage: &bad}, nil, "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	good := "https://tuff.sh"
	updated, err = env.svc.UpdatePlugin(ownerId, plugin.Id, &model.UpdatePluginReq{Homepage: &good}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "https://tuff.sh", updated.Homepage)

	// 置空主页是合法的
	empty := ""
	updated, err = env.svc.UpdatePlugin(ownerId, plugin.Id, &model.UpdatePluginReq{Homepage: &empty}, nil, "")
	require.NoError(t, err)
	assert.Empty(t, updated.Homepage)
}

func TestPublishValidationLeavesNoBlobs(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "no-orphans")

	pkg := buildTpex(t, `{"name":"p"}`, "readme")
	_, err := env.svc.PublishVersion(ownerId, plugin.Id, &model.PublishVersionReq{
		Version: "1.0.0", Channel: model.ChannelRelease, Changelog: "   ",
	}, pkg, nil, "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, 0, env.blob.Len())

	_, err = env.svc.PublishVersion(ownerId, plugin.Id, &model.PublishVersionReq{
		Version: "1.0.0", Channel: "NIGHTLY", Changelog: "changes",
	}, pkg, nil, "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, 0, env.blob.Len())

	oversized := make([]byte, 5*1024*1024+1)
	_, err = env.svc.PublishVersion(ownerId, plugin.Id, &model.PublishVersionReq{
		Version: "1.0.0", Channel: model.ChannelRelease, Changelog: "changes",
	}, oversized, nil, "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, 0, env.blob.Len())
}

func TestPublishSignatureAndMetadata(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "signed-plugin")

	pkg := buildTpex(t, `{"name":"signed","permissions":["clipboard"]}`, "# Signed\n")
	sum := sha256.Sum256(pkg)

	v, err := env.svc.PublishVersion(ownerId, plugin.Id, &model.PublishVersionReq{
		Version: "1.0.0", Channel: model.ChannelRelease, Changelog: "first",
	}, pkg, nil, "")
	require.NoError(t, err)

	assert.Equal(t, hex.EncodeToString(sum[:]), v.Signature)
	assert.Equal(t, model.StatusPending, v.Status)
	assert.Nil(t, v.ReviewedAt)
	assert.NotEmpty(t, v.PackageKey)
	assert.True(t, env.blob.Exists(v.PackageKey))
	assert.Contains(t, string(v.Manifest), `"signed"`)
	require.NotNil(t, v.ReadmeMarkdown)
	assert.Equal(t, "# Signed\n", *v.ReadmeMarkdown)
}

func TestPublishDuplicateTriple(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "dup-check")

	publish(t, env, ownerId, plugin.Id, "1.0.0", model.ChannelRelease)

	pkg := buildTpex(t, `{"name":"p"}`, "")
	_, err := env.svc.PublishVersion(ownerId, plugin.Id, &model.PublishVersionReq{
		Version: "1.0.0", Channel: model.ChannelRelease, Changelog: "again",
	}, pkg, nil, "")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	// 同版本号换渠道可以发布
	_, err = env.svc.PublishVersion(ownerId, plugin.Id, &model.PublishVersionReq{
		Version: "1.0.0", Channel: model.ChannelBeta, Changelog: "beta build",
	}, pkg, nil, "")
	require.NoError(t, err)
}

func TestPublishCooldown(t *testing.T) {
	env := newTestEnv(t, Limits{
		MaxPluginsPerUser:  10,
		SubmissionCooldown: 5 * time.Minute,
		MaxPackageSize:     5 * 1024 * 1024,
	})
	plugin := createPlugin(t, env, ownerId, "cooldown-check")

	first := publish(t, env, ownerId, plugin.Id, "1.0.0", model.ChannelRelease)

	pkg := buildTpex(t, `{"name":"p"}`, "")
	_, err := env.svc.PublishVersion(ownerId, plugin.Id, &model.PublishVersionReq{
		Version: "1.0.1", Channel: model.ChannelRelease, Changelog: "too soon",
	}, pkg, nil, "")
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))

	// 把上一次发布时间拨回冷却窗口之外
	stored, err := env.store.GetVersionById(first.Id)
	require.NoError(t, err)
	stored.CreatedAt = time.Now().Add(-6 * time.Minute)
	require.NoError(t, env.store.UpdateVersion(stored))

	_, err = env.svc.PublishVersion(ownerId, plugin.Id, &model.PublishVersionReq{
		Version: "1.0.1", Channel: model.ChannelRelease, Changelog: "after window",
	}, pkg, nil, "")
	require.NoError(t, err)

	// 管理员同样受冷却约束
	adminPlugin := createPlugin(t, env, adminId, "admin-cooldown")
	publish(t, env, adminId, adminPlugin.Id, "1.0.0", model.ChannelRelease)
	_, err = env.svc.PublishVersion(adminId, adminPlugin.Id, &model.PublishVersionReq{
		Version: "1.0.1", Channel: model.ChannelRelease, Changelog: "too soon",
	}, pkg, nil, "")
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))
}

func TestPublishPromotesPluginStatus(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	// 普通用户发布把 draft 提升为 pending
	plugin := createPlugin(t, env, ownerId, "promote-owner")
	publish(t, env, ownerId, plugin.Id, "1.0.0", model.ChannelRelease)
	reloaded, err := env.store.GetPluginById(plugin.Id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, reloaded.Status)

	// 管理员发布直接置为 approved
	adminPlugin := createPlugin(t, env, adminId, "promote-admin")
	publish(t, env, adminId, adminPlugin.Id, "1.0.0", model.ChannelRelease)
	reloaded, err = env.store.GetPluginById(adminPlugin.Id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, reloaded.Status)
}

func TestPublishForbiddenForNonOwner(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "owner-only")

	pkg := buildTpex(t, `{"name":"p"}`, "")
	_, err := env.svc.PublishVersion(strangerId, plugin.Id, &model.PublishVersionReq{
		Version: "1.0.0", Channel: model.ChannelRelease, Changelog: "nope",
	}, pkg, nil, "")
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestLatestVersionRanking(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "ranking-check")

	release := publish(t, env, ownerId, plugin.Id, "1.0.0", model.ChannelRelease)
	// 之后发布的 BETA 不能顶掉 RELEASE
	publish(t, env, ownerId, plugin.Id, "1.1.0-beta", model.ChannelBeta)

	reloaded, err := env.store.GetPluginById(plugin.Id)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LatestVersionId)
	assert.Equal(t, release.Id, *reloaded.LatestVersionId)

	// 更新的 RELEASE 会顶掉旧 RELEASE
	newer := publish(t, env, ownerId, plugin.Id, "1.1.0", model.ChannelRelease)
	reloaded, err = env.store.GetPluginById(plugin.Id)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LatestVersionId)
	assert.Equal(t, newer.Id, *reloaded.LatestVersionId)
}

func TestVersionApprovalDoesNotTouchPluginStatus(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "decoupled-review")
	v := publish(t, env, ownerId, plugin.Id, "1.0.0", model.ChannelRelease)

	reviewed, err := env.svc.SetVersionStatus(adminId, v.Id, model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedAt)

	// 插件自身仍是 pending，需单独审核
	reloaded, err := env.store.GetPluginById(plugin.Id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, reloaded.Status)

	// 驳回会清掉 reviewed_at
	rejected, err := env.svc.SetVersionStatus(adminId, v.Id, model.StatusRejected)
	require.NoError(t, err)
	assert.Nil(t, rejected.ReviewedAt)
}

func TestSetVersionStatusAdminOnly(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "review-gate")
	v := publish(t, env, ownerId, plugin.Id, "1.0.0", model.ChannelRelease)

	_, err := env.svc.SetVersionStatus(ownerId, v.Id, model.StatusApproved)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	// 版本没有 draft 状态
	_, err = env.svc.SetVersionStatus(adminId, v.Id, model.StatusDraft)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestSetPluginStatusOwnerTransitions(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "status-transitions")

	updated, err := env.svc.SetPluginStatus(ownerId, plugin.Id, model.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, updated.Status)

	_, err = env.svc.SetPluginStatus(ownerId, plugin.Id, model.StatusApproved)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	updated, err = env.svc.SetPluginStatus(adminId, plugin.Id, model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)

	// 状态相同是无操作
	same, err := env.svc.SetPluginStatus(adminId, plugin.Id, model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, same.Status)
}

func TestDeleteVersionCleansBlobs(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "delete-version")
	v := publish(t, env, ownerId, plugin.Id, "1.0.0", model.ChannelRelease)
	require.True(t, env.blob.Exists(v.PackageKey))

	_, err := env.svc.SetVersionStatus(adminId, v.Id, model.StatusApproved)
	require.NoError(t, err)

	err = env.svc.DeleteVersion(strangerId, v.Id)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	require.NoError(t, env.svc.DeleteVersion(ownerId, v.Id))
	assert.False(t, env.blob.Exists(v.PackageKey))

	reloaded, err := env.store.GetPluginById(plugin.Id)
	require.NoError(t, err)
	assert.Nil(t, reloaded.LatestVersionId)
}

func TestDeletePluginCascades(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "delete-cascade")
	v1 := publish(t, env, ownerId, plugin.Id, "1.0.0", model.ChannelRelease)
	v2 := publish(t, env, ownerId, plugin.Id, "1.1.0", model.ChannelBeta)

	require.NoError(t, env.svc.DeletePlugin(adminId, plugin.Id))

	_, err := env.store.GetPluginById(plugin.Id)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = env.store.GetVersionById(v1.Id)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.False(t, env.blob.Exists(v1.PackageKey))
	assert.False(t, env.blob.Exists(v2.PackageKey))
	assert.Equal(t, 0, env.blob.Len())
}

func TestBetaVisibility(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "beta-gate")
	beta := publish(t, env, ownerId, plugin.Id, "2.0.0-beta", model.ChannelBeta)

	_, err := env.svc.SetVersionStatus(adminId, beta.Id, model.StatusApproved)
	require.NoError(t, err)
	_, err = env.svc.SetPluginStatus(adminId, plugin.Id, model.StatusApproved)
	require.NoError(t, err)

	// 组织成员能看到 BETA 版本
	detail, err := env.svc.GetPlugin(orgMateId, plugin.Id, false)
	require.NoError(t, err)
	assert.Len(t, detail.Versions, 1)

	// 无关用户看不到，即使版本已过审
	detail, err = env.svc.GetPlugin(strangerId, plugin.Id, false)
	require.NoError(t, err)
	assert.Empty(t, detail.Versions)
	assert.Nil(t, detail.LatestVersion)
}

func TestDownloadAssetBetaGate(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "beta-download")
	beta := publish(t, env, ownerId, plugin.Id, "2.0.0-beta", model.ChannelBeta)

	for _, userId := range []string{"", strangerId} {
		_, err := env.svc.DownloadAsset(userId, beta.PackageKey)
		require.Error(t, err)
		assert.Equal(t, KindForbidden, KindOf(err))
	}

	for _, userId := range []string{ownerId, adminId, orgMateId} {
		asset, err := env.svc.DownloadAsset(userId, beta.PackageKey)
		require.NoError(t, err)
		assert.Equal(t, "2.0.0-beta.tpex", asset.Filename)
		assert.NotEmpty(t, asset.Data)
	}

	_, err := env.svc.DownloadAsset("", "packages/does-not-exist.tpex")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestMarketListOnlyApproved(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	// 过审插件 + 过审版本，进入市场
	visible := createPlugin(t, env, ownerId, "market-visible")
	v := publish(t, env, ownerId, visible.Id, "1.0.0", model.ChannelRelease)
	_, err := env.svc.SetVersionStatus(adminId, v.Id, model.StatusApproved)
	require.NoError(t, err)
	_, err = env.svc.SetPluginStatus(adminId, visible.Id, model.StatusApproved)
	require.NoError(t, err)

	// 过审插件但版本全在待审，不进市场
	noVersion := createPlugin(t, env, ownerId, "market-pending-version")
	publish(t, env, ownerId, noVersion.Id, "1.0.0", model.ChannelRelease)
	_, err = env.svc.SetPluginStatus(adminId, noVersion.Id, model.StatusApproved)
	require.NoError(t, err)

	// 待审插件不进市场
	createPlugin(t, env, ownerId, "market-pending-plugin")

	list, err := env.svc.ListMarketPlugins()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "market-visible", list[0].Slug)
	require.NotNil(t, list[0].LatestVersion)
	assert.Equal(t, v.Id, list[0].LatestVersion.Id)
}

func TestDashboardListScoping(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	mine := createPlugin(t, env, ownerId, "dashboard-mine")
	createPlugin(t, env, strangerId, "dashboard-theirs")

	// 普通用户只看到自己的
	list, err := env.svc.ListDashboardPlugins(ownerId, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.Id, list[0].Id)

	// 管理员看到全部，且可按状态过滤
	list, err = env.svc.ListDashboardPlugins(adminId, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = env.svc.ListDashboardPlugins(adminId, []string{model.StatusApproved})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordInstall(t *testing.T) {
	env := newTestEnv(t, fastLimits())
	plugin := createPlugin(t, env, ownerId, "install-count")

	for i := 0; i < 3; i++ {
		_, err := env.svc.RecordInstall(plugin.Id)
		require.NoError(t, err)
	}
	reloaded, err := env.store.GetPluginById(plugin.Id)
	require.NoError(t, err)
	assert.EqualValues(t, 3, reloaded.Installs)
}

func TestPreviewPackageDoesNotPersist(t *testing.T) {
	env := newTestEnv(t, fastLimits())

	pkg := buildTpex(t, `{"name":"preview"}`, "# Preview")
	preview, err := env.svc.PreviewPackage(pkg)
	require.NoError(t, err)
	assert.Equal(t, "preview", preview.Manifest["name"])
	require.NotNil(t, preview.ReadmeMarkdown)
	assert.EqualValues(t, len(pkg), preview.Size)
	assert.Len(t, preview.Signature, 64)
	assert.Equal(t, 0, env.blob.Len())

	_, err = env.svc.PreviewPackage([]byte("not a tar"))
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}
