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

package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tuff-sh/tuffhub/internal/registry/conf"
	"github.com/tuff-sh/tuffhub/internal/registry/repo"
	"github.com/tuff-sh/tuffhub/internal/registry/router"
	"github.com/tuff-sh/tuffhub/internal/registry/service"
	"github.com/tuff-sh/tuffhub/pkg/cache"
	"github.com/tuff-sh/tuffhub/pkg/ctx"
	"github.com/tuff-sh/tuffhub/pkg/log"
	"github.com/tuff-sh/tuffhub/pkg/orm"
	"github.com/tuff-sh/tuffhub/pkg/storage"
)

// App 组装好的应用
type App struct {
	Conf  conf.AppConfig
	Ctx   *ctx.Context
	Fiber *fiber.App

	cleanup func()
}

// NewApp 按配置文件初始化所有依赖
func NewApp(confFile string) (*App, error) {
	cfg := conf.NewConf(confFile)

	log.MustInit(&cfg.Log)

	db, err := orm.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	appCtx := ctx.NewContext(context.Background(), db, rdb, log.GetLogger())

	store := repo.NewRepo(appCtx)
	if err := store.EnsureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	blob, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	limits := service.Limits{
		MaxPluginsPerUser:  cfg.Registry.MaxPluginsPerUser,
		SubmissionCooldown: cfg.Registry.SubmissionCooldown,
		MaxPackageSize:     cfg.Registry.MaxPackageSize,
	}

	registrySvc := service.NewRegistryService(appCtx, store, blob, limits)
	authSvc := service.NewAuthService(appCtx, store, &cfg.Http.Auth, rdb)
	updateSvc := service.NewUpdateService(appCtx, store)
	imageSvc := service.NewImageService(appCtx, store, blob)

	rt := router.NewRouter(&cfg.Http, appCtx, registrySvc, authSvc, updateSvc, imageSvc)

	app := &App{
		Conf:  cfg,
		Ctx:   appCtx,
		Fiber: rt.Router(),
		cleanup: func() {
			_ = rdb.Close()
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	}
	return app, nil
}

// Run 启动 HTTP 服务并等待退出信号
func (a *App) Run() error {
	addr := fmt.Sprintf("%s:%d", a.Conf.Http.Host, a.Conf.Http.Port)

	errCh := make(chan error, 1)
	go func() {
		if a.Conf.Http.TLS.CertFile != "" && a.Conf.Http.TLS.KeyFile != "" {
			errCh <- a.Fiber.ListenTLS(addr, a.Conf.Http.TLS.CertFile, a.Conf.Http.TLS.KeyFile)
			return
		}
		errCh <- a.Fiber.Listen(addr)
	}()
	log.Infow("tuffhub started", "addr", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.cleanup()
		return err
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
	}

	timeout := time.Duration(a.Conf.Http.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := a.Fiber.ShutdownWithTimeout(timeout); err != nil {
		log.Errorw("shutdown failed", "error", err)
	}
	a.cleanup()
	log.Infow("tuffhub stopped")
	return nil
}
