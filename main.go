package main

import (
	"context"
	"embed"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/brightlead/site/internal/feat/admin"
	"github.com/brightlead/site/internal/feat/site"
	"github.com/brightlead/site/internal/journal"
	"github.com/brightlead/site/internal/remote"
	"github.com/brightlead/site/internal/remote/fake"
	"github.com/brightlead/site/internal/session"
	"github.com/brightlead/site/internal/store"
	"github.com/brightlead/site/internal/web"
	"github.com/brightlead/site/pkg/bl/app"
	"github.com/brightlead/site/pkg/bl/config"
	"github.com/brightlead/site/pkg/bl/database"
	"github.com/brightlead/site/pkg/bl/logger"
	"github.com/brightlead/site/pkg/bl/middleware"
	"github.com/go-chi/chi/v5"
)

//go:embed assets/migrations/sqlite/*.sql
var migrationsFS embed.FS

//go:embed assets/templates/*.html assets/templates/*/*.html
var templatesFS embed.FS

//go:embed assets/static
var staticFS embed.FS

func main() {
	ctx := context.Background()

	cfg := config.Load()
	log := logger.New(cfg.Log.Level)

	log.Infof("Starting BrightLead [%s mode]", cfg.Env)
	log.Infof("Database: %s", cfg.Database.Path)

	db := database.New(migrationsFS, cfg, log)
	db.SetMigrationPath("assets/migrations/sqlite")

	vault := session.NewService(db, cfg, log)
	jrnl := journal.NewService(db, cfg, log)

	baseURL := cfg.Backend.BaseURL
	if cfg.Backend.Fake {
		baseURL = startFakeBackend(cfg, log)
	}
	log.Infof("Backend: %s", baseURL)

	client := remote.NewClient(baseURL, cfg.Backend.TimeoutDuration(), log)

	st := store.New(client, log)
	st.SetRecorder(jrnl)

	guardMw := session.Guard(vault, log)

	siteHandler := site.NewHandler(st, templatesFS, cfg, log)
	adminHandler := admin.NewHandler(st, client, vault, jrnl, guardMw, templatesFS, cfg, log)
	fileServer := web.NewFileServer(staticFS, log)

	router := chi.NewRouter()
	middleware.DefaultStack(router)

	deps := []any{db, vault, jrnl, siteHandler, adminHandler, fileServer}

	starts, stops, registrars := app.Setup(ctx, router, deps...)
	if err := app.Start(ctx, log, starts, stops, registrars, router); err != nil {
		log.Errorf("Startup failed: %v", err)
		os.Exit(1)
	}

	go app.Serve(router, cfg.Server.Addr)
	log.Infof("Server listening on %s", cfg.Server.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Stop(ctx, log, stops)
	log.Info("Server stopped")
}

// startFakeBackend serves the embedded backend with demo data and
// returns its base URL. Dev convenience so the site runs standalone.
func startFakeBackend(cfg *config.Config, log logger.Logger) string {
	srv, err := fake.NewServer(cfg.Backend.AdminUser, cfg.Backend.AdminPassword)
	if err != nil {
		log.Errorf("Cannot create fake backend: %v", err)
		os.Exit(1)
	}
	seedFakeBackend(srv)

	go func() {
		if err := http.ListenAndServe(cfg.Backend.FakeAddr, srv); err != nil {
			log.Errorf("Fake backend stopped: %v", err)
		}
	}()

	log.Infof("Fake backend listening on %s (admin: %s)", cfg.Backend.FakeAddr, cfg.Backend.AdminUser)
	return "http://" + cfg.Backend.FakeAddr
}

func seedFakeBackend(srv *fake.Server) {
	srv.SeedContent(remote.ContentBlock{
		Section: "hero",
		Title:   "让品牌在新媒体时代脱颖而出",
		Content: "专业团队提供抖音、小红书、视频号全平台代运营服务",
		Metadata: map[string]any{
			"subtitle": "从0到1打造爆款账号",
		},
		IsActive: true,
	})
	srv.SeedContent(remote.ContentBlock{
		Section: "services",
		Title:   "我们的服务",
		Content: "覆盖内容策划、拍摄剪辑、投放优化的一站式运营方案",
		Metadata: map[string]any{
			"items": []any{
				map[string]any{"title": "账号代运营", "description": "全平台账号托管，内容日更，数据周报"},
				map[string]any{"title": "短视频制作", "description": "脚本策划、拍摄、剪辑一条龙"},
				map[string]any{"title": "直播带货", "description": "直播间搭建与主播孵化"},
			},
		},
		IsActive: true,
	})
	srv.SeedCase(remote.CaseItem{
		Title:       "美妆品牌 30 天涨粉 10 万",
		Description: "通过爆款选题矩阵与投流配合，单月自然流量提升 320%",
		Platform:    "抖音",
		Metrics:     map[string]string{"涨粉": "10w+", "曝光": "1200w"},
		IsActive:    true,
	})
	srv.SeedCase(remote.CaseItem{
		Title:        "餐饮连锁同城引流",
		Description:  "本地生活内容 + 团购挂载，到店核销率行业前 10%",
		Platform:     "小红书",
		Metrics:      map[string]string{"笔记曝光": "500w", "核销率": "18%"},
		DisplayOrder: 1,
		IsActive:     true,
	})
}
