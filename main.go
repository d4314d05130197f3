package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"go.uber.org/zap"

	"coursereg_backend/internals/configs"
	database "coursereg_backend/internals/databases"
	"coursereg_backend/internals/features/classes/attendance/scheduler"
	"coursereg_backend/internals/features/realtime/hub"
	helper "coursereg_backend/internals/helpers"
	middlewares "coursereg_backend/internals/middlewares"
	routes "coursereg_backend/internals/route"
	"coursereg_backend/internals/seeds"
)

func main() {
	configs.LoadEnv()
	cfg := configs.Load()

	log := configs.NewLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	// 🔌 DB connect + pool + schema + warm-up
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal("❌ DB connect failed", zap.Error(err))
	}
	if err := database.TunePool(db); err != nil {
		log.Fatal("❌ DB pool failed", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("❌ migrate failed", zap.Error(err))
	}
	database.WarmUpQueries(db, log)

	// 📣 realtime fan-out
	h := hub.New(hub.Options{
		SendTimeout: cfg.WSSendTimeout,
		FanoutLimit: cfg.FanoutLimit,
		Logger:      log,
	})
	dispatcher := hub.NewDispatcher(h, cfg.NotifyQueueSize, log)

	svcs := routes.NewServices(db, cfg, dispatcher, log)

	seeds.RunAllSeeds(context.Background(), cfg, svcs.Auth, log)

	// ⏱ scheduler setelah DB siap
	reaper, err := scheduler.StartSessionAutoClose(svcs.Attendance, cfg.AttendanceAutoCloseCron, log)
	if err != nil {
		log.Fatal("❌ invalid ATTENDANCE_AUTOCLOSE_CRON", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          helper.ErrorHandler,
		ProxyHeader:           fiber.HeaderXForwardedFor,
	})

	// ⚙️ middleware dasar + performa
	middlewares.SetupMiddlewares(app, middlewares.SetupOpts{
		CorsOrigins:    cfg.CorsOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// ✅ Routes
	routes.SetupRoutes(app, routes.Deps{
		DB:       db,
		Config:   cfg,
		Hub:      h,
		Notifier: dispatcher,
		Services: svcs,
		Log:      log,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Info("✅ Listening", zap.String("port", cfg.Port))
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown: HTTP, antrean notifikasi, cron, pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	<-reaper.Stop().Done()
	if err := dispatcher.Close(ctx); err != nil {
		log.Warn("dispatcher drain", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		log.Warn("db close", zap.Error(err))
	}
}
