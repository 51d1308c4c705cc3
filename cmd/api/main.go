package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-stock-tracker/internal/cache"
	"go-stock-tracker/internal/config"
	"go-stock-tracker/internal/handler"
	"go-stock-tracker/internal/health"
	"go-stock-tracker/internal/logger"
	"go-stock-tracker/internal/metrics"
	"go-stock-tracker/internal/middleware"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/seed"
	"go-stock-tracker/internal/service"
	"go-stock-tracker/internal/ws"
	"go-stock-tracker/pkg/database"
	"go-stock-tracker/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	// 1. Config and logging
	cfg := config.MustLoad()
	log := logger.Must(cfg.Env)
	defer func() { _ = log.Sync() }()

	// 2. Database
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", zap.Error(err))
	}

	ctx := context.Background()
	seed.Run(ctx, db, cfg.PrimaryAdmin, log)

	// 3. Optional Redis cache for dashboard aggregates
	var redisClient *redis.Client
	statsCache := cache.NewNoop()
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		statsCache = cache.NewRedisCache(redisClient, cfg.CacheTTL)
		log.Info("dashboard cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// 4. WebSocket hub
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	// 5. Wiring
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	requestRepo := repository.NewStockRequestRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)

	invService := service.NewInventoryService(productRepo, categoryRepo, txRepo, db, wsHub)
	categoryService := service.NewCategoryService(categoryRepo, productRepo, wsHub)
	requestService := service.NewStockRequestService(requestRepo, productRepo, userRepo, txRepo, db, wsHub)
	dashService := service.NewDashboardService(txRepo, statsCache, cfg.CacheTTL, log)
	authService := service.NewAuthService(userRepo, roleRepo, tokens, cfg.JWT.TTL, cfg.JWT.IdleTimeout, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo, wsHub)

	router := handler.Router{
		Auth:          handler.NewAuthHandler(authService, log),
		Dashboard:     handler.NewDashboardHandler(dashService, log),
		Categories:    handler.NewCategoryHandler(categoryService, log),
		Inventory:     handler.NewInventoryHandler(invService, log),
		StockRequests: handler.NewStockRequestHandler(requestService, log),
		Users:         handler.NewUserHandler(userService, log),
		Roles:         handler.NewRoleHandler(roleRepo, privilegeRepo, log),
	}

	checks, err := health.New(version, &health.Endpoints{DB: sqlDB, RedisClient: redisClient})
	if err != nil {
		log.Fatal("failed to set up health checks", zap.Error(err))
	}

	// 6. Fiber
	app := fiber.New(fiber.Config{
		AppName: "Stock Tracker v" + version,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))
	app.Use(middleware.RequestLogger(log))
	app.Use(metrics.Middleware())

	app.Get("/health", adaptor.HTTPHandler(checks.Handler()))
	app.Get("/metrics", metrics.Handler())

	router.Register(app, middleware.RequireAuth(tokens, userRepo))

	app.Use("/ws", handler.UpgradeOnly)
	app.Get("/ws", handler.WebSocket(wsHub))

	// 7. Serve and shut down gracefully
	go func() {
		log.Info("listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	wsHub.Stop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	_ = sqlDB.Close()
	log.Info("server exited")
}
