package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "erpcrm/api/swagger" // swagger docs
	"erpcrm/internal/cache"
	"erpcrm/internal/config"
	"erpcrm/internal/database"
	"erpcrm/internal/handler"
	"erpcrm/internal/logger"
	"erpcrm/internal/middleware"
	"erpcrm/internal/repository"
	"erpcrm/internal/service"
	"erpcrm/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           ERP/CRM API
// @version         1.0
// @description     Partners, clients, vendors, catalog, sales and purchase orders, banking, payables, receivables and the monthly dashboard.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}

	var dashboardCache cache.Cache = cache.NewMemoryCache()
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.App.Name+":")
		if err != nil {
			log.Fatal("Redis connection failed", zap.Error(err))
		}
		defer redisCache.Close()
		dashboardCache = redisCache
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)

	// Repositories
	txManager := repository.NewTransactionManager(db)
	auditRepo := repository.NewAuditRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	clientRepo := repository.NewClientRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockMovementRepository(db)
	conditionRepo := repository.NewPaymentConditionRepository(db)
	salesRepo := repository.NewSalesOrderRepository(db)
	purchaseRepo := repository.NewPurchaseOrderRepository(db)
	accountRepo := repository.NewBankAccountRepository(db)
	payableRepo := repository.NewPayableRepository(db)
	receivableRepo := repository.NewReceivableRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	auth := middleware.NewAuth(cfg.JWT.Secret, roleRepo, cfg.App.IsProduction())

	// Services
	dashboardService := service.NewDashboardService(dashboardRepo, dashboardCache, wsHub, service.DashboardOptions{
		Dialect:        cfg.Database.Driver,
		Testing:        cfg.App.IsTesting(),
		Concurrent:     cfg.Dashboard.Concurrent,
		MaxParallel:    cfg.Dashboard.MaxParallel,
		CacheTTL:       cfg.Dashboard.CacheTTL,
		CurrencyPrefix: cfg.App.CurrencyPrefix,
	})
	roleService := service.NewRoleService(roleRepo, txManager, auth)
	userService := service.NewUserService(userRepo, roleRepo, auditRepo, txManager, service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
	})
	auditService := service.NewAuditService(auditRepo)
	partnerService := service.NewPartnerService(partnerRepo, addressRepo, auditRepo, txManager)
	clientService := service.NewClientService(clientRepo, addressRepo, auditRepo, txManager, dashboardService)
	vendorService := service.NewVendorService(vendorRepo, auditRepo, txManager, dashboardService)
	categoryService := service.NewCategoryService(categoryRepo, auditRepo, txManager)
	productService := service.NewProductService(productRepo, categoryRepo, stockRepo, auditRepo, txManager, dashboardService)
	conditionService := service.NewPaymentConditionService(conditionRepo, auditRepo, txManager)
	salesService := service.NewSalesOrderService(salesRepo, clientRepo, vendorRepo, conditionRepo, productRepo, stockRepo, auditRepo, txManager, dashboardService)
	purchaseService := service.NewPurchaseOrderService(purchaseRepo, partnerRepo, conditionRepo, productRepo, stockRepo, auditRepo, txManager, dashboardService)
	accountService := service.NewBankAccountService(accountRepo, auditRepo, txManager)
	payableService := service.NewPayableService(payableRepo, partnerRepo, accountRepo, auditRepo, txManager, dashboardService)
	receivableService := service.NewReceivableService(receivableRepo, partnerRepo, accountRepo, auditRepo, txManager, dashboardService)

	if err := roleService.SeedDefaultRolesAndPermissions(ctx); err != nil {
		log.Fatal("Failed to seed roles and permissions", zap.Error(err))
	}
	if cfg.App.AdminEmail != "" && cfg.App.AdminPassword != "" {
		if err := userService.EnsureAdmin(ctx, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
			log.Fatal("Failed to seed administrator", zap.Error(err))
		}
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.RegisterValidators()

	router := gin.New()
	router.Use(logger.Recovery(log), logger.GinMiddleware(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, func(token string) error {
			_, _, err := auth.ParseToken(token)
			return err
		})
	})

	// API Routing
	routes := router.Group("")
	handler.NewUserHandler(userService, auth).RegisterRoutes(routes, auth)
	handler.NewRoleHandler(roleService).RegisterRoutes(routes, auth)
	handler.NewAuditHandler(auditService).RegisterRoutes(routes, auth)
	handler.NewPartnerHandler(partnerService).RegisterRoutes(routes, auth)
	handler.NewClientHandler(clientService).RegisterRoutes(routes, auth)
	handler.NewVendorHandler(vendorService).RegisterRoutes(routes, auth)
	handler.NewProductHandler(productService, categoryService).RegisterRoutes(routes, auth)
	handler.NewPaymentConditionHandler(conditionService).RegisterRoutes(routes, auth)
	handler.NewSalesOrderHandler(salesService).RegisterRoutes(routes, auth)
	handler.NewPurchaseOrderHandler(purchaseService).RegisterRoutes(routes, auth)
	handler.NewBankAccountHandler(accountService).RegisterRoutes(routes, auth)
	handler.NewPayableHandler(payableService).RegisterRoutes(routes, auth)
	handler.NewReceivableHandler(receivableService).RegisterRoutes(routes, auth)
	handler.NewDashboardHandler(dashboardService).RegisterRoutes(routes, auth)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
}
