package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appbilling "github.com/medcare/backend/internal/application/billing"
	appclinic "github.com/medcare/backend/internal/application/clinic"
	"github.com/medcare/backend/internal/domain/billing"
	"github.com/medcare/backend/internal/domain/shared/valueobject"
	"github.com/medcare/backend/internal/infrastructure/auth"
	"github.com/medcare/backend/internal/infrastructure/cache"
	"github.com/medcare/backend/internal/infrastructure/config"
	"github.com/medcare/backend/internal/infrastructure/logger"
	"github.com/medcare/backend/internal/infrastructure/persistence"
	"github.com/medcare/backend/internal/infrastructure/telemetry"
	"github.com/medcare/backend/internal/interfaces/http/handler"
	"github.com/medcare/backend/internal/interfaces/http/middleware"
	"github.com/medcare/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

//	@title			MedCare Entitlement API
//	@version		1.0
//	@description	Subscription entitlements, usage limits and revenue reporting for clinics and doctors.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Telemetry: traces, metrics, logs and profiles
	tp, err := telemetry.NewTracerProvider(rootCtx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(rootCtx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(rootCtx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if cfg.Telemetry.LogsEnabled {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: lp,
			Level:          zapcore.InfoLevel,
		})
		log = telemetry.NewBridgedLogger(logger.NewCore(logCfg), otelCore)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling disabled", zap.Error(err))
	}
	if profiler != nil && cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles {
		tp.EnableSpanProfiles()
	}

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	// Database
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log, logger.MapGormLogLevel(cfg.Log.Level)),
		persistence.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)
		if err := plugin.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}

	var dbMetrics *telemetry.DBMetrics
	if mp.IsEnabled() {
		dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			dbMetricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
		}
		dbMetrics, err = telemetry.NewDBMetrics(mp.Meter(cfg.Telemetry.ServiceName), dbMetricsCfg, log)
		if err != nil {
			log.Warn("Database metrics disabled", zap.Error(err))
		} else if err := db.DB.Use(telemetry.NewDBMetricsPlugin(dbMetrics)); err != nil {
			log.Warn("Database metrics plugin not registered", zap.Error(err))
		} else if sqlDB, err := db.DB.DB(); err == nil {
			dbMetrics.StartPoolStatsCollection(rootCtx, sqlDB)
		}
	}

	// Plan cache
	planCache, err := cache.NewPlanCacheFactory(
		cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		planCacheConfig(cfg.Entitlement),
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create(cfg.Entitlement.PlanCacheBackend)
	if err != nil {
		log.Fatal("Failed to initialize plan cache", zap.Error(err))
	}
	go func() {
		if err := planCache.Start(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Plan cache invalidation stopped", zap.Error(err))
		}
	}()

	// Repositories
	directory := persistence.NewGormPrincipalDirectory(db.DB)
	subscriptions := persistence.NewGormSubscriptionRepository(db.DB)
	usage := persistence.NewGormUsageRepository(db.DB)
	planRepo := persistence.NewGormPlanCatalogRepository(db.DB)
	payments := persistence.NewGormPaymentRepository(db.DB)
	clinicRepo := persistence.NewGormClinicRepository(db.DB)

	// Application services
	currency, err := valueobject.ParseCurrency(cfg.Entitlement.DefaultCurrency)
	if err != nil {
		log.Fatal("Invalid default currency", zap.Error(err))
	}
	resolver := appbilling.NewTenantResolver(directory, log)
	counter := appbilling.NewUsageCounter(usage, log)
	catalogService := appbilling.NewPlanCatalogService(planRepo, subscriptions, planCache.Cache, log,
		appbilling.PlanCatalogServiceConfig{
			DefaultCurrency: currency,
			CacheTTL:        cfg.Entitlement.PlanCacheTTL,
		})
	entitlementService := appbilling.NewEntitlementService(resolver, subscriptions, catalogService, counter, log)
	gateService := appbilling.NewGateService(entitlementService, log, appbilling.GateServiceConfig{
		Remediation: billing.Remediation{
			Href:  cfg.Entitlement.RemediationHref,
			Label: cfg.Entitlement.RemediationLabel,
		},
	})
	revenueService := appbilling.NewRevenueService(payments, subscriptions, planRepo, log)
	clinicService := appclinic.NewService(clinicRepo, gateService, log)

	var businessMetrics *telemetry.BusinessMetrics
	if mp.IsEnabled() {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:              mp.Meter(cfg.Telemetry.ServiceName),
			Logger:             log,
			SubscriberProvider: telemetry.NewGormSubscriberMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Business metrics disabled", zap.Error(err))
		} else {
			gateService.SetBusinessMetrics(businessMetrics)
			catalogService.SetBusinessMetrics(businessMetrics)
			revenueService.SetBusinessMetrics(businessMetrics)
			businessMetrics.StartPeriodicCollection(rootCtx, cfg.Entitlement.MetricsInterval)
		}
	}

	if cfg.Entitlement.BootstrapOnStart {
		ctx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
		res, err := catalogService.Bootstrap(ctx)
		cancel()
		if err != nil {
			log.Fatal("Plan catalog bootstrap failed", zap.Error(err))
		}
		log.Info("Plan catalog bootstrapped",
			zap.Int64("plans_created", res.PlansCreated),
			zap.Int64("prices_created", res.PricesCreated),
		)
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	healthPaths := []string{"/health", "/api/v1/health"}
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		logger.GinMiddleware(log),
		middleware.CORSWithConfig(corsCfg),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.HTTPMetrics(mp.Meter(cfg.Telemetry.ServiceName), log),
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			Verifier:  auth.NewVerifier(cfg.JWT),
			SkipPaths: healthPaths,
			Logger:    log,
		}),
		middleware.LoadPrincipal(resolver, log),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
		middleware.Profiling(cfg.Profiling.Enabled, healthPaths...),
	)

	handlers := router.Handlers{
		System:       handler.NewSystemHandler(cfg.App.Name, version, db),
		Entitlements: handler.NewEntitlementHandler(entitlementService, gateService),
		Plans:        handler.NewPlanHandler(catalogService),
		Revenue:      handler.NewRevenueHandler(revenueService),
		Clinic:       handler.NewClinicHandler(clinicService),
	}
	router.MountHealth(engine, "v1", handlers.System)
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(router.Groups(handlers)...).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	stop()
	if businessMetrics != nil {
		businessMetrics.Stop()
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := planCache.Close(); err != nil {
		log.Warn("Failed to close plan cache", zap.Error(err))
	}
	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			log.Warn("Failed to stop profiler", zap.Error(err))
		}
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Warn("Failed to flush metrics", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Failed to flush traces", zap.Error(err))
	}
	if err := lp.Shutdown(ctx); err != nil {
		log.Warn("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// planCacheConfig overlays configured values on the cache defaults.
func planCacheConfig(cfg config.EntitlementConfig) billing.CacheConfig {
	c := billing.DefaultCacheConfig()
	if cfg.PlanCacheTTL > 0 {
		c.PlanTTL = cfg.PlanCacheTTL
	}
	return c
}
