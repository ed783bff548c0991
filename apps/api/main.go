package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	sqlassets "github.com/corelinehq/coreline-crm/database"
	crmhandler "github.com/corelinehq/coreline-crm/domains/crm/be/handler"
	crmrepo "github.com/corelinehq/coreline-crm/domains/crm/be/repo"
	crmservice "github.com/corelinehq/coreline-crm/domains/crm/be/service"
	tenantshandler "github.com/corelinehq/coreline-crm/domains/tenants/be/handler"
	tenantsprov "github.com/corelinehq/coreline-crm/domains/tenants/be/provisioning"
	tenantsrepo "github.com/corelinehq/coreline-crm/domains/tenants/be/repo"
	tenantsservice "github.com/corelinehq/coreline-crm/domains/tenants/be/service"
	platformauth "github.com/corelinehq/coreline-crm/platform/go/auth"
	platformlogging "github.com/corelinehq/coreline-crm/platform/go/logging"
	platformmetrics "github.com/corelinehq/coreline-crm/platform/go/metrics"
	platformmiddleware "github.com/corelinehq/coreline-crm/platform/go/middleware"
	"github.com/corelinehq/coreline-crm/platform/go/persistence"
	tenantmiddleware "github.com/corelinehq/coreline-crm/platform/go/tenant/middleware"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	AdminDatabase   string        `env:"ADMIN_DATABASE_URL"` // defaults to DATABASE_URL
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY,required"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"100"`
	MigrateOnBoot   bool          `env:"MIGRATE_ON_BOOT" envDefault:"true"`
}

func main() {
	ctx := context.Background()

	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.AdminDatabase == "" {
		cfg.AdminDatabase = cfg.DatabaseURL
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := sqlassets.MigrateDirectory(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("migrate directory schema", zap.Error(err))
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	tenantStore, err := persistence.NewTenantStore(pool)
	if err != nil {
		logger.Fatal("init tenant store", zap.Error(err))
	}
	userStore, err := persistence.NewUserStore(pool)
	if err != nil {
		logger.Fatal("init user store", zap.Error(err))
	}

	dbProv := tenantsprov.NewDBProvisioner(tenantsprov.DBProvisionerConfig{
		AdminDSN:    cfg.AdminDatabase,
		TemplateDSN: cfg.DatabaseURL,
		Logger:      logger,
	})

	if cfg.MigrateOnBoot {
		// Bring every registered tenant database up to the current schema
		// before accepting traffic. Individual failures are logged and do not
		// block startup.
		records, err := tenantStore.List(ctx)
		if err != nil {
			logger.Fatal("list tenants for migration sweep", zap.Error(err))
		}
		result := dbProv.MigrateAll(ctx, records)
		logger.Info("tenant migration sweep finished",
			zap.Int("migrated", result.Migrated),
			zap.Int("failed", result.Failed),
		)
	}

	appMetrics := platformmetrics.New()

	tenantRepo := tenantsrepo.NewPostgresRepository(tenantStore)
	userDirectory := tenantsrepo.NewUserDirectory(userStore)
	tenantService := tenantsservice.New(tenantRepo, dbProv, userDirectory, logger)
	tenantHTTPHandler := tenantshandler.New(tenantService, appMetrics)

	crmSvc := crmservice.New(
		crmrepo.NewCustomerRepository(),
		crmrepo.NewContactRepository(),
		crmrepo.NewDealRepository(),
	)
	crmHTTPHandler := crmhandler.New(crmSvc)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
		platformmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Handle("/metrics", promhttp.Handler())

	apiRouter := chi.NewRouter()
	apiRouter.Use(platformauth.JWT([]byte(cfg.JWTSigningKey)))
	apiRouter.Use(tenantmiddleware.ResolveAndBind(tenantService, dbProv, tenantmiddleware.Config{
		Metrics: appMetrics,
		Logger:  logger,
	}))

	apiRouter.Group(func(r chi.Router) {
		r.Use(platformauth.RequireRole("admin"))
		r.Mount("/tenants", tenantHTTPHandler.Routes())
	})

	apiRouter.Mount("/", crmHTTPHandler.Routes())

	rootRouter.Mount("/api", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
