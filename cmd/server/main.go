package main // Entry point package

import (
    "context"
    "log"
    "time"

    "github.com/getsentry/sentry-go"
    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/karthicware/ultra-bms-sub010/internal/auth"
    "github.com/karthicware/ultra-bms-sub010/internal/config"
    "github.com/karthicware/ultra-bms-sub010/internal/database"
    "github.com/karthicware/ultra-bms-sub010/internal/handler"
    "github.com/karthicware/ultra-bms-sub010/internal/mailer"
    "github.com/karthicware/ultra-bms-sub010/internal/middleware"
    "github.com/karthicware/ultra-bms-sub010/internal/queue"
    "github.com/karthicware/ultra-bms-sub010/internal/repository"
    "github.com/karthicware/ultra-bms-sub010/internal/router"
    "github.com/karthicware/ultra-bms-sub010/internal/storage"
    "github.com/karthicware/ultra-bms-sub010/internal/sweep"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()
    policy := config.LoadAuthPolicy()
    sweepCfg := config.LoadSweepConfig()
    storageCfg := config.LoadStorageConfig(cfg.JWTSecret)
    mailCfg := config.LoadMailConfig()
    rlCfg := config.LoadRateLimitConfig()
    cacheCfg := config.LoadCacheConfig()

    if cfg.SentryDSN != "" {
        if err := sentry.Init(sentry.ClientOptions{
            Dsn:         cfg.SentryDSN,
            Environment: cfg.Env,
        }); err != nil {
            log.Printf("sentry init failed: %v", err)
        } else {
            defer sentry.Flush(2 * time.Second)
        }
    }

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable: per-instance attempt tracking, no rate limit or cache")
    }

    // Auth core: stores, registry, gate.
    accounts := repository.NewAccountRepo(db)
    sessions := repository.NewSessionRepo(db)
    revoked := repository.NewRevokedTokenRepo(db)

    var attempts auth.AttemptStore
    if rdb != nil {
        attempts = auth.NewRedisAttemptStore(rdb, "login_attempts", policy.AttemptWindow)
    } else {
        attempts = auth.NewMemoryAttemptStore(policy.AttemptWindow)
    }

    registry := auth.NewRegistry(sessions, revoked, policy.MaxSessions, policy.IdleTimeout, policy.AbsoluteTimeout)
    gate := auth.NewCredentialGate(accounts, attempts, registry, policy, cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)

    // Business repositories.
    properties := repository.NewPropertyRepo(db)
    units := repository.NewUnitRepo(db)
    tenants := repository.NewTenantRepo(db)
    leases := repository.NewLeaseRepo(db)
    vendors := repository.NewVendorRepo(db)
    workOrders := repository.NewWorkOrderRepo(db)
    invoices := repository.NewInvoiceRepo(db)
    cheques := repository.NewChequeRepo(db)
    schedules := repository.NewComplianceRepo(db)
    plans := repository.NewMaintenancePlanRepo(db)
    documents := repository.NewDocumentRepo(db)

    docStore := storage.NewLocal(storageCfg.Root, storageCfg.URLSecret)

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())

    sessionAuth := middleware.SessionAuth(cfg.JWTSecret, revoked, registry)
    limiter := middleware.NewTokenBucket(rlCfg, rdb)
    cache := middleware.NewRedisCache(cacheCfg, rdb)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(gate, registry, accounts, &cfg), sessionAuth, limiter)
    router.RegisterPortfolio(e, handler.NewPropertyHandler(properties, units), handler.NewTenancyHandler(tenants, leases, units), sessionAuth, cache)
    router.RegisterOperations(e, handler.NewWorkOrderHandler(vendors, workOrders, plans, properties), handler.NewComplianceHandler(schedules, properties), sessionAuth)
    router.RegisterBilling(e, handler.NewBillingHandler(invoices, cheques, leases), sessionAuth)
    router.RegisterDocuments(e, handler.NewDocumentHandler(documents, docStore, storageCfg), sessionAuth)

    // Background workers: notification consumer and maintenance sweeps.
    go func() {
        if err := queue.StartNotificationConsumer(mailer.New(mailCfg), mailCfg.NotifyTo); err != nil {
            log.Printf("notify-consumer stopped: %v", err)
        }
    }()

    sweeper := sweep.New(sweepCfg, registry, sessions, revoked, invoices, cheques, schedules, plans, workOrders)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    go sweeper.Run(ctx)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
