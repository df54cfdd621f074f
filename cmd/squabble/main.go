package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/builders-garden/squabble-engine/internal/config"
	"github.com/builders-garden/squabble-engine/internal/modules/access"
	escrowHttp "github.com/builders-garden/squabble-engine/internal/modules/escrow/adapter/http"
	"github.com/builders-garden/squabble-engine/internal/modules/escrow/domain"
	escrowDB "github.com/builders-garden/squabble-engine/internal/modules/escrow/repository/db"
	escrowMemory "github.com/builders-garden/squabble-engine/internal/modules/escrow/repository/memory"
	escrowRedis "github.com/builders-garden/squabble-engine/internal/modules/escrow/repository/redis"
	"github.com/builders-garden/squabble-engine/internal/modules/escrow/usecase"
	"github.com/builders-garden/squabble-engine/internal/modules/notify"
	"github.com/builders-garden/squabble-engine/internal/modules/wallet"
	"github.com/builders-garden/squabble-engine/pkg/logger"
	"github.com/builders-garden/squabble-engine/pkg/service"
)

func main() {
	background := flag.Bool("d", false, "run in background mode (disable console logging)")
	useDB := flag.Bool("db", false, "use the database-backed wallet and settlement history")
	flag.Parse()

	cfg := config.LoadSquabbleConfig()

	logger.InitWithFile("logs/squabble/engine.log", cfg.Server.LogLevel, "json", !*background)
	defer logger.Flush()

	logger.InfoGlobal().Str("service", cfg.Server.Name).Msg("starting escrow engine")

	// Infrastructure
	var db *gorm.DB
	if *useDB {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name)

		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.NewGormLogger()})
		if err != nil {
			logger.FatalGlobal().Err(err).Msg("failed to connect to database")
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.FatalGlobal().Err(err).Msg("failed to get database instance")
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)
		defer sqlDB.Close()
		logger.InfoGlobal().Msg("database connected")
	}

	var rdb *redis.Client
	if cfg.RepoType == "redis" {
		rdb = redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		})
		defer rdb.Close()
		logger.InfoGlobal().Msg("redis connected")
	}

	// Game registry
	var games domain.GameRepository
	if rdb != nil {
		games = escrowRedis.NewGameRepository(rdb)
	} else {
		games = escrowMemory.NewGameRepository()
	}

	// Ledger adapter
	var walletSvc service.WalletService
	if db != nil {
		dbWallet := wallet.NewDBService(db)
		if err := dbWallet.Migrate(context.Background()); err != nil {
			logger.FatalGlobal().Err(err).Msg("failed to migrate wallet tables")
		}
		walletSvc = dbWallet
		logger.InfoGlobal().Msg("wallet module initialized (database)")
	} else {
		walletSvc = wallet.NewMockService()
		logger.InfoGlobal().Msg("wallet module initialized (mock)")
	}

	// Settlement history
	var settlements domain.SettlementRepository
	if db != nil {
		repo := escrowDB.NewSettlementRepository(db)
		if err := repo.Migrate(context.Background()); err != nil {
			logger.FatalGlobal().Err(err).Msg("failed to migrate settlement tables")
		}
		settlements = repo
	}

	// Notification surface
	hub := notify.NewWSHub()
	var publisher domain.EventPublisher = hub
	if rdb != nil {
		publisher = notify.NewMultiPublisher(hub, notify.NewRedisPublisher(rdb))
	}

	// Engine
	guard := access.NewGuard(cfg.Admins)
	codec := access.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Duration)
	uc := usecase.NewEscrowUseCase(games, walletSvc, guard, publisher, settlements, cfg.Rules)
	logger.InfoGlobal().
		Int64("max_stake", cfg.Rules.MaxStake).
		Int("max_players", cfg.Rules.MaxPlayers).
		Int("min_players", cfg.Rules.MinPlayers).
		Msg("escrow engine initialized")

	// HTTP surface
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware())

	handler := escrowHttp.NewHandler(uc, hub)
	handler.RegisterRoutes(router.Group("/api"), escrowHttp.AuthRequired(codec))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.InfoGlobal().Str("port", cfg.Server.Port).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalGlobal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.InfoGlobal().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorGlobal().Err(err).Msg("forced shutdown")
	}
}
