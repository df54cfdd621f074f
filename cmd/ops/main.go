// Ops CLI: schema migration, account funding and token minting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/builders-garden/squabble-engine/internal/config"
	"github.com/builders-garden/squabble-engine/internal/modules/access"
	escrowDB "github.com/builders-garden/squabble-engine/internal/modules/escrow/repository/db"
	"github.com/builders-garden/squabble-engine/internal/modules/wallet"
	"github.com/builders-garden/squabble-engine/pkg/logger"
)

func main() {
	migrate := flag.Bool("migrate", false, "create or update the database schema")
	sqlitePath := flag.String("sqlite", "", "use a sqlite database file instead of postgres")
	mint := flag.Int64("mint", 0, "mint a bearer token for the given account id")
	fund := flag.String("fund", "", "fund an account, format account=amount")
	flag.Parse()

	cfg := config.LoadSquabbleConfig()
	logger.Init(logger.Config{Level: "info", Format: "console"})
	defer logger.Flush()

	if *mint > 0 {
		codec := access.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Duration)
		token, expiresAt, err := codec.Mint(*mint)
		if err != nil {
			logger.FatalGlobal().Err(err).Msg("failed to mint token")
		}
		fmt.Printf("account: %d\nexpires: %s\ntoken:   %s\n", *mint, expiresAt, token)
		return
	}

	if !*migrate && *fund == "" {
		flag.Usage()
		os.Exit(2)
	}

	db := openDB(cfg, *sqlitePath)

	if *migrate {
		ctx := context.Background()
		if err := wallet.NewDBService(db).Migrate(ctx); err != nil {
			logger.FatalGlobal().Err(err).Msg("wallet migration failed")
		}
		if err := escrowDB.NewSettlementRepository(db).Migrate(ctx); err != nil {
			logger.FatalGlobal().Err(err).Msg("settlement migration failed")
		}
		logger.InfoGlobal().Msg("schema migrated")
	}

	if *fund != "" {
		account, amount, err := parseFund(*fund)
		if err != nil {
			logger.FatalGlobal().Err(err).Msg("invalid -fund argument")
		}
		acc := wallet.Account{AccountID: account}
		if err := db.FirstOrCreate(&acc, "account_id = ?", account).Error; err != nil {
			logger.FatalGlobal().Err(err).Msg("failed to load account")
		}
		if err := db.Model(&wallet.Account{}).
			Where("account_id = ?", account).
			Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			logger.FatalGlobal().Err(err).Msg("failed to fund account")
		}
		logger.InfoGlobal().Int64("account", account).Int64("amount", amount).Msg("account funded")
	}
}

func openDB(cfg *config.SquabbleConfig, sqlitePath string) *gorm.DB {
	var dialector gorm.Dialector
	if sqlitePath != "" {
		dialector = sqlite.Open(sqlitePath)
	} else {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.NewGormLogger()})
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("failed to connect to database")
	}
	return db
}

func parseFund(raw string) (int64, int64, error) {
	parts := strings.SplitN(raw, "=", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected account=amount, got %q", raw)
	}
	account, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || account <= 0 {
		return 0, 0, fmt.Errorf("invalid account %q", parts[0])
	}
	amount, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || amount <= 0 {
		return 0, 0, fmt.Errorf("invalid amount %q", parts[1])
	}
	return account, amount, nil
}
