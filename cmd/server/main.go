package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"jds/internal/api"
	"jds/internal/catalog"
	"jds/internal/config"
	"jds/internal/dsl"
	"jds/internal/logger"
	"jds/internal/pg"
	"jds/internal/reference"
)

func main() {
	cfg, err := config.Load("config.json", os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	sugar, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = sugar.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, sugar); err != nil {
		sugar.Fatalw("server stopped", "error", err)
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) error {
	// 1. DSL-сущности и enum-справочники
	entities, err := dsl.LoadAllEntities(cfg.DSLDir)
	if err != nil {
		return err
	}
	enumCatalog, err := reference.LoadEnumCatalog(cfg.EnumsDir)
	if err != nil {
		return err
	}
	log.Infow("definitions loaded", "entities", len(entities), "enumCatalogs", len(enumCatalog))

	// 2. Реестры полей/enum'ов и словарь
	cat := catalog.New(log)
	if err := cat.Load(entities, enumCatalog); err != nil {
		return err
	}

	// 3. БД необязательна: без неё работают только meta-маршруты
	var (
		db      *sql.DB
		execer  pg.Execer
		deleter api.BatchDeleter
	)
	dialect := pg.Dialect{}
	if cfg.DBURL != "" {
		if db, err = pg.Open(ctx, cfg.DBURL); err != nil {
			return err
		}
		defer db.Close()

		if cfg.AutoMigrate {
			ddl, err := cat.DDL(dialect)
			if err != nil {
				return err
			}
			if err := pg.ApplyDDL(ctx, db, ddl, log); err != nil {
				return err
			}
			log.Infow("schema applied", "statements", len(ddl))
		}
		execer = db
		deleter = pg.NewDeleter(db, dialect, log)
	} else {
		log.Warn("no database configured, write routes are disabled")
	}

	// 4. REST API
	srv := api.NewServer(cat, dialect, execer, deleter, log)
	errc := make(chan error, 1)
	go func() { errc <- api.RunServer(":"+cfg.Port, srv) }()
	log.Infow("listening", "port", cfg.Port)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return err
	}
}
