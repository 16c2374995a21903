package api

import (
	"context"

	"go.uber.org/zap"

	"jds/internal/catalog"
	"jds/internal/pg"
	"jds/internal/schema"
)

// BatchDeleter — пакетное удаление экземпляров по uuid (pg.Deleter).
type BatchDeleter interface {
	Delete(ctx context.Context, ids ...string) error
}

// Server — зависимости хендлеров. DB и Deleter пустые, если сервер запущен без БД:
// тогда работают только meta-маршруты.
type Server struct {
	Catalog *catalog.Catalog
	Dialect schema.Dialect
	DB      pg.Execer
	Deleter BatchDeleter
	log     *zap.SugaredLogger
}

func NewServer(cat *catalog.Catalog, d schema.Dialect, db pg.Execer, del BatchDeleter, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Server{Catalog: cat, Dialect: d, DB: db, Deleter: del, log: log}
}

func (s *Server) hasDB() bool { return s.DB != nil && s.Deleter != nil }
