package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New собирает sugared-логгер: debug — development-конфиг в stdout, иначе production.
// Глобальный zap.L() тоже заменяется.
func New(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stdout"}
	} else {
		cfg = zap.NewProductionConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(l)
	return l.Sugar(), nil
}
