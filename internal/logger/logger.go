package logger

import (
	"go.uber.org/zap"
)

// New builds the process-wide sugared logger. Production gets JSON output,
// everything else the human-readable development encoder.
func New(env string) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if env == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
