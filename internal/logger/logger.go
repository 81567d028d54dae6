package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var level = zap.NewAtomicLevelAt(zap.InfoLevel)

// Init builds the process-wide logger and installs it as zap.L().
func Init(environment, lvl string) error {
	if err := SetLevel(lvl); err != nil {
		return err
	}

	var conf zap.Config
	if environment == "production" {
		conf = zap.NewProductionConfig()
	} else {
		conf = zap.NewDevelopmentConfig()
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	conf.Level = level

	l, err := conf.Build()
	if err != nil {
		return fmt.Errorf("conf.Build -> %w", err)
	}
	zap.ReplaceGlobals(l)

	return nil
}

// SetLevel changes the level of the running logger. An empty string keeps the
// current level.
func SetLevel(lvl string) error {
	if lvl == "" {
		return nil
	}

	parsed, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return fmt.Errorf("zapcore.ParseLevel -> %w", err)
	}
	level.SetLevel(parsed)

	return nil
}

func Level() zapcore.Level {
	return level.Level()
}
