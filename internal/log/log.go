// Package log holds the process-wide zap logger and thin forwarders to it.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log        *zap.SugaredLogger
	baseLogger *zap.Logger
)

// Init initializes the package-level logger. Debug selects console encoding
// at debug level; otherwise entries are JSON at info level.
func Init(debug bool) error {
	return initLogger(debug, "")
}

// InitWithFile initializes the package-level logger with an additional
// rotating JSON file output at path. Rotation keeps five 50 MB backups for
// thirty days.
func InitWithFile(debug bool, path string) error {
	return initLogger(debug, path)
}

func initLogger(debug bool, path string) error {
	level := zapcore.InfoLevel
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	if debug {
		level = zapcore.DebugLevel
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)}
	if path != "" {
		rotator := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		fileEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(rotator), level))
	}

	baseLogger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	log = baseLogger.Sugar()
	return nil
}

// GetZapLogger exposes the unsugared logger; GORM and the app wiring need it.
func GetZapLogger() *zap.Logger {
	if baseLogger == nil {
		initLogger(false, "")
	}
	return baseLogger
}

// GetSugaredLogger returns the shared sugared logger, initializing a default
// one if Init was never called.
func GetSugaredLogger() *zap.SugaredLogger {
	if log == nil {
		initLogger(false, "")
	}
	return log
}

// Sync flushes buffered entries; call it on the way out of main.
func Sync() {
	if log != nil {
		log.Sync()
	}
}

// Package-level forwarders to the active sugared logger.

func Debug(args ...any)                       { log.Debug(args...) }
func Debugf(template string, args ...any)     { log.Debugf(template, args...) }
func Debugw(msg string, keysAndValues ...any) { log.Debugw(msg, keysAndValues...) }

func Info(args ...any)                       { log.Info(args...) }
func Infof(template string, args ...any)     { log.Infof(template, args...) }
func Infow(msg string, keysAndValues ...any) { log.Infow(msg, keysAndValues...) }

func Warn(args ...any)                       { log.Warn(args...) }
func Warnf(template string, args ...any)     { log.Warnf(template, args...) }
func Warnw(msg string, keysAndValues ...any) { log.Warnw(msg, keysAndValues...) }

func Error(args ...any)                       { log.Error(args...) }
func Errorf(template string, args ...any)     { log.Errorf(template, args...) }
func Errorw(msg string, keysAndValues ...any) { log.Errorw(msg, keysAndValues...) }

func Fatal(args ...any)                   { log.Fatal(args...) }
func Fatalf(template string, args ...any) { log.Fatalf(template, args...) }
