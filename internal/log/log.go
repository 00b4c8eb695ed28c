// Package log, общий zap-логгер приложения.
package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

var log *zap.SugaredLogger

// Init инициализирует логгер пакета
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}

	log = zapLogger.Sugar()
	return nil
}

// logger возвращает логгер; до Init пишет через no-op, чтобы тесты не шумели
func logger() *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}

// GetSugaredLogger возвращает текущий логгер пакета
func GetSugaredLogger() *zap.SugaredLogger {
	return logger()
}

// Sync сбрасывает буферизованные записи
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func Debugf(template string, args ...interface{}) {
	logger().Debugf(template, args...)
}

func Debugw(msg string, keysAndValues ...interface{}) {
	logger().Debugw(msg, keysAndValues...)
}

func Info(args ...interface{}) {
	logger().Info(args...)
}

func Infof(template string, args ...interface{}) {
	logger().Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	logger().Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...interface{}) {
	logger().Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	logger().Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	logger().Errorw(msg, keysAndValues...)
}

// Fatal до Init пишет в stderr, иначе сообщение ушло бы в no-op логгер
func Fatal(args ...interface{}) {
	if log == nil {
		fmt.Fprintln(os.Stderr, args...)
		os.Exit(1)
	}
	log.Fatal(args...)
	os.Exit(1)
}

func Fatalf(template string, args ...interface{}) {
	if log == nil {
		fmt.Fprintf(os.Stderr, template+"\n", args...)
		os.Exit(1)
	}
	log.Fatalf(template, args...)
	os.Exit(1)
}
