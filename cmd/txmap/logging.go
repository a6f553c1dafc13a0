package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a logger that writes errors (or everything from info up when
// verbose) to stderr and, if logPath is set, everything from debug up to logPath.
// The returned closer flushes and closes the log file.
func newLogger(stderr io.Writer, logPath string, verbose bool) (*zap.Logger, func(), error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	consoleLevel := zapcore.ErrorLevel
	if verbose {
		consoleLevel = zapcore.InfoLevel
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(zapcore.AddSync(stderr)), consoleLevel),
	}

	var logFile *os.File
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	closer := func() {
		_ = logger.Sync()
		if logFile != nil {
			logFile.Close()
		}
	}
	return logger, closer, nil
}
