// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Run logger setup: console plus a timestamped file per run

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the run logger. Output goes to the console and to a
// timestamped file under logDir. Returns the logger and the log file path.
func New(logDir, level string) (*zap.SugaredLogger, string, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	timestamp := time.Now().Format("20060102_150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("batchgitops_%s.log", timestamp))

	file, err := os.Create(logPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create log file %s: %w", logPath, err)
	}

	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), atomicLevel),
		zapcore.NewCore(encoder, zapcore.AddSync(file), atomicLevel),
	)

	return zap.New(core).Sugar(), logPath, nil
}

// NewNop returns a logger that discards everything (for tests)
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
