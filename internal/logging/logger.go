package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger writes JSON lines to a rotated file under logDir.
func NewLogger(logDir string) (*zap.Logger, error) {
	core, err := fileCore(logDir, zap.InfoLevel)
	if err != nil {
		return nil, err
	}
	return zap.New(core), nil
}

// NewCLILogger is NewLogger teed to a human-readable stderr stream. The
// console side honors level; the file always records info and above.
func NewCLILogger(logDir string, level zapcore.Level) (*zap.Logger, error) {
	file, err := fileCore(logDir, zap.InfoLevel)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	console := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), level)
	return zap.New(zapcore.NewTee(file, console)), nil
}

func fileCore(logDir string, level zapcore.Level) (zapcore.Core, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "pagecheck.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	return zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level), nil
}
