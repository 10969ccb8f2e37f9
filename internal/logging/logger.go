package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger that writes a console encoding to stderr and,
// when filePath is non-empty, JSON to that file as well. The PID is included
// as an initial field.
func New(filePath string) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	stderrCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		zapcore.InfoLevel,
	)

	core := stderrCore
	if filePath != "" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, err
		}
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(file),
			zapcore.InfoLevel,
		)
		core = zapcore.NewTee(fileCore, stderrCore)
	}

	return zap.New(core, zap.Fields(zap.Int("pid", os.Getpid()))), nil
}
