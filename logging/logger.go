package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. The console core is human readable at Info
// level. When filePrefix is non-empty a JSON core at Debug level is teed into
// logs/<prefix>_<timestamp>.log.
func New(env, filePrefix string) (*zap.Logger, error) {
	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	if env == "production" {
		consoleEncoderConfig = zap.NewProductionEncoderConfig()
		consoleEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var consoleEncoder zapcore.Encoder
	if env == "production" {
		consoleEncoder = zapcore.NewJSONEncoder(consoleEncoderConfig)
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(consoleEncoderConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
	}

	if filePrefix != "" {
		logsDir := "logs"
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}

		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logFileName := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", filePrefix, timestamp))
		logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		fileEncoderConfig := zap.NewProductionEncoderConfig()
		fileEncoderConfig.TimeKey = "timestamp"
		fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(logFile), zapcore.DebugLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger.With(zap.String("env", env)), nil
}
