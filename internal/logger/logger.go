package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger instance. It is a no-op logger until Initialize runs,
// so packages and tests can log without setup.
var Log = zap.NewNop()

// SugaredLog is a sugared logger for printf-style logging in CLI commands
var SugaredLog = Log.Sugar()

// Initialize replaces Log with a logger that writes readable lines to stdout
// and rotated JSON to logFile (yatube.log when empty). Unknown levels mean info.
func Initialize(logLevel string, logFile string) error {
	if logFile == "" {
		logFile = "yatube.log"
	}
	level := parseLogLevel(logLevel)

	rotated := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	fileCfg := zap.NewProductionEncoderConfig()
	fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCfg.TimeKey = "ts"

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rotated), level),
	)

	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	SugaredLog = Log.Sugar()

	Log.Debug("Logger initialized", zap.Stringer("level", level), zap.String("file", logFile))

	return nil
}

// Close flushes the logger before shutdown
func Close() error {
	if Log != nil {
		return Log.Sync()
	}
	return nil
}

// parseLogLevel maps a level name to a zap level, falling back to info
func parseLogLevel(levelStr string) zapcore.Level {
	name := strings.ToLower(strings.TrimSpace(levelStr))
	if name == "warning" {
		name = "warn"
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil || level > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return level
}

// withErr prepends err to fields when it is set
func withErr(err error, fields []zap.Field) []zap.Field {
	if err == nil {
		return fields
	}
	return append([]zap.Field{zap.Error(err)}, fields...)
}

// WarnWithFields logs a warning, attaching err when it is non-nil
func WarnWithFields(msg string, err error, fields ...zap.Field) {
	Log.Warn(msg, withErr(err, fields)...)
}

// ErrorWithFields logs an error, attaching err when it is non-nil
func ErrorWithFields(msg string, err error, fields ...zap.Field) {
	Log.Error(msg, withErr(err, fields)...)
}

// FatalWithFields logs and exits
func FatalWithFields(msg string, err error, fields ...zap.Field) {
	Log.Fatal(msg, withErr(err, fields)...)
}

// Field helpers shared by handlers and middleware

func WithRequestID(requestID string) zap.Field {
	return zap.String("request_id", requestID)
}

func WithUserID(userID uint) zap.Field {
	return zap.Uint("user_id", userID)
}

func WithUsername(username string) zap.Field {
	return zap.String("username", username)
}

func WithPostID(postID uint) zap.Field {
	return zap.Uint("post_id", postID)
}

func WithGroup(slug string) zap.Field {
	return zap.String("group", slug)
}

func WithIP(ip string) zap.Field {
	return zap.String("ip", ip)
}

func WithStatus(status int) zap.Field {
	return zap.Int("status", status)
}
