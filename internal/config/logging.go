package config

import (
	"log/slog"

	"git.home.luguber.info/inful/screenstore/internal/foundation/normalization"
	"git.home.luguber.info/inful/screenstore/internal/retry"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

// NormalizeLogLevel folds raw to a known level, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// SlogLevel maps l onto slog.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

// NormalizeLogFormat folds raw to a known format, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}

// DeliveryMode selects the executor stores deliver observer callbacks on.
type DeliveryMode string

const (
	// DeliveryInline runs observers on the store goroutine.
	DeliveryInline DeliveryMode = "inline"
	// DeliverySerial runs observers on a dedicated goroutine per store.
	DeliverySerial DeliveryMode = "serial"
)

var deliveryNormalizer = normalization.NewNormalizer(map[string]DeliveryMode{
	"inline": DeliveryInline,
	"serial": DeliverySerial,
}, DeliveryInline)

var retryModeNormalizer = normalization.NewNormalizer(map[string]retry.Mode{
	"fixed":       retry.ModeFixed,
	"linear":      retry.ModeLinear,
	"exponential": retry.ModeExponential,
}, retry.ModeExponential)
