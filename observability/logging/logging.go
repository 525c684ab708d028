package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// renameAttr maps slog's default keys onto the field names the vault's log
// pipeline indexes on.
func renameAttr(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		return slog.Attr{Key: "timestamp", Value: attr.Value}
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		return slog.Attr{Key: "message", Value: attr.Value}
	}
	return attr
}

// resolveLevel picks the log level: SVT_LOG_LEVEL wins when set, local and
// dev environments default to debug, everything else to info.
func resolveLevel(env string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SVT_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	switch strings.ToLower(env) {
	case "dev", "local":
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// output returns the log sink: stdout, plus a size-rotated file when
// SVT_LOG_FILE names one. Rotation keeps a week of compressed backups so a
// long-running vault daemon does not fill its disk with operation events.
func output() io.Writer {
	path := strings.TrimSpace(os.Getenv("SVT_LOG_FILE"))
	if path == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64, // megabytes
		MaxBackups: 7,
		MaxAge:     28, // days
		Compress:   true,
	})
}

// Setup wires structured JSON logging for a stakevault process and returns the
// base logger. Every line carries the service name and, when provided, the
// environment. The standard library logger is bridged through the same
// handler so dependencies logging via log continue to produce JSON.
func Setup(service, env string) *slog.Logger {
	service = strings.TrimSpace(service)
	env = strings.TrimSpace(env)

	handler := slog.NewJSONHandler(output(), &slog.HandlerOptions{
		Level:       resolveLevel(env),
		ReplaceAttr: renameAttr,
	})

	attrs := []slog.Attr{slog.String("service", service)}
	if env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	tagged := handler.WithAttrs(attrs)

	base := slog.New(tagged)
	slog.SetDefault(base)

	bridge := slog.NewLogLogger(tagged, slog.LevelInfo)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}
