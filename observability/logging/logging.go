package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup installs a JSON logger on stdout as the process default and returns
// it. Every line carries the service name, plus the environment when one is
// configured.
func Setup(service, env string) *slog.Logger {
	logger := slog.New(newHandler(os.Stdout)).With("service", strings.TrimSpace(service))
	if env = strings.TrimSpace(env); env != "" {
		logger = logger.With("env", env)
	}
	slog.SetDefault(logger)
	return logger
}

// newHandler renames slog's default keys to the timestamp/severity/message
// form the log pipeline ingests.
func newHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "timestamp"
			case slog.LevelKey:
				attr = slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				attr.Key = "message"
			}
			return attr
		},
	})
}
