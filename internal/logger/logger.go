package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	appCtx "github.com/baechuer/chatcpe-service/internal/pkg/context"
)

// Logger is the process logger. Its zero value discards everything, so code
// may log before Init runs.
var Logger zerolog.Logger

func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter configures Logger from LOG_LEVEL (default info) and
// LOG_FORMAT ("json" or "console", default console).
func InitWithWriter(w io.Writer) {
	Logger = New(w, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	zlog.Logger = Logger
}

func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if strings.EqualFold(format, "json") {
		return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "chatcpe").Logger()
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}

// WithCtx returns Logger enriched with the request id and caller id found in
// ctx.
func WithCtx(ctx context.Context) *zerolog.Logger {
	c := Logger.With()
	if id := appCtx.GetRequestID(ctx); id != "" {
		c = c.Str("request_id", id)
	}
	if uid, ok := appCtx.GetUserID(ctx); ok {
		c = c.Int64("user_id", uid)
	}
	l := c.Logger()
	return &l
}
