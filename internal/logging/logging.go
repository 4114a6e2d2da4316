// Package logging configures the global zerolog logger and provides
// the HTTP access-log middleware.
package logging

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	colorRed     = 31
	colorGreen   = 32
	colorYellow  = 33
	colorMagenta = 35
	colorBold    = 1
)

func colorize(s any, c int, disabled bool) string {
	if disabled {
		return fmt.Sprintf("%s", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}

// lockedWriter serialises writes so concurrent log lines never interleave.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (lw lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// Options controls Setup.
type Options struct {
	Level   string
	NoColor bool
}

// Setup points the global logger at out with a human-readable console
// format. Only terminals get colour.
func Setup(out io.Writer, opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	noColor := opts.NoColor
	if f, ok := out.(*os.File); ok && !noColor && isatty.IsTerminal(f.Fd()) {
		out = colorable.NewColorable(f)
	} else {
		noColor = true
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(newConsoleWriter(out, noColor)).With().Timestamp().Logger()
	return nil
}

func newConsoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{
		Out:        lockedWriter{mu: &sync.Mutex{}, w: out},
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	cw.FormatLevel = func(i any) string {
		ll, _ := i.(string)
		var l string
		switch ll {
		case zerolog.LevelTraceValue:
			l = colorize("TRACE", colorMagenta, noColor)
		case zerolog.LevelDebugValue:
			l = colorize("DEBUG", colorYellow, noColor)
		case zerolog.LevelInfoValue:
			l = colorize("INFO ", colorGreen, noColor)
		case zerolog.LevelWarnValue:
			l = colorize("WARN ", colorRed, noColor)
		case zerolog.LevelErrorValue, zerolog.LevelFatalValue, zerolog.LevelPanicValue:
			l = colorize(colorize(strings.ToUpper(ll), colorRed, noColor), colorBold, noColor)
		case "":
			l = colorize("???  ", colorBold, noColor)
		default:
			l = colorize(ll, colorBold, noColor)
		}
		return fmt.Sprintf("| %s |", l)
	}
	return cw
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// Middleware logs one access line per request and turns handler panics
// into 500 responses.
func Middleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				if rec := recover(); rec != nil {
					logger.Error().
						Interface("recover_info", rec).
						Bytes("debug_stack", debug.Stack()).
						Msg("HTTP handler panic")
					http.Error(ww, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}

				logger.Debug().
					Str("type", "access").
					Str("remote_ip", r.RemoteAddr).
					Str("method", r.Method).
					Str("url", r.URL.Path).
					Int("status", ww.Status()).
					Float64("latency_ms", float64(time.Since(start).Microseconds())/1000.0).
					Int("bytes_out", ww.BytesWritten()).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
