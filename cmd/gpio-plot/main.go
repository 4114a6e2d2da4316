// Command gpio-plot samples a GPIO line and serves a live chart of it
// over HTTP, with buttons to switch between lines and to start and stop
// plotting. With --bare it charts the default line straight away.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sweeney/gpio-scope/internal/config"
	"github.com/sweeney/gpio-scope/internal/logging"
	"github.com/sweeney/gpio-scope/internal/mqtt"
)

var defaultPins = []string{"538", "539"}

func main() {
	logging.Setup(os.Stderr, logging.Options{})

	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("fatal")
	}
}

// signalError is the cancellation cause when a signal stops the process.
type signalError struct {
	sig os.Signal
}

func (e signalError) Error() string {
	return "received " + e.sig.String()
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	cfg := config.Defaults(defaultPins...)
	fs := pflag.NewFlagSet("gpio-plot", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.AddFlags(fs)
	cfg.AddPlotFlags(fs)

	if err := config.Load(fs, args, &cfg); err != nil {
		return err
	}
	if err := logging.Setup(stderr, logging.Options{Level: cfg.LogLevel}); err != nil {
		return err
	}

	var pub mqtt.Publisher
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.Broker, clientID())
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		pub = p
	}

	a, err := newApp(cfg, time.Now, pub)
	if err != nil {
		return err
	}
	defer a.close()

	ln, err := net.Listen("tcp", cfg.HTTP)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTP, err)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case s := <-sigCh:
			cancel(signalError{sig: s})
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info().
		Str("http", ln.Addr().String()).
		Strs("pins", cfg.Pins).
		Dur("interval", cfg.Interval).
		Str("backend", cfg.Backend).
		Bool("bare", cfg.Bare).
		Msg("started")

	return a.serve(ctx, ln, ticker.C)
}

// shutdownReason names what ended ctx for the SHUTDOWN event.
func shutdownReason(ctx context.Context) string {
	var se signalError
	if errors.As(context.Cause(ctx), &se) {
		switch se.sig {
		case syscall.SIGINT:
			return "SIGINT"
		case syscall.SIGTERM:
			return "SIGTERM"
		}
	}
	return "UNKNOWN"
}
