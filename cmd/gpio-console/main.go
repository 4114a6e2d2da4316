// Command gpio-console asks which GPIO line to watch and prints its
// state every sampling interval until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sweeney/gpio-scope/internal/config"
	"github.com/sweeney/gpio-scope/internal/console"
	"github.com/sweeney/gpio-scope/internal/gpio"
	"github.com/sweeney/gpio-scope/internal/logging"
	"github.com/sweeney/gpio-scope/internal/session"
)

var defaultPins = []string{"539", "540"}

func main() {
	logging.Setup(os.Stderr, logging.Options{})

	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("fatal")
	}
}

// run keeps stdout for the prompt and readings; logs go to stderr.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := config.Defaults(defaultPins...)
	fs := pflag.NewFlagSet("gpio-console", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.AddFlags(fs)
	printState := fs.Bool("print-state", false, "Print the default pin's state and exit")

	if err := config.Load(fs, args, &cfg); err != nil {
		return err
	}
	if err := logging.Setup(stderr, logging.Options{Level: cfg.LogLevel}); err != nil {
		return err
	}

	pins, err := session.NewPinSet(cfg.Pins...)
	if err != nil {
		return err
	}

	reader, err := gpio.NewReader(cfg.ReaderOptions())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	if *printState {
		v, err := reader.Read(gpio.Pin(cfg.DefaultPin))
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Fprintf(stdout, "GPIO %s state: %d\n", cfg.DefaultPin, v)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Debug().
		Strs("pins", cfg.Pins).
		Dur("interval", cfg.Interval).
		Str("backend", cfg.Backend).
		Msg("started")

	return console.Run(ctx, stdin, stdout, console.Options{
		Pins:   pins,
		Reader: reader,
		Tick:   ticker.C,
	})
}
