// Package console is the line-oriented front end: it asks for a pin on
// stdin and prints the pin state once per tick.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sweeney/gpio-scope/internal/gpio"
	"github.com/sweeney/gpio-scope/internal/session"
)

// TerminationMessage is printed when the user interrupts sampling.
const TerminationMessage = "Terminating the script."

// ErrNoSelection is returned when input ends before a valid pin is chosen.
var ErrNoSelection = errors.New("no pin selected")

// Prompt asks for a pin until the answer is one of pins.
func Prompt(ctx context.Context, in io.Reader, out io.Writer, pins session.PinSet) (gpio.Pin, error) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprintf(out, "Select GPIO pin (%s): ", pins.Choices())

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return "", ErrNoSelection
			}
			pin, err := pins.Parse(line)
			if err == nil {
				return pin, nil
			}
			fmt.Fprintf(out, "Invalid selection. Please choose %s.\n", pins.Alternatives())
		}
	}
}

// Printer is a session.Sink that prints one line per sample.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Refresh prints the newest sample on every tick.
func (p *Printer) Refresh(v session.View) error {
	if v.Reason != session.ReasonTick {
		return nil
	}
	s, ok := v.Latest()
	if !ok {
		return nil
	}
	_, err := fmt.Fprintf(p.out, "GPIO %s state: %d\n", v.Pin, s.State)
	return err
}

// Options configures Run.
type Options struct {
	Pins   session.PinSet
	Reader gpio.Reader
	Tick   <-chan time.Time
	Now    func() time.Time
	Sinks  []session.Sink // extra sinks next to the printer
}

// Run prompts for a pin and prints its state on every tick until ctx is
// cancelled, which it reports with TerminationMessage and a nil error.
// A failed read ends Run with that error.
func Run(ctx context.Context, in io.Reader, out io.Writer, opts Options) error {
	pin, err := Prompt(ctx, in, out, opts.Pins)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(out)
			fmt.Fprintln(out, TerminationMessage)
			return nil
		}
		return err
	}

	s, err := session.New(opts.Pins, pin, opts.Reader, gpio.NopNotifier{})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Reading from GPIO %s...\n", pin)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s.Start(now())

	sinks := append([]session.Sink{NewPrinter(out)}, opts.Sinks...)
	if err := session.NewLoop(s, now, sinks...).Run(ctx, opts.Tick); err != nil {
		return err
	}

	fmt.Fprintln(out, TerminationMessage)
	return nil
}
