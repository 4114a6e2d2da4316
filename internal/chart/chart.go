// Package chart turns session views into plot frames: the sample
// series plus axis bounds that follow the live-plot autoscale rule.
package chart

import (
	"math"

	"github.com/sweeney/gpio-scope/internal/history"
	"github.com/sweeney/gpio-scope/internal/session"
)

// Axis labels and fixed bounds.
const (
	XLabel = "Time (s)"
	YLabel = "Button State"

	MinWindow = 10.0 // x axis is never narrower than this many seconds
	Headroom  = 1.0  // space kept to the right of the newest sample

	YMin = -0.1
	YMax = 1.1
)

// Axes holds the visible plot range.
type Axes struct {
	XMin   float64 `json:"x_min"`
	XMax   float64 `json:"x_max"`
	YMin   float64 `json:"y_min"`
	YMax   float64 `json:"y_max"`
	XLabel string  `json:"x_label"`
	YLabel string  `json:"y_label"`
}

// Frame is everything needed to draw the chart once.
type Frame struct {
	Pin      string           `json:"pin"`
	Sampling bool             `json:"sampling"`
	Reason   string           `json:"reason"`
	Axes     Axes             `json:"axes"`
	Samples  []history.Sample `json:"samples"`
}

// XLimit returns the upper x bound for a series whose newest sample is
// at elapsed seconds.
func XLimit(elapsed float64) float64 {
	return math.Max(MinWindow, elapsed+Headroom)
}

// AxesFor returns the axes for a series ending at elapsed seconds.
func AxesFor(elapsed float64) Axes {
	return Axes{
		XMin:   0,
		XMax:   XLimit(elapsed),
		YMin:   YMin,
		YMax:   YMax,
		XLabel: XLabel,
		YLabel: YLabel,
	}
}

// Build makes a frame from a session view. An empty view gets the
// initial 0..10 window.
func Build(v session.View) Frame {
	samples := v.Samples
	if samples == nil {
		samples = []history.Sample{}
	}
	return Frame{
		Pin:      string(v.Pin),
		Sampling: v.State == session.Sampling,
		Reason:   string(v.Reason),
		Axes:     AxesFor(v.Elapsed()),
		Samples:  samples,
	}
}
