package chart

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sweeney/gpio-scope/internal/history"
)

// SVG canvas size.
const (
	svgWidth  = 16 * vg.Centimeter
	svgHeight = 8 * vg.Centimeter
)

var lineColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

// series adapts samples to plotter.XYer.
type series []history.Sample

func (s series) Len() int { return len(s) }

func (s series) XY(i int) (float64, float64) {
	return s[i].Elapsed, float64(s[i].State)
}

// WriteSVG renders f as a standalone SVG line chart using the frame's
// axes as the plot range.
func WriteSVG(w io.Writer, f Frame) error {
	p := plot.New()
	p.Title.Text = "GPIO " + f.Pin
	p.X.Label.Text = f.Axes.XLabel
	p.Y.Label.Text = f.Axes.YLabel
	p.Y.Tick.Marker = plot.ConstantTicks([]plot.Tick{
		{Value: 0, Label: "0"},
		{Value: 1, Label: "1"},
	})
	p.Add(plotter.NewGrid())

	if len(f.Samples) > 0 {
		line, err := plotter.NewLine(series(f.Samples))
		if err != nil {
			return fmt.Errorf("chart line: %w", err)
		}
		line.LineStyle.Color = lineColor
		line.LineStyle.Width = vg.Points(2)
		p.Add(line)
	}

	// Add widens the range to the data; the frame's axes win.
	p.X.Min, p.X.Max = f.Axes.XMin, f.Axes.XMax
	p.Y.Min, p.Y.Max = f.Axes.YMin, f.Axes.YMax

	wt, err := p.WriterTo(svgWidth, svgHeight, "svg")
	if err != nil {
		return fmt.Errorf("chart canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}
