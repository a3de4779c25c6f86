package chart

import (
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/izzyreal/reportviewer/internal/protocol"
)

const (
	renderWidth  = 960
	renderHeight = 360
)

// RenderPNG draws one line per backend for the chosen metric. Builds share a
// single x axis so backends that skipped a build leave a gap in position.
func RenderPNG(w io.Writer, summary *protocol.Summary, metric Metric, title string) error {
	keys := summary.OrderedBuildKeys(false)
	if len(keys) == 0 {
		return ErrNoData
	}
	position := make(map[string]float64, len(keys))
	// go-chart takes the x range from the tick extent, so unlabeled ticks half a
	// step outside the builds keep a single build from collapsing the axis.
	ticks := make([]gochart.Tick, 0, len(keys)+2)
	ticks = append(ticks, gochart.Tick{Value: -0.5})
	for i, key := range keys {
		position[key] = float64(i)
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: BuildLabel(summary.Builds[key])})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(len(keys)) - 0.5})

	maxY := 1.0
	var lines []gochart.Series
	for _, s := range Prepare(summary) {
		values := s.Values(metric)
		xs := make([]float64, len(s.BuildKeys))
		for i, key := range s.BuildKeys {
			xs[i] = position[key]
			if values[i] > maxY {
				maxY = values[i]
			}
		}
		lines = append(lines, gochart.ContinuousSeries{
			Name:    s.Backend,
			Style:   gochart.Style{StrokeWidth: 2, DotWidth: 3},
			XValues: xs,
			YValues: values,
		})
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  renderWidth,
		Height: renderHeight,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Ticks: ticks,
		},
		YAxis: gochart.YAxis{
			Name:  string(metric),
			Range: &gochart.ContinuousRange{Min: 0, Max: maxY * 1.1},
		},
		Series: lines,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
