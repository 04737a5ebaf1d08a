// Command buildGraph renders the bench JSON report as PNG charts: time per
// message for every queue variant, and the slowdown the invariant check
// causes at each concurrency level.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"os"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// benchmarkResult mirrors the fields of the bench report this tool reads.
type benchmarkResult struct {
	Implementation      string `json:"implementation"`
	InvariantChecks     bool   `json:"invariant_checks"`
	NumProducers        int    `json:"num_producers"`
	NumConsumers        int    `json:"num_consumers"`
	NumMessagesConsumed int64  `json:"num_messages_consumed"`
	ActualElapsed       string `json:"actual_elapsed"`
}

type fullReport struct {
	SessionID  string            `json:"session_id"`
	Benchmarks []benchmarkResult `json:"benchmarks"`
}

// samples maps implementation -> concurrency -> ns/msg values.
type samples map[string]map[int][]float64

// collect groups every usable result of every session.
func collect(sessions []fullReport) samples {
	out := make(samples)
	for _, s := range sessions {
		for _, b := range s.Benchmarks {
			dur, err := time.ParseDuration(b.ActualElapsed)
			if err != nil || b.NumMessagesConsumed == 0 {
				continue
			}
			if out[b.Implementation] == nil {
				out[b.Implementation] = make(map[int][]float64)
			}
			x := b.NumProducers + b.NumConsumers
			out[b.Implementation][x] = append(out[b.Implementation][x],
				float64(dur.Nanoseconds())/float64(b.NumMessagesConsumed))
		}
	}
	return out
}

func (s samples) implementations() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s samples) concurrencyLevels() []int {
	set := make(map[int]struct{})
	for _, byConc := range s {
		for c := range byConc {
			set[c] = struct{}{}
		}
	}
	levels := make([]int, 0, len(set))
	for c := range set {
		levels = append(levels, c)
	}
	sort.Ints(levels)
	return levels
}

func main() {
	jsonFile := flag.String("jsonfile", "test-results.json", "Path to JSON file containing test sessions")
	outputPrefix := flag.String("out", "benchmark_graph", "Output graph image filename prefix")
	checked := flag.String("checked", "CheckedQueue", "Implementation with invariant checks enabled")
	unchecked := flag.String("unchecked", "CheckedQueueNoCheck", "Implementation with invariant checks disabled")
	flag.Parse()

	data, err := os.ReadFile(*jsonFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading JSON file: %v\n", err)
		os.Exit(1)
	}
	var sessions []fullReport
	if err := json.Unmarshal(data, &sessions); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshalling JSON: %v\n", err)
		os.Exit(1)
	}

	s := collect(sessions)
	if len(s) == 0 {
		fmt.Fprintln(os.Stderr, "No usable benchmark results found.")
		os.Exit(1)
	}

	latency, err := latencyPlot(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building latency plot: %v\n", err)
		os.Exit(1)
	}
	save(latency, *outputPrefix+"_latency.png")

	overhead, err := overheadPlot(s, *checked, *unchecked)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Skipping overhead plot: %v\n", err)
		return
	}
	save(overhead, *outputPrefix+"_overhead.png")
}

func save(p *plot.Plot, filename string) {
	if err := p.Save(12*vg.Inch, 9*vg.Inch, filename); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving %s: %v\n", filename, err)
		return
	}
	fmt.Printf("Graph saved to %s\n", filename)
}

// darkTheme applies the dark background used by every chart.
func darkTheme(p *plot.Plot) {
	p.BackgroundColor = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	p.Title.TextStyle.Color = white
	p.X.Label.TextStyle.Color = white
	p.Y.Label.TextStyle.Color = white
	p.X.Color = white
	p.Y.Color = white
	p.X.Tick.Label.Color = white
	p.Y.Tick.Label.Color = white
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.TextStyle.Color = white
}

// latencyPlot draws median ns/msg per concurrency level with 5% low/high
// error bars, one line per implementation.
func latencyPlot(s samples) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Time per message (5%-avg-min / Median / 5%-avg-max) vs. Concurrency"
	p.X.Label.Text = "NumProducers + NumConsumers"
	p.Y.Label.Text = "Time per Msg"
	darkTheme(p)
	p.Add(plotter.NewGrid())

	levels := s.concurrencyLevels()
	p.X.Tick.Marker = newCategoryTicks(levels)
	p.Y.Tick.Marker = plot.TickerFunc(func(min, max float64) []plot.Tick {
		ticks := plot.DefaultTicks{}.Ticks(min, max)
		for i := range ticks {
			if ticks[i].Label != "" {
				ticks[i].Label = formatNs(ticks[i].Value)
			}
		}
		return ticks
	})

	index := make(map[int]float64, len(levels))
	for i, c := range levels {
		index[c] = float64(i)
	}

	names := s.implementations()
	shapes := []draw.GlyphDrawer{draw.CircleGlyph{}, draw.SquareGlyph{}, draw.TriangleGlyph{}}
	// Spread implementations around each category so error bars don't overlap.
	const spread = 0.4
	step := spread / float64(len(names))

	for i, name := range names {
		pts := buildStats(s[name])
		for j := range pts {
			pts[j].x = index[pts[j].concurrency] - spread/2 + step/2 + float64(i)*step
		}
		sort.Slice(pts, func(a, b int) bool { return pts[a].x < pts[b].x })
		sp := statsPoints(pts)

		line, err := plotter.NewLine(sp)
		if err != nil {
			return nil, fmt.Errorf("%s line: %w", name, err)
		}
		scatter, err := plotter.NewScatter(sp)
		if err != nil {
			return nil, fmt.Errorf("%s scatter: %w", name, err)
		}
		bars, err := plotter.NewYErrorBars(sp)
		if err != nil {
			return nil, fmt.Errorf("%s error bars: %w", name, err)
		}

		c := plotutil.SoftColors[i%len(plotutil.SoftColors)]
		line.Color = c
		scatter.Color = c
		scatter.Shape = shapes[i%len(shapes)]
		scatter.GlyphStyle.Radius = vg.Points(5)
		bars.Color = c

		p.Add(line, scatter, bars)
		p.Legend.Add(name, line, scatter)
	}
	return p, nil
}

// overheadPlot draws the ratio of checked to unchecked median ns/msg.
func overheadPlot(s samples, checked, unchecked string) (*plot.Plot, error) {
	on, off := s[checked], s[unchecked]
	if on == nil || off == nil {
		return nil, fmt.Errorf("need results for both %q and %q", checked, unchecked)
	}

	ratios := overheadRatios(on, off)
	if len(ratios) == 0 {
		return nil, fmt.Errorf("no concurrency level has results for both variants")
	}

	levels := make([]int, 0, len(ratios))
	for c := range ratios {
		levels = append(levels, c)
	}
	sort.Ints(levels)
	values := make(plotter.Values, len(levels))
	for i, c := range levels {
		values[i] = ratios[c]
	}

	p := plot.New()
	p.Title.Text = "Invariant check slowdown (checked / unchecked median time per msg)"
	p.X.Label.Text = "NumProducers + NumConsumers"
	p.Y.Label.Text = "Slowdown factor"
	darkTheme(p)

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Color = plotutil.SoftColors[0]
	p.Add(bars)
	p.X.Tick.Marker = newCategoryTicks(levels)
	return p, nil
}
