package viz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fluidsim/internal/analysis"
	"github.com/san-kum/fluidsim/internal/sim"
)

// fields are the TickStats columns that can be plotted.
var fields = map[string]func(sim.TickStats) float64{
	"active":         func(s sim.TickStats) float64 { return float64(s.Active) },
	"kinetic_energy": func(s sim.TickStats) float64 { return s.KineticEnergy },
	"max_speed":      func(s sim.TickStats) float64 { return s.MaxSpeed },
	"mean_density":   func(s sim.TickStats) float64 { return s.MeanDensity },
	"max_density":    func(s sim.TickStats) float64 { return s.MaxDensity },
	"step_us":        func(s sim.TickStats) float64 { return float64(s.StepMicros) },
}

// Fields lists the plottable telemetry columns in sorted order.
func Fields() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Series extracts one telemetry column.
func Series(stats []sim.TickStats, field string) ([]float64, error) {
	get, ok := fields[field]
	if !ok {
		return nil, fmt.Errorf("viz: unknown field %q (have %s)", field, strings.Join(Fields(), ", "))
	}
	out := make([]float64, len(stats))
	for i, s := range stats {
		out[i] = get(s)
	}
	return out, nil
}

// Plot draws one telemetry column as an ASCII line chart.
func Plot(stats []sim.TickStats, field string, width, height int) (string, error) {
	data, err := Series(stats, field)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("viz: no telemetry to plot")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s over %d ticks", field, len(data))),
	), nil
}

// PlotSpectrum draws the low quarter of the power spectrum of one column
// sampled every dt, widened to reach the dominant bin, and returns the
// dominant frequency.
func PlotSpectrum(stats []sim.TickStats, field string, dt float64, width, height int) (string, float64, error) {
	data, err := Series(stats, field)
	if err != nil {
		return "", 0, err
	}
	spec, err := analysis.PowerSpectrum(data, dt)
	if err != nil {
		return "", 0, err
	}
	freq, _ := spec.Dominant()

	n := max(len(spec.Power)/4, 2)
	for n < len(spec.Power) && spec.Freq[n-1] < freq {
		n++
	}
	low := spec.Power[:n]
	graph := asciigraph.Plot(low,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", field)),
	)
	return graph, freq, nil
}

// Summary renders the final metrics of a run as a boxed table.
func Summary(name string, res *sim.Result) string {
	var b strings.Builder
	b.WriteString(Title.Render(name) + "\n")
	b.WriteString(MetricLabel.Render("ticks") + MetricValue.Render(fmt.Sprintf("%d", res.Ticks)) + "\n")
	b.WriteString(MetricLabel.Render("particles") +
		MetricValue.Render(fmt.Sprintf("%d/%d", res.Final.Len(), res.Final.Capacity)) + "\n")

	names := make([]string, 0, len(res.Metrics))
	for k := range res.Metrics {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		b.WriteString(MetricLabel.Render(k) + MetricValue.Render(fmt.Sprintf("%.6g", res.Metrics[k])) + "\n")
	}
	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}
