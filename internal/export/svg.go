// Package export writes snapshots as standalone SVG images.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/viz"
)

// SnapshotSVG draws walls as filled rectangles and particles as circles of
// the configured radius, colored by speed relative to the fastest particle.
// World coordinates map to SVG units times scale; y grows downward in both.
func SnapshotSVG(w io.Writer, snap fluid.Snapshot, theme viz.Theme, scale float64) error {
	if scale <= 0 {
		scale = 1
	}
	dom := snap.Domain
	width := (dom.Max.X - dom.Min.X) * scale
	height := (dom.Max.Y - dom.Min.Y) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", theme.Muted)
	for _, o := range snap.Obstacles {
		fmt.Fprintf(&sb, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\"/>\n",
			(o.Min.X-dom.Min.X)*scale, (o.Min.Y-dom.Min.Y)*scale,
			(o.Max.X-o.Min.X)*scale, (o.Max.Y-o.Min.Y)*scale)
	}
	sb.WriteString("</g>\n")

	vmax := 0.0
	for i := range snap.Velocities {
		vmax = math.Max(vmax, snap.Speed(i))
	}
	colors := [...]string{string(theme.Secondary), string(theme.Warning), string(theme.Error)}
	r := math.Max(snap.Radius, 0.5) * scale

	sb.WriteString("<g>\n")
	for i, p := range snap.Positions {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n",
			(p.X-dom.Min.X)*scale, (p.Y-dom.Min.Y)*scale, r, colors[shade(snap.Speed(i), vmax)])
	}
	sb.WriteString("</g>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// shade buckets a speed into thirds of vmax.
func shade(v, vmax float64) int {
	if !(vmax > 0) {
		return 0
	}
	return min(int(3*v/vmax), 2)
}
