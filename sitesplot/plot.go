/*
 * plot.go, part of pdbsite.
 *
 * Copyright 2026 The pdbsite authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package sitesplot draws the values of the reports of a protein against
// the position of each site.
package sitesplot

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/rmera/pdbsite"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Size of the saved plots.
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

func basicPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Position"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

// points returns, per structure, the value of each report against its
// position. Reports without a value are skipped. The structure IDs are
// returned sorted.
func points(agg *pdbsite.ProteinReport) (map[string]plotter.XYs, []string, bool) {
	ret := make(map[string]plotter.XYs)
	surface := false
	for _, R := range agg.Reports() {
		v, ok := R.Value()
		if !ok {
			continue
		}
		if R.Surface != nil {
			surface = true
		}
		pos := R.Position
		if R.Accession == "" {
			pos = R.Atom.ResID
		}
		ret[R.PDB] = append(ret[R.PDB], plotter.XY{X: float64(pos), Y: v})
	}
	ids := make([]string, 0, len(ret))
	for k := range ret {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ret, ids, surface
}

// Plot saves to path a PNG scatter plot of the values in agg against the
// position of their sites, one color per structure.
func Plot(agg *pdbsite.ProteinReport, path string) error {
	if agg == nil {
		return fmt.Errorf("Plot: nil report: %w", pdbsite.ErrNoResult)
	}
	data, ids, surface := points(agg)
	if len(ids) == 0 {
		return fmt.Errorf("Plot: no values to plot for %s: %w", agg.Accession, pdbsite.ErrNoResult)
	}
	ylabel := "Minimum distance (A)"
	if surface {
		ylabel = "Surface accessibility (A^2)"
	}
	p := basicPlot(agg.Accession, ylabel)
	for i, id := range ids {
		s, err := plotter.NewScatter(data[id])
		if err != nil {
			return fmt.Errorf("Plot: %w", err)
		}
		r, g, b := colors(i, len(ids))
		s.GlyphStyle.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(id, s)
	}
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("Plot: %w", err)
	}
	return nil
}

// takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	conversion := 255.0 * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}

// colors spreads steps colors over the hue circle, skipping the yellows,
// which are hard to see on white.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	h := hp + 20.0
	if hp < 55 {
		h = hp - 20.0
	}
	return iHVS2RGB(h, 1.0, 1.0)
}
