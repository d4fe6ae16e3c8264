/*
 * surface.go, part of pdbsite.
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

package geometry

import (
	"math"

	"github.com/rmera/pdbsite"
	"github.com/rmera/pdbsite/v3"
)

// SurfaceStrategy obtains the solvent accessible surface of an atom, in A^2,
// with the Shrake-Rupley method: points are laid on a sphere of radius
// vdW+probe around the atom, and the fraction of them not buried in the
// spheres of the neighbours gives the accessible part of the sphere area.
type SurfaceStrategy struct {
	Probe  float64
	sphere *v3.Matrix
}

// NewSurfaceStrategy returns a SurfaceStrategy with the given probe radius,
// and points points per sphere.
func NewSurfaceStrategy(probe float64, points int) *SurfaceStrategy {
	return &SurfaceStrategy{Probe: probe, sphere: v3.Sphere(points)}
}

// excluded returns true if the atom j does not take part in the surface of i.
func excluded(st *pdbsite.Structure, i, j int, flags pdbsite.Flags) bool {
	if i == j {
		return true
	}
	at := st.Atoms[j]
	if flags.RemoveOtherMolecules && at.Het {
		return true
	}
	return flags.RemoveOtherChains && at.Chain != st.Atoms[i].Chain
}

// Compute returns the accessible surface of the atom. There is no result
// only if the structure has no coordinates.
func (S *SurfaceStrategy) Compute(st *pdbsite.Structure, atom int, flags pdbsite.Flags) (Result, bool) {
	if st == nil || st.Coords == nil || atom < 0 || atom >= st.Len() {
		return Result{}, false
	}
	center := st.Coords.Vec(atom)
	radius := pdbsite.VdwRadius(st.Atoms[atom].Symbol) + S.Probe
	//neighbours are the atoms whose expanded spheres overlap with this one.
	type neighbour struct {
		idx int
		r2  float64
	}
	neighbours := make([]neighbour, 0, 30)
	for j := 0; j < st.Len(); j++ {
		if excluded(st, atom, j, flags) {
			continue
		}
		rj := pdbsite.VdwRadius(st.Atoms[j].Symbol) + S.Probe
		lim := radius + rj
		if v3.Distance2(st.Coords, j, center) < lim*lim {
			neighbours = append(neighbours, neighbour{j, rj * rj})
		}
	}
	n := S.sphere.NVecs()
	accessible := 0
	point := make([]float64, 3)
	for k := 0; k < n; k++ {
		for c := 0; c < 3; c++ {
			point[c] = center[c] + radius*S.sphere.At(k, c)
		}
		buried := false
		//the last neighbour that buried a point is likely to bury the next one.
		for x, nb := range neighbours {
			if v3.Distance2(st.Coords, nb.idx, point) < nb.r2 {
				buried = true
				if x > 0 {
					neighbours[0], neighbours[x] = neighbours[x], neighbours[0]
				}
				break
			}
		}
		if !buried {
			accessible++
		}
	}
	area := 4 * math.Pi * radius * radius * float64(accessible) / float64(n)
	return Result{Surface: &area}, true
}
