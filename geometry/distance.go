/*
 * distance.go, part of pdbsite.
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
	"github.com/rmera/pdbsite"
	"github.com/rmera/pdbsite/v3"
)

// Targets are the residue types and atom kinds the distance strategy
// measures against.
var Targets = []struct {
	Residue byte
	Kind    string
}{
	{'D', "OD1"},
	{'D', "OD2"},
	{'E', "OE1"},
	{'E', "OE2"},
}

// DistanceStrategy obtains the distances from an atom to every acidic oxygen
// of the structure closer than Threshold. Atoms in any chain are considered.
type DistanceStrategy struct {
	Threshold float64
}

// Compute returns the distances, or false if no target is close enough.
func (D *DistanceStrategy) Compute(st *pdbsite.Structure, atom int, flags pdbsite.Flags) (Result, bool) {
	if st == nil || st.Coords == nil || atom < 0 || atom >= st.Len() {
		return Result{}, false
	}
	from := st.Locate(atom)
	ret := make([]pdbsite.Distance, 0, 2)
	for _, t := range Targets {
		for _, j := range st.AtomsOf(t.Residue, t.Kind) {
			if j == atom {
				continue
			}
			d := v3.Distance(st.Coords, atom, st.Coords, j)
			if d <= D.Threshold {
				ret = append(ret, pdbsite.Distance{From: from, To: st.Locate(j), Value: d})
			}
		}
	}
	if len(ret) == 0 {
		return Result{}, false
	}
	return Result{Distances: ret}, true
}
