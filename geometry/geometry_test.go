/*
 * geometry_test.go, part of pdbsite.
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
	"testing"

	"github.com/rmera/pdbsite"
	"github.com/rmera/pdbsite/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(Te *testing.T) *pdbsite.Structure {
	st, err := pdbsite.PDBRead("../test/1ABC.pdb", "")
	require.NoError(Te, err)
	return st
}

func TestKind(Te *testing.T) {
	for _, k := range []Kind{Surface, PDBSurface, Distance} {
		p, err := ParseKind(k.String())
		require.NoError(Te, err)
		assert.Equal(Te, k, p)
	}
	k, err := ParseKind(" pdb_surface ")
	require.NoError(Te, err)
	assert.Equal(Te, PDBSurface, k)
	_, err = ParseKind("VOLUME")
	assert.ErrorIs(Te, err, pdbsite.ErrMalformed)
	assert.Equal(Te, "distances.csv", Distance.LogName())
	assert.Equal(Te, "surfaces_accessibilities.csv", PDBSurface.LogName())
}

func TestOptions(Te *testing.T) {
	o := DefaultOptions()
	assert.Equal(Te, 1.4, o.Probe())
	o.Probe(-3)
	assert.Equal(Te, 1.4, o.Probe())
	o.Points(100)
	assert.Equal(Te, 100, o.Points())
	o.Threshold(3.0)
	S := New(Distance, o)
	assert.Equal(Te, 3.0, S.(*DistanceStrategy).Threshold)
	assert.IsType(Te, &SurfaceStrategy{}, New(PDBSurface))
}

func TestDistance(Te *testing.T) {
	st := fixture(Te)
	S := New(Distance)
	//NZ of LYS 42
	r, ok := S.Compute(st, 6, pdbsite.Flags{})
	require.True(Te, ok)
	require.Len(Te, r.Distances, 1)
	d := r.Distances[0]
	assert.InDelta(Te, 1.8, d.Value, 1e-6)
	assert.Equal(Te, 7, d.From.ID)
	assert.Equal(Te, "OD1", d.To.Name)
	assert.Equal(Te, 43, d.To.ResID)
	assert.Nil(Te, r.Surface)
	//NZ of LYS 46 is 5 A away from the closest oxygen.
	_, ok = S.Compute(st, 17, pdbsite.Flags{})
	assert.False(Te, ok)
	//A larger threshold reaches the OD2 too.
	r, ok = (&DistanceStrategy{Threshold: 3}).Compute(st, 6, pdbsite.Flags{})
	require.True(Te, ok)
	assert.Len(Te, r.Distances, 2)
}

// A lone atom is fully exposed, so its area is that of the sphere.
func TestIsolatedSurface(Te *testing.T) {
	coords, err := v3.NewMatrix([]float64{1, 2, 3})
	require.NoError(Te, err)
	st := &pdbsite.Structure{
		ID:     "1ONE",
		Atoms:  []*pdbsite.Atom{{ID: 1, Name: "NZ", Molname: "LYS", Molname1: 'K', Chain: "A", MolID: 1, Symbol: "N"}},
		Coords: coords,
	}
	S := NewSurfaceStrategy(1.4, 960)
	r, ok := S.Compute(st, 0, pdbsite.Flags{})
	require.True(Te, ok)
	require.NotNil(Te, r.Surface)
	rad := pdbsite.VdwRadius("N") + 1.4
	assert.InDelta(Te, 4*math.Pi*rad*rad, *r.Surface, 1e-9)
	_, ok = S.Compute(st, 3, pdbsite.Flags{})
	assert.False(Te, ok)
}

func TestSurfaceFlags(Te *testing.T) {
	st := fixture(Te)
	S := NewSurfaceStrategy(1.4, 960)
	all, ok := S.Compute(st, 6, pdbsite.Flags{})
	require.True(Te, ok)
	//Without the water next to it, the NZ is more exposed.
	nowat, ok := S.Compute(st, 6, pdbsite.Flags{RemoveOtherMolecules: true})
	require.True(Te, ok)
	assert.Greater(Te, *nowat.Surface, *all.Surface)
	rad := pdbsite.VdwRadius("N") + 1.4
	assert.Less(Te, *nowat.Surface, 4*math.Pi*rad*rad)
	//Chain B is far away, so removing it changes nothing.
	nob, ok := S.Compute(st, 6, pdbsite.Flags{RemoveOtherChains: true})
	require.True(Te, ok)
	assert.InDelta(Te, *all.Surface, *nob.Surface, 1e-9)
}
