/*
 * cache_test.go, part of pdbsite.
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

package cache

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rmera/pdbsite"
	"github.com/rmera/pdbsite/annotation"
	"github.com/rmera/pdbsite/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(f float64) *float64 { return &f }

func surfaceReport(acc string, pos int, pdb string, surface float64) *pdbsite.Report {
	return &pdbsite.Report{
		PDB:        pdb,
		Accession:  acc,
		Position:   pos,
		Resolution: fptr(2.1),
		Atom:       pdbsite.Locator{ID: 7, Name: "NZ", Chain: "A", ResID: 42, Res: 'K', Coords: []float64{10, 0, 0}},
		Flags:      pdbsite.Flags{RemoveOtherMolecules: true},
		Mutated:    true,
		Method:     "X-RAY DIFFRACTION",
		Surface:    fptr(surface),
	}
}

var static = annotation.Static{
	"P12345": {Accession: "P12345", Sequence: "MAGKDE"},
	"Q9|X-1": {Accession: "Q9|X-1", Sequence: "MK"},
	"-":      {Accession: "-", Sequence: "MK"},
	`\P1`:    {Accession: `\P1`, Sequence: "MK"},
}

func open(Te *testing.T, path string, kind geometry.Kind) *Cache {
	C, err := Open(Config{Path: path, Annotation: static, Kind: kind})
	require.NoError(Te, err)
	return C
}

func lines(Te *testing.T, path string) []string {
	f, err := os.Open(path)
	require.NoError(Te, err)
	defer f.Close()
	ret := make([]string, 0, 10)
	s := bufio.NewScanner(f)
	for s.Scan() {
		ret = append(ret, s.Text())
	}
	require.NoError(Te, s.Err())
	return ret
}

func TestStoreAndHydrate(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), geometry.Surface.LogName())
	C := open(Te, path, geometry.Surface)
	R := surfaceReport("P12345", 4, "1ABC", 35.5)
	_, ok := C.Lookup(context.Background(), R.Key())
	assert.False(Te, ok)
	agg := pdbsite.NewProteinReport("P12345", "MAGKDE")
	agg.Add(R)
	require.NoError(Te, C.Store(agg))
	assert.True(Te, R.Persisted())
	got, ok := C.Lookup(context.Background(), R.Key())
	require.True(Te, ok)
	assert.Same(Te, R, got)
	l := lines(Te, path)
	require.Len(Te, l, 2)
	assert.Equal(Te, strings.Join(Header(geometry.Surface), "\t"), l[0])
	assert.True(Te, strings.HasPrefix(l[1], "1ABC\tP12345\t4\t2.1\t7\tNZ\tA\t42\tK\t10\t0\t0\tfalse\ttrue\ttrue\tX-RAY DIFFRACTION\t35.5\t"))
	//Storing again writes nothing.
	require.NoError(Te, C.Store(agg))
	assert.Len(Te, lines(Te, path), 2)

	//A new process.
	C2 := open(Te, path, geometry.Surface)
	require.NoError(Te, C2.Hydrate(context.Background()))
	got, ok = C2.Lookup(context.Background(), R.Key())
	require.True(Te, ok)
	assert.True(Te, got.Persisted())
	assert.Equal(Te, *R.Surface, *got.Surface)
	assert.Equal(Te, R.Atom, got.Atom)
	assert.Equal(Te, R.Method, got.Method)
	a, ok := C2.Aggregate("P12345")
	require.True(Te, ok)
	assert.Equal(Te, "MAGKDE", a.Sequence)
	assert.True(Te, a.HasPosition(4))
	//Hydration is idempotent and loaded reports are not written again.
	require.NoError(Te, C2.Hydrate(context.Background()))
	assert.Equal(Te, 1, C2.Len())
	require.NoError(Te, C2.Store(a))
	assert.Len(Te, lines(Te, path), 2)
}

// Values that are literally "-" or start with a backslash read back unchanged.
func TestDashValues(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "log.csv")
	C := open(Te, path, geometry.Surface)
	dash := surfaceReport("-", 2, "1ABC", 1)
	dash.Method = "-"
	slash := surfaceReport(`\P1`, 2, "1ABC", 2)
	slash.Method = `\-`
	for _, R := range []*pdbsite.Report{dash, slash} {
		agg := pdbsite.NewProteinReport(R.Accession, "MK")
		agg.Add(R)
		require.NoError(Te, C.Store(agg))
	}
	l := lines(Te, path)
	require.Len(Te, l, 3)
	assert.True(Te, strings.HasPrefix(l[1], "1ABC\t\\-\t"))

	C2 := open(Te, path, geometry.Surface)
	require.NoError(Te, C2.Hydrate(context.Background()))
	assert.Equal(Te, 2, C2.Len())
	for _, R := range []*pdbsite.Report{dash, slash} {
		got, ok := C2.Lookup(context.Background(), R.Key())
		require.True(Te, ok, "%s not loaded", R.Key())
		assert.Equal(Te, R.Accession, got.Accession)
		assert.Equal(Te, R.Method, got.Method)
	}
	_, ok := C2.Aggregate("-")
	assert.True(Te, ok)
}

func TestHydrateDrops(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "log.csv")
	C := open(Te, path, geometry.Surface)
	known := surfaceReport("P12345", 4, "1ABC", 1)
	unknown := surfaceReport("O00000", 4, "1ABC", 2)
	//Anchored on the structure, no protein needed.
	st := surfaceReport("", -1, "1ABC", 3)
	st.Surface = nil
	for _, R := range []*pdbsite.Report{known, unknown, st} {
		agg := pdbsite.NewProteinReport(R.Accession, "")
		agg.Add(R)
		require.NoError(Te, C.Store(agg))
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(Te, err)
	f.WriteString("1ABC\tP12345\tnot-a-number\n")
	f.Close()

	C2 := open(Te, path, geometry.Surface)
	require.NoError(Te, C2.Hydrate(context.Background()))
	assert.Equal(Te, 2, C2.Len())
	_, ok := C2.Lookup(context.Background(), known.Key())
	assert.True(Te, ok)
	_, ok = C2.Lookup(context.Background(), unknown.Key())
	assert.False(Te, ok)
	got, ok := C2.Lookup(context.Background(), st.Key())
	require.True(Te, ok)
	assert.Nil(Te, got.Surface)
	assert.Equal(Te, "", got.Accession)
	assert.Equal(Te, -1, got.Position)
}

func TestDistanceRows(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), geometry.Distance.LogName())
	C := open(Te, path, geometry.Distance)
	R := surfaceReport("P12345", 4, "1ABC", 0)
	R.Surface = nil
	od1 := pdbsite.Locator{ID: 10, Name: "OD1", Chain: "A", ResID: 43, Res: 'D', Coords: []float64{10, 1.8, 0}}
	oe1 := pdbsite.Locator{ID: 14, Name: "OE1", Chain: "A", ResID: 44, Res: 'E', Coords: []float64{11, 1, 0}}
	R.Distances = []pdbsite.Distance{{From: R.Atom, To: od1, Value: 1.8}, {From: R.Atom, To: oe1, Value: 1.4}}
	agg := pdbsite.NewProteinReport("P12345", "MAGKDE")
	agg.Add(R)
	require.NoError(Te, C.Store(agg))
	assert.Len(Te, lines(Te, path), 3)

	C2 := open(Te, path, geometry.Distance)
	got, ok := C2.Lookup(context.Background(), R.Key())
	require.True(Te, ok)
	require.Len(Te, got.Distances, 2)
	assert.Equal(Te, R.Distances, got.Distances)
	v, ok := got.Value()
	assert.True(Te, ok)
	assert.Equal(Te, 1.4, v)
}

func TestDump(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "log.csv")
	C := open(Te, path, geometry.Surface)
	reports := []*pdbsite.Report{
		surfaceReport("Q9|X-1", 2, "2DEF", 1),
		surfaceReport("P12345", 5, "1ABC", 2),
		surfaceReport("P12345", 4, "1ABC", 3),
		surfaceReport("P12345", 4, "0AAA", 4),
	}
	for _, R := range reports {
		agg := pdbsite.NewProteinReport(R.Accession, "")
		agg.Add(R)
		require.NoError(Te, C.Store(agg))
	}
	require.NoError(Te, C.Dump())
	l := lines(Te, path)
	require.Len(Te, l, len(reports)+1)
	keys := make([]string, 0, len(reports))
	for _, line := range l[1:] {
		f := strings.Split(line, "\t")
		keys = append(keys, f[len(f)-1])
	}
	assert.True(Te, sort.StringsAreSorted(keys))
	//No temporary files left.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(Te, err)
	for _, e := range entries {
		assert.False(Te, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
	//The dumped log loads back, the accession with a separator included.
	C2 := open(Te, path, geometry.Surface)
	require.NoError(Te, C2.Hydrate(context.Background()))
	assert.Equal(Te, len(reports), C2.Len())
	_, ok := C2.Lookup(context.Background(), reports[0].Key())
	assert.True(Te, ok)
}

func TestStoreError(Te *testing.T) {
	path := filepath.Join(Te.TempDir(), "log.csv")
	//The log path is a directory, so it can't be written.
	require.NoError(Te, os.Mkdir(path, 0o755))
	C := open(Te, path, geometry.Surface)
	R := surfaceReport("P12345", 4, "1ABC", 1)
	agg := pdbsite.NewProteinReport("P12345", "")
	agg.Add(R)
	assert.Error(Te, C.Store(agg))
	assert.False(Te, R.Persisted())

	//Once the log can be written, storing again writes the pending row.
	require.NoError(Te, os.Remove(path))
	require.NoError(Te, C.Store(agg))
	assert.True(Te, R.Persisted())
	assert.Len(Te, lines(Te, path), 2)
	require.NoError(Te, C.Store(agg))
	assert.Len(Te, lines(Te, path), 2)
}
