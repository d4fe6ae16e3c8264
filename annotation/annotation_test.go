/*
 * annotation_test.go, part of pdbsite.
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

package annotation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rmera/pdbsite/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const p12345 = `{
  "primaryAccession": "P12345",
  "sequence": {"value": "MAGKDEWK", "length": 8},
  "uniProtKBCrossReferences": [
    {"database": "EMBL", "id": "X00001", "properties": []},
    {"database": "PDB", "id": "1ABC", "properties": [
      {"key": "Method", "value": "X-ray"},
      {"key": "Resolution", "value": "2.10 A"},
      {"key": "Chains", "value": "A=1-100"}
    ]},
    {"database": "PDB", "id": "2DEF", "properties": [
      {"key": "Method", "value": "NMR"},
      {"key": "Resolution", "value": "-"},
      {"key": "Chains", "value": "A/B=30-60"}
    ]}
  ]
}`

func uniprotServer(Te *testing.T, calls *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if strings.HasSuffix(r.URL.Path, "/P12345.json") {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(p12345))
			return
		}
		http.NotFound(w, r)
	}))
}

func TestUniprotClient(Te *testing.T) {
	var calls int32
	srv := uniprotServer(Te, &calls)
	defer srv.Close()
	U := NewUniprotClient(srv.URL+"/uniprotkb/%s.json", nil)
	m, err := U.Annotate(context.Background(), "", "P12345", "Q00000", "P12345")
	require.NoError(Te, err)
	assert.Equal(Te, int32(2), atomic.LoadInt32(&calls))
	require.Len(Te, m, 1)
	e := m["P12345"]
	assert.Equal(Te, "MAGKDEWK", e.Sequence)
	require.Len(Te, e.CrossRefs, 2)
	assert.Equal(Te, resolve.CrossRef{
		Type:       "PDB",
		ID:         "1ABC",
		Properties: map[string]string{"resolution": "2.10 A", "chains": "A=1-100"},
	}, e.CrossRefs[0])
	assert.Equal(Te, "A/B=30-60", e.CrossRefs[1].Properties[resolve.ChainsProperty])
}

func TestCache(Te *testing.T) {
	var calls int32
	srv := uniprotServer(Te, &calls)
	defer srv.Close()
	dir := Te.TempDir()
	C, err := NewCache(CacheConfig{Path: dir, Next: NewUniprotClient(srv.URL+"/%s.json", nil)})
	require.NoError(Te, err)
	m, err := C.Annotate(context.Background(), "2024_01", "P12345")
	require.NoError(Te, err)
	require.Contains(Te, m, "P12345")
	assert.Equal(Te, int32(1), atomic.LoadInt32(&calls))
	require.NoError(Te, C.Close())

	//Reopened, the entry comes from the database.
	C, err = NewCache(CacheConfig{Path: dir, Next: NewUniprotClient(srv.URL+"/%s.json", nil)})
	require.NoError(Te, err)
	defer C.Close()
	m2, err := C.Annotate(context.Background(), "2024_01", "P12345")
	require.NoError(Te, err)
	assert.Equal(Te, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(Te, m["P12345"], m2["P12345"])
	//Another version is another key.
	_, err = C.Annotate(context.Background(), "2024_02", "P12345")
	require.NoError(Te, err)
	assert.Equal(Te, int32(2), atomic.LoadInt32(&calls))
	//Absent entries are not cached.
	m3, err := C.Annotate(context.Background(), "2024_01", "Q00000")
	require.NoError(Te, err)
	assert.Empty(Te, m3)
	_, _ = C.Annotate(context.Background(), "2024_01", "Q00000")
	assert.Equal(Te, int32(4), atomic.LoadInt32(&calls))
}

func TestStatic(Te *testing.T) {
	S := Static{"P1": {Accession: "P1", Sequence: "MK"}}
	m, err := S.Annotate(context.Background(), "", "P1", "P2")
	require.NoError(Te, err)
	assert.Len(Te, m, 1)
	assert.Equal(Te, "MK", m["P1"].Sequence)
}
