/*
 * config_test.go, part of pdbsite.
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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/pdbsite"
	"github.com/rmera/pdbsite/geometry"
	"github.com/rmera/pdbsite/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(Te *testing.T) {
	C, err := Parse([]byte(""))
	require.NoError(Te, err)
	assert.Equal(Te, geometry.Surface, C.Kind())
	assert.True(Te, C.OneModel())
	assert.Equal(Te, pdbsite.AtomKinds{'K': {"NZ"}}, C.Kinds())
	O := C.GeometryOptions()
	assert.Equal(Te, 1.4, O.Probe())
	assert.Equal(Te, 960, O.Points())
	assert.Equal(Te, 2.0, O.Threshold())
	assert.Equal(Te, filepath.Join(".", "surfaces_accessibilities.csv"), C.LogPath())
	sep, err := C.Separator()
	require.NoError(Te, err)
	assert.Equal(Te, '\t', sep)
	_, ok := C.S3Config()
	assert.False(Te, ok)
}

func TestLoad(Te *testing.T) {
	yml := `
cacheDir: /tmp/pdbs
resultsDir: out
calculation: distance
atomKinds: "K NZ, C SG,K CE"
oneModelPerProtein: false
removeOtherChains: true
distanceThreshold: 3.5
compression: zstd
s3:
  bucket: pdb-mirror
  endpoint: http://localhost:9000
  pathStyle: true
annotation:
  version: "2024_01"
input:
  ratioColumn: 2
  separator: COMMA
logLevel: debug
`
	path := filepath.Join(Te.TempDir(), "pdbsite.yaml")
	require.NoError(Te, os.WriteFile(path, []byte(yml), 0o644))
	C, err := Load(path)
	require.NoError(Te, err)
	assert.Equal(Te, geometry.Distance, C.Kind())
	assert.False(Te, C.OneModel())
	assert.Equal(Te, pdbsite.Flags{RemoveOtherChains: true}, C.Flags())
	assert.Equal(Te, pdbsite.AtomKinds{'K': {"NZ", "CE"}, 'C': {"SG"}}, C.Kinds())
	assert.Equal(Te, 3.5, C.GeometryOptions().Threshold())
	//Not in the file.
	assert.Equal(Te, 1.4, C.ProbeRadius)
	assert.Equal(Te, 1, C.Input.AccessionColumn)
	assert.Equal(Te, 2, C.Input.RatioColumn)
	assert.Equal(Te, filepath.Join("out", "distances.csv"), C.LogPath())
	sc := C.StoreConfig(nil)
	assert.Equal(Te, store.Zstd, sc.Compression)
	assert.Equal(Te, "/tmp/pdbs", sc.Dir)
	s3, ok := C.S3Config()
	require.True(Te, ok)
	assert.Equal(Te, "pdb-mirror", s3.Bucket)
	assert.True(Te, s3.PathStyle)
	sep, err := C.Separator()
	require.NoError(Te, err)
	assert.Equal(Te, ',', sep)
	assert.Equal(Te, logrus.DebugLevel, C.Logger().GetLevel())

	_, err = Load(filepath.Join(Te.TempDir(), "missing.yaml"))
	assert.Error(Te, err)
}

func TestInvalid(Te *testing.T) {
	for _, yml := range []string{
		"calculation: volume",
		"atomKinds: LYS NZ",
		"compression: gzip",
		"input: {separator: PIPE}",
		"logLevel: loud",
		"probeRadius: -1",
		"cacheDir: [",
	} {
		_, err := Parse([]byte(yml))
		assert.Error(Te, err, yml)
	}
}

func TestParseAtomKinds(Te *testing.T) {
	k, err := ParseAtomKinds("k nz")
	require.NoError(Te, err)
	assert.Equal(Te, pdbsite.AtomKinds{'K': {"NZ"}}, k)
	for _, s := range []string{"", " , ", "K", "K NZ CE", "KK NZ"} {
		_, err := ParseAtomKinds(s)
		assert.ErrorIs(Te, err, pdbsite.ErrMalformed, s)
	}
}
