/*
 * v3_test.go, part of pdbsite.
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

package v3

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeo(Te *testing.T) {
	a := []float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9}
	A, err := NewMatrix(a)
	require.NoError(Te, err)
	assert.Equal(Te, 3, A.NVecs())
	assert.Equal(Te, []float64{4, 5, 6}, A.Vec(1))
	assert.Equal(Te, []float64{7, 8, 9}, A.Vec(2))
}

func TestNewMatrixBadLength(Te *testing.T) {
	_, err := NewMatrix([]float64{1, 2, 3, 4})
	assert.Error(Te, err)
	_, err = NewMatrix(nil)
	assert.Error(Te, err)
	assert.Panics(Te, func() { Zeros(1).Vec(1) })
}

func TestDistance(Te *testing.T) {
	A, _ := NewMatrix([]float64{0, 0, 0, 3, 4, 0})
	assert.InDelta(Te, 5.0, Distance(A, 0, A, 1), 1e-12)
	assert.InDelta(Te, 25.0, Distance2(A, 1, []float64{0, 0, 0}), 1e-12)
}

func TestSphere(Te *testing.T) {
	S := Sphere(100)
	for i := 0; i < S.NVecs(); i++ {
		v := S.Vec(i)
		n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
		assert.InDelta(Te, 1.0, n, 1e-9)
	}
}
