/*
 * gocoords.go, part of pdbsite.
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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Zeros returns a zero-filled Matrix with vecs vectors and 3 in the other dimension.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	f := make([]float64, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

// NVecs returns the number of vecs in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

// Vec returns a copy of the ith vector of F as a slice.
func (F *Matrix) Vec(i int) []float64 {
	if i < 0 || i >= F.NVecs() {
		panic(ErrIndex)
	}
	return mat.Row(nil, i, F.Dense)
}

// Distance returns the euclidean distance between the ith vector of A and
// the jth vector of B.
func Distance(A *Matrix, i int, B *Matrix, j int) float64 {
	return floats.Distance(A.Vec(i), B.Vec(j), 2)
}

// Distance2 returns the squared distance between the ith vector of A and
// the point p. It avoids the square root for neighbour searches.
func Distance2(A *Matrix, i int, p []float64) float64 {
	d := 0.0
	for k := 0; k < 3; k++ {
		t := A.At(i, k) - p[k]
		d += t * t
	}
	return d
}

// Sphere returns n points evenly distributed over a sphere of radius 1
// centered at the origin, laid on a golden-section spiral.
func Sphere(n int) *Matrix {
	if n <= 0 {
		panic(ErrShape)
	}
	ret := Zeros(n)
	inc := math.Pi * (3 - math.Sqrt(5))
	off := 2.0 / float64(n)
	for k := 0; k < n; k++ {
		y := float64(k)*off - 1 + off/2
		r := math.Sqrt(1 - y*y)
		phi := float64(k) * inc
		ret.Set(k, 0, math.Cos(phi)*r)
		ret.Set(k, 1, y)
		ret.Set(k, 2, math.Sin(phi)*r)
	}
	return ret
}
