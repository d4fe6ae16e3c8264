/*
 * gonum.go, part of pdbsite.
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

//gonum.go contains most of what is needed for handling the gonum/mat types and facilities.

package v3

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a set of vectors in 3D space. Within the package it is understood
// that a "vector" is a row vector, i.e. the cartesian coordinates of a point
// in 3D space. The name of some funcitions in the library reflect this.
type Matrix struct {
	*mat.Dense
}

// NewMatrix generates and returns a Matrix with 3 columns from data.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	rows := l / cols
	if l%cols != 0 {
		return nil, Error{fmt.Sprintf("NewMatrix: input slice length %d not divisible by %d: %d", l, cols, l%cols)}
	}
	if rows == 0 {
		return nil, Error{"NewMatrix: empty input slice"}
	}
	r := mat.NewDense(rows, cols, data)
	return &Matrix{r}, nil
}

//Error

// Error is the error type for this package.
type Error struct {
	message string
}

// Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

// PanicMsg is a message used for panics, even though it does satisfy the error interface.
// for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix = PanicMsg("pdbsite/v3: A VecMatrix should have 3 columns")
	ErrShape        = PanicMsg("pdbsite/v3: Dimension mismatch")
	ErrIndex        = PanicMsg("pdbsite/v3: Index out of range")
)
