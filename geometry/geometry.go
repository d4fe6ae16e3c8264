/*
 * geometry.go, part of pdbsite.
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

// Package geometry computes the property reported for an atom of a structure:
// its solvent accessible surface, or its distances to acidic oxygens.
package geometry

import (
	"fmt"
	"strings"

	"github.com/rmera/pdbsite"
)

// Kind is the property computed.
type Kind int

const (
	Surface    Kind = iota //accessible surface of sites found through a protein
	PDBSurface             //accessible surface of every site of a structure
	Distance               //distances to D OD1/OD2 and E OE1/OE2
)

var kindNames = map[Kind]string{
	Surface:    "SURFACE",
	PDBSurface: "PDB_SURFACE",
	Distance:   "DISTANCE",
}

func (K Kind) String() string {
	if s, ok := kindNames[K]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(K))
}

// LogName returns the name of the file where results of this kind are kept.
func (K Kind) LogName() string {
	if K == Distance {
		return "distances.csv"
	}
	return "surfaces_accessibilities.csv"
}

// ParseKind returns the Kind with the name s, case-insensitive.
func ParseKind(s string) (Kind, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for k, v := range kindNames {
		if v == s {
			return k, nil
		}
	}
	return Surface, fmt.Errorf("ParseKind: unknown calculation %q: %w", s, pdbsite.ErrMalformed)
}

// Result is what a Strategy obtains for one atom. Only one of the fields
// is set, depending on the Kind.
type Result struct {
	Surface   *float64
	Distances []pdbsite.Distance
}

// Strategy computes the property of the atom with index atom in st.
// It returns false if there is no result for the atom.
type Strategy interface {
	Compute(st *pdbsite.Structure, atom int, flags pdbsite.Flags) (Result, bool)
}

// Options for the strategies. The zero value is not useful, use DefaultOptions.
type Options struct {
	probe     float64
	points    int
	threshold float64
}

// DefaultOptions returns an Options with a 1.4 A probe, 960 points per
// sphere and a 2.0 A distance threshold.
func DefaultOptions() *Options {
	return &Options{probe: 1.4, points: 960, threshold: 2.0}
}

// Probe returns the probe radius and sets it, if a positive value is given.
func (O *Options) Probe(probe ...float64) float64 {
	ret := O.probe
	if len(probe) > 0 && probe[0] > 0 {
		O.probe = probe[0]
	}
	return ret
}

// Points returns the number of points per sphere in surface calculations,
// and sets it, if a positive value is given.
func (O *Options) Points(points ...int) int {
	ret := O.points
	if len(points) > 0 && points[0] > 0 {
		O.points = points[0]
	}
	return ret
}

// Threshold returns the maximum distance reported by the distance
// strategy and sets it, if a positive value is given.
func (O *Options) Threshold(t ...float64) float64 {
	ret := O.threshold
	if len(t) > 0 && t[0] > 0 {
		O.threshold = t[0]
	}
	return ret
}

// New returns the Strategy for kind. PDBSurface and Surface share the strategy,
// they only differ in how the sites are found.
func New(kind Kind, options ...*Options) Strategy {
	o := DefaultOptions()
	if len(options) > 0 && options[0] != nil {
		o = options[0]
	}
	if kind == Distance {
		return &DistanceStrategy{Threshold: o.threshold}
	}
	return NewSurfaceStrategy(o.probe, o.points)
}
