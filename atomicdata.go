/*
 * atomicdata.go, part of pdbsite.
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

package pdbsite

import "sort"

// Placeholder is the residue used in reconstructed sequences for positions
// with no residue in the structure.
const Placeholder = '?'

// UnknownResidue is the one-letter code for residues not in three2OneLetter.
const UnknownResidue = 'X'

//A map between 3-letters name for aminoacidic residues to the corresponding 1-letter names.
var three2OneLetter = map[string]byte{
	"SER": 'S',
	"THR": 'T',
	"ASN": 'N',
	"GLN": 'Q',
	"SEC": 'U', //Selenocysteine!
	"CYS": 'C',
	"GLY": 'G',
	"PRO": 'P',
	"ALA": 'A',
	"VAL": 'V',
	"ILE": 'I',
	"LEU": 'L',
	"MET": 'M',
	"PHE": 'F',
	"TYR": 'Y',
	"TRP": 'W',
	"ARG": 'R',
	"HIS": 'H',
	"LYS": 'K',
	"ASP": 'D',
	"GLU": 'E',
	"CGU": 'E', //gamma-carboxy-glutamate
	"UNK": 'X',
}

// OneLetter returns the one-letter code for a 3-letter residue name, and
// false if the name is not a known aminoacid.
func OneLetter(name string) (byte, bool) {
	l, ok := three2OneLetter[name]
	if !ok {
		return UnknownResidue, false
	}
	return l, true
}

//A map for assigning van der Waals radii to elements
//Values from 10.1021/j100785a001 and 10.1021/jp8111556
//metal radii from 10.1023/A:1011625728803
//Note that just common "bio-elements" are present
var symbolVdwrad = map[string]float64{
	"H":  1.10,
	"C":  1.70,
	"O":  1.52,
	"N":  1.55,
	"P":  1.80,
	"S":  1.80,
	"Se": 1.90,
	"K":  2.75,
	"Ca": 2.31,
	"Mg": 1.73,
	"Cl": 1.75,
	"Na": 2.27,
	"Cu": 2.00,
	"Zn": 2.02,
	"Co": 1.95,
	"Fe": 1.96,
	"Mn": 1.96,
}

// VdwRadius returns the van der Waals radius for the element symbol, or the
// carbon radius when the element is unknown.
func VdwRadius(symbol string) float64 {
	if r, ok := symbolVdwrad[symbol]; ok {
		return r
	}
	return symbolVdwrad["C"]
}

//This tries to guess a chemical element symbol from a PDB atom name.
//It only deals with some common bio-elements.
func symbolFromName(name string) string {
	if name == "" {
		return ""
	}
	switch {
	case len(name) == 4 || name[0] == 'H':
		return "H"
	case name == "CU":
		return "Cu"
	case name == "CO":
		return "Co"
	case name == "CL":
		return "Cl"
	case name[0] == 'C':
		return "C" //Ca is not considered here
	case name == "NA":
		return "Na"
	case name[0] == 'N':
		return "N"
	case name[0] == 'O':
		return "O"
	case name[0] == 'P':
		return "P"
	case name == "SE":
		return "Se"
	case name[0] == 'S':
		return "S"
	case name == "ZN":
		return "Zn"
	case name == "FE":
		return "Fe"
	case name == "MG":
		return "Mg"
	}
	return ""
}

// AtomKinds maps a one-letter residue code to the atom names to be resolved
// for that residue, i.e. 'K' -> ["NZ"].
type AtomKinds map[byte][]string

// Residues returns the residues in the map, sorted, so iterations over
// the map are reproducible.
func (A AtomKinds) Residues() []byte {
	ret := make([]byte, 0, len(A))
	for k := range A {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// Has returns true if r is one of the residues in the map.
func (A AtomKinds) Has(r byte) bool {
	_, ok := A[r]
	return ok
}
