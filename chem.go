/*
 * chem.go, part of pdbsite.
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

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rmera/pdbsite/v3"
)

// Atom contains the information of a single ATOM/HETATM record, except for
// the coordinates, which are kept in the parent Structure.
type Atom struct {
	ID       int    //Serial number in the file
	Name     string //PDB name, i.e. the atom kind, "NZ", "CA"...
	Molname  string //Residue name, 3 letters
	Molname1 byte   //Residue name, 1 letter
	Chain    string
	MolID    int //Residue number in the structure numbering
	Het      bool
	Symbol   string
}

func (N *Atom) String() string {
	return fmt.Sprintf("%s%d:%s.%s #%d", N.Molname, N.MolID, N.Chain, N.Name, N.ID)
}

// DBRef is a DBREF record of a structure, linking one of its chains
// to an entry in a sequence database.
type DBRef struct {
	PDB     string
	Chain   string
	UniProt string //empty when the record carries no accession
}

// ParseDBRef parses a DBREF line. The fields are split on whitespace, the
// accession is the 7th field and it is absent in short lines, such as those of
// DBREF2 records.
func ParseDBRef(line string) (DBRef, error) {
	f := strings.Fields(line)
	if len(f) < 3 {
		return DBRef{}, fmt.Errorf("ParseDBRef: %q: %w", line, ErrMalformed)
	}
	ret := DBRef{PDB: f[1], Chain: f[2]}
	if len(f) >= 7 {
		ret.UniProt = f[6]
	}
	return ret, nil
}

// Structure is a parsed PDB entry. It is not modified after reading.
type Structure struct {
	ID       string
	Atoms    []*Atom
	Coords   *v3.Matrix
	DBRefs   []DBRef
	Method   string //From the EXPDTA record
	Mutation bool   //true if the entry declares a mutation
}

// Len returns the number of atoms in the structure.
func (S *Structure) Len() int {
	return len(S.Atoms)
}

// Atom returns the ith atom.
func (S *Structure) Atom(i int) *Atom {
	if i < 0 || i >= len(S.Atoms) {
		panic(ErrAtomIndex)
	}
	return S.Atoms[i]
}

// Chains returns the sorted, unique IDs of the chains with a DBREF record.
func (S *Structure) Chains() []string {
	seen := make(map[string]bool)
	ret := make([]string, 0, 2)
	for _, d := range S.DBRefs {
		if !seen[d.Chain] {
			seen[d.Chain] = true
			ret = append(ret, d.Chain)
		}
	}
	sort.Strings(ret)
	return ret
}

// DBRef returns the first DBREF record for the chain. chain can contain
// several "/"-separated aliases, in which case the first record matching
// any of them is returned.
func (S *Structure) DBRef(chain string) (DBRef, bool) {
	ids := strings.Split(chain, "/")
	for _, d := range S.DBRefs {
		for _, id := range ids {
			if d.Chain == id {
				return d, true
			}
		}
	}
	return DBRef{}, false
}

// HasUniprotRef returns true if any DBREF record of the structure
// points to the given accession.
func (S *Structure) HasUniprotRef(acc string) bool {
	for _, d := range S.DBRefs {
		if d.UniProt != "" && d.UniProt == acc {
			return true
		}
	}
	return false
}

// Sequence returns the sequence of the chain, as one-letter codes, built so
// the index i in the string corresponds to residue number i+1. Residue numbers
// with no residue in the structure are filled with Placeholder. Only
// ATOM records count, and residues numbered below 1 are left out, as they
// have no index in the string. Returns an empty string if the chain has no
// residues.
func (S *Structure) Sequence(chain string) string {
	type res struct {
		num  int
		code byte
	}
	seen := make(map[int]bool)
	residues := make([]res, 0, 100)
	for _, at := range S.Atoms {
		if at.Het || at.Chain != chain || at.MolID < 1 || seen[at.MolID] {
			continue
		}
		seen[at.MolID] = true
		residues = append(residues, res{at.MolID, at.Molname1})
	}
	sort.SliceStable(residues, func(i, j int) bool { return residues[i].num < residues[j].num })
	var sb strings.Builder
	for _, r := range residues {
		//pads both the N-terminal stretch and any gap.
		for sb.Len()+1 < r.num {
			sb.WriteByte(Placeholder)
		}
		sb.WriteByte(r.code)
	}
	return sb.String()
}

// AtomsOf returns the indexes of all the non-HETATM atoms of the given kind in
// residues of type aa, in any chain.
func (S *Structure) AtomsOf(aa byte, kind string) []int {
	ret := make([]int, 0, 10)
	for i, at := range S.Atoms {
		if !at.Het && at.Molname1 == aa && at.Name == kind {
			ret = append(ret, i)
		}
	}
	return ret
}

// Locate returns a self-contained Locator for the ith atom, including
// its coordinates.
func (S *Structure) Locate(i int) Locator {
	at := S.Atom(i)
	l := Locator{ID: at.ID, Name: at.Name, Chain: at.Chain, ResID: at.MolID, Res: at.Molname1}
	if S.Coords != nil {
		l.Coords = S.Coords.Vec(i)
	}
	return l
}

// Locator identifies a single atom of a structure, independently of the
// Structure object. Coords is nil when the coordinates are not known.
type Locator struct {
	ID     int
	Name   string
	Chain  string
	ResID  int
	Res    byte
	Coords []float64
}

func (L Locator) String() string {
	return fmt.Sprintf("%c%d:%s.%s #%d", L.Res, L.ResID, L.Chain, L.Name, L.ID)
}

// Chain is a chain of a structure, as described in the cross-references of a
// protein, with the inclusive range of protein positions it covers.
type Chain struct {
	PDB        string
	ID         string
	Start      int
	End        int
	Resolution *float64 //nil if unknown
}

// Contains returns true if pos is in the inclusive range of the chain.
func (C Chain) Contains(pos int) bool {
	return pos >= C.Start && pos <= C.End
}

func (C Chain) String() string {
	return fmt.Sprintf("%s [chain:%s, start=%d, end=%d]", C.PDB, C.ID, C.Start, C.End)
}

// Flags are the isolation options used when computing a property of an atom.
type Flags struct {
	RemoveOtherChains    bool
	RemoveOtherMolecules bool
}
