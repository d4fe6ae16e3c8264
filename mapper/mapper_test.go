/*
 * mapper_test.go, part of pdbsite.
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

package mapper

import (
	"testing"

	"github.com/rmera/pdbsite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lysNZ = pdbsite.AtomKinds{'K': {"NZ"}}

func readFixture(Te *testing.T) *pdbsite.Structure {
	st, err := pdbsite.PDBRead("../test/1ABC.pdb", "")
	require.NoError(Te, err)
	return st
}

func TestMapUniprot(Te *testing.T) {
	M := New(readFixture(Te), nil)
	q := UniprotQuery{
		Accession:         "P12345",
		Position:          42,
		Peptide:           "AGKDE",
		PositionInPeptide: 2,
		Chain:             "A",
		Kinds:             lysNZ,
	}
	loc, err := M.MapUniprot(q)
	require.NoError(Te, err)
	require.Len(Te, loc, 1)
	assert.Equal(Te, 6, loc[0].Atom)
	assert.Equal(Te, 7, M.Structure().Atom(loc[0].Atom).ID)
	assert.Equal(Te, pdbsite.ReportKey{
		Accession: "P12345",
		PDB:       "1ABC",
		Chain:     "A",
		Residue:   'K',
		AtomKind:  "NZ",
		Position:  42,
	}, loc[0].Key)

	q.Peptide = "WWWW"
	_, err = M.MapUniprot(q)
	assert.ErrorIs(Te, err, pdbsite.ErrNotFound)

	q.Peptide = "AGKDE"
	q.Chain = "Z"
	_, err = M.MapUniprot(q)
	assert.ErrorIs(Te, err, pdbsite.ErrNotFound)

	q.Chain = "A"
	q.PositionInPeptide = 9
	_, err = M.MapUniprot(q)
	assert.ErrorIs(Te, err, pdbsite.ErrMalformed)

	//The residue exists but it has no atom of that kind.
	q.PositionInPeptide = 2
	q.Kinds = pdbsite.AtomKinds{'K': {"CE"}}
	_, err = M.MapUniprot(q)
	assert.ErrorIs(Te, err, pdbsite.ErrNotFound)
}

// KAKA: the peptide KA is at residues 1 and 3, the last one is used.
func TestLastOccurrence(Te *testing.T) {
	st := &pdbsite.Structure{ID: "2XYZ", DBRefs: []pdbsite.DBRef{{PDB: "2XYZ", Chain: "A", UniProt: "P1"}}}
	for i, r := range []string{"LYS", "ALA", "LYS", "ALA"} {
		one, _ := pdbsite.OneLetter(r)
		st.Atoms = append(st.Atoms, &pdbsite.Atom{ID: i + 1, Name: "NZ", Molname: r, Molname1: one, Chain: "A", MolID: i + 1})
	}
	M := New(st, nil)
	assert.Equal(Te, "KAKA", M.Sequence("A"))
	pos, ok := M.PDBPosition("A", "KA", 0)
	assert.True(Te, ok)
	assert.Equal(Te, 3, pos)
	loc, err := M.MapUniprot(UniprotQuery{Accession: "P1", Position: 100, Peptide: "KA", Chain: "A", Kinds: lysNZ})
	require.NoError(Te, err)
	require.Len(Te, loc, 1)
	assert.Equal(Te, 2, loc[0].Atom)
	assert.Equal(Te, 100, loc[0].Key.Position)
}

// Residue 0 is left out of the sequence, so positions still match residue numbers.
func TestResidueZero(Te *testing.T) {
	st := &pdbsite.Structure{ID: "9XYZ", DBRefs: []pdbsite.DBRef{{PDB: "9XYZ", Chain: "A", UniProt: "P1"}}}
	for i, r := range []string{"GLY", "LYS", "ALA", "LYS", "ASP"} {
		one, _ := pdbsite.OneLetter(r)
		st.Atoms = append(st.Atoms, &pdbsite.Atom{ID: i + 1, Name: "NZ", Molname: r, Molname1: one, Chain: "A", MolID: i})
	}
	M := New(st, nil)
	assert.Equal(Te, "KAKD", M.Sequence("A"))
	pos, ok := M.PDBPosition("A", "AKD", 1)
	require.True(Te, ok)
	assert.Equal(Te, 3, pos)
	loc, err := M.MapUniprot(UniprotQuery{Accession: "P1", Position: 20, Peptide: "AKD", PositionInPeptide: 1, Chain: "A", Kinds: lysNZ})
	require.NoError(Te, err)
	require.Len(Te, loc, 1)
	at := st.Atom(loc[0].Atom)
	assert.Equal(Te, "LYS", at.Molname)
	assert.Equal(Te, 3, at.MolID)

	all := M.MapStructure(StructureQuery{Chain: "A", Kinds: lysNZ})
	require.Len(Te, all, 2)
	for _, l := range all {
		assert.Equal(Te, l.Key.Position, st.Atom(l.Atom).MolID)
	}
}

func TestMapStructure(Te *testing.T) {
	M := New(readFixture(Te), nil)
	flags := pdbsite.Flags{RemoveOtherChains: true}
	loc := M.MapStructure(StructureQuery{Chain: "B", Kinds: lysNZ, Flags: flags})
	require.Len(Te, loc, 1)
	assert.Equal(Te, "", loc[0].Key.Accession)
	assert.Equal(Te, "B", loc[0].Key.Chain)
	assert.Equal(Te, 3, loc[0].Key.Position)
	assert.Equal(Te, flags, loc[0].Key.Flags)
	assert.Equal(Te, 20, M.Structure().Atom(loc[0].Atom).ID)

	all := M.MapStructure(StructureQuery{Kinds: pdbsite.AtomKinds{'K': {"NZ"}, 'C': {"SG"}}})
	assert.Len(Te, all, 4)
	seen := make(map[pdbsite.ReportKey]bool)
	for _, l := range all {
		assert.False(Te, seen[l.Key], "repeated key %s", l.Key)
		seen[l.Key] = true
	}
	assert.Nil(Te, M.MapStructure(StructureQuery{Chain: "Q", Kinds: lysNZ}))
}

func TestMemo(Te *testing.T) {
	M := New(readFixture(Te), nil)
	s1 := M.Sequence("A")
	M.AtomAt("A", 'K', "NZ", 42)
	require.Len(Te, M.seqs, 1)
	require.Len(Te, M.index, 1)
	s2 := M.Sequence("A")
	M.AtomAt("A", 'K', "NZ", 46)
	assert.Equal(Te, s1, s2)
	assert.Len(Te, M.seqs, 1)
	assert.Len(Te, M.index, 1)
	assert.Panics(Te, func() { New(nil, nil) })
}
