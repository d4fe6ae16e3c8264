/*
 * mapper.go, part of pdbsite.
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

// Package mapper finds, in a chain of a structure, the atoms that correspond
// to a position of a protein or to a type of residue.
package mapper

import (
	"fmt"
	"strings"

	"github.com/rmera/pdbsite"
	"github.com/sirupsen/logrus"
)

// Located is an atom of the structure, identified by its index, together with
// the key of the report that will be computed for it.
type Located struct {
	Key  pdbsite.ReportKey
	Atom int
}

// UniprotQuery asks for the atoms of the residue at Position of the protein
// Accession, found through the Peptide that contains it.
type UniprotQuery struct {
	Accession         string
	Position          int //in the protein
	Peptide           string
	PositionInPeptide int //0-based
	Chain             string
	Kinds             pdbsite.AtomKinds
	Flags             pdbsite.Flags
}

// StructureQuery asks for the atoms of every residue in Kinds, in Chain, or in
// all the chains of the structure if Chain is empty.
type StructureQuery struct {
	Chain string
	Kinds pdbsite.AtomKinds
	Flags pdbsite.Flags
}

// Mapper maps queries to atoms of a structure. Sequences and atom indexes are
// built once per chain and reused.
type Mapper struct {
	st    *pdbsite.Structure
	log   *logrus.Logger
	seqs  map[string]string
	index map[string]map[int][]int
}

// New returns a Mapper for st.
func New(st *pdbsite.Structure, log *logrus.Logger) *Mapper {
	if st == nil {
		panic(pdbsite.ErrNilStructure)
	}
	if log == nil {
		log = logrus.New()
	}
	return &Mapper{
		st:    st,
		log:   log,
		seqs:  make(map[string]string),
		index: make(map[string]map[int][]int),
	}
}

// Structure returns the structure the mapper works on.
func (M *Mapper) Structure() *pdbsite.Structure {
	return M.st
}

// Sequence returns the reconstructed sequence of the chain. See
// pdbsite.Structure.Sequence.
func (M *Mapper) Sequence(chain string) string {
	if s, ok := M.seqs[chain]; ok {
		return s
	}
	s := M.st.Sequence(chain)
	M.seqs[chain] = s
	return s
}

// byPosition returns the atoms of the chain indexed by residue number.
func (M *Mapper) byPosition(chain string) map[int][]int {
	if idx, ok := M.index[chain]; ok {
		return idx
	}
	idx := make(map[int][]int)
	low := 0
	for i, at := range M.st.Atoms {
		if at.Het || at.Chain != chain {
			continue
		}
		if at.MolID < 1 {
			low++
		}
		idx[at.MolID] = append(idx[at.MolID], i)
	}
	if low > 0 {
		M.log.WithFields(logrus.Fields{"pdb": M.st.ID, "chain": chain, "atoms": low}).Debug("Residues numbered below 1 are not in the chain sequence")
	}
	M.index[chain] = idx
	return idx
}

// AtomAt returns the index of the atom of the given kind, in the residue aa at
// structure position pos of the chain.
func (M *Mapper) AtomAt(chain string, aa byte, kind string, pos int) (int, bool) {
	for _, i := range M.byPosition(chain)[pos] {
		at := M.st.Atoms[i]
		if at.Molname1 == aa && at.Name == kind {
			return i, true
		}
	}
	return -1, false
}

// PDBPosition returns the structure position of the residue at
// positionInPeptide of peptide, in the chain. If the peptide appears
// more than once in the chain, the last occurrence is used.
func (M *Mapper) PDBPosition(chain, peptide string, positionInPeptide int) (int, bool) {
	seq := M.Sequence(chain)
	if seq == "" || peptide == "" {
		return 0, false
	}
	i := strings.LastIndex(seq, peptide)
	if i < 0 {
		return 0, false
	}
	return i + 1 + positionInPeptide, true
}

// MapUniprot returns the atoms for a residue of a protein. The chain must have
// a DBREF record and its sequence must contain the peptide; otherwise nothing
// is returned. Each atom kind is tried independently. The error wraps
// pdbsite.ErrNotFound when nothing could be mapped.
func (M *Mapper) MapUniprot(q UniprotQuery) ([]Located, error) {
	fields := logrus.Fields{"pdb": M.st.ID, "chain": q.Chain, "accession": q.Accession, "position": q.Position}
	dbref, ok := M.st.DBRef(q.Chain)
	if !ok {
		M.log.WithFields(fields).Debug("Chain not found in structure")
		return nil, fmt.Errorf("MapUniprot: chain %s of %s: %w", q.Chain, M.st.ID, pdbsite.ErrNotFound)
	}
	chain := dbref.Chain
	if q.PositionInPeptide < 0 || q.PositionInPeptide >= len(q.Peptide) {
		return nil, fmt.Errorf("MapUniprot: position %d out of peptide %s: %w", q.PositionInPeptide, q.Peptide, pdbsite.ErrMalformed)
	}
	pos, ok := M.PDBPosition(chain, q.Peptide, q.PositionInPeptide)
	if !ok {
		M.log.WithFields(fields).WithField("peptide", q.Peptide).Debug("Peptide not found in chain sequence")
		return nil, fmt.Errorf("MapUniprot: peptide %s in %s chain %s: %w", q.Peptide, M.st.ID, chain, pdbsite.ErrNotFound)
	}
	aa := q.Peptide[q.PositionInPeptide]
	ret := make([]Located, 0, len(q.Kinds[aa]))
	for _, kind := range q.Kinds[aa] {
		i, ok := M.AtomAt(chain, aa, kind, pos)
		if !ok {
			M.log.WithFields(fields).WithFields(logrus.Fields{"aa": string(aa), "kind": kind, "pdbPosition": pos}).Debug("Atom not found")
			continue
		}
		ret = append(ret, Located{
			Key: pdbsite.ReportKey{
				Accession: q.Accession,
				PDB:       M.st.ID,
				Chain:     chain,
				Residue:   aa,
				AtomKind:  kind,
				Flags:     q.Flags,
				Position:  q.Position,
			},
			Atom: i,
		})
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("MapUniprot: no atoms at %s chain %s position %d: %w", M.st.ID, chain, pos, pdbsite.ErrNotFound)
	}
	return ret, nil
}

// MapStructure returns the atoms of every residue of the types in q.Kinds,
// without any reference to a protein. The keys have an empty accession and
// carry the structure position.
func (M *Mapper) MapStructure(q StructureQuery) []Located {
	chains := M.st.Chains()
	if q.Chain != "" {
		d, ok := M.st.DBRef(q.Chain)
		if !ok {
			M.log.WithFields(logrus.Fields{"pdb": M.st.ID, "chain": q.Chain}).Debug("Chain not found in structure")
			return nil
		}
		chains = []string{d.Chain}
	}
	ret := make([]Located, 0, 10)
	for _, chain := range chains {
		seq := M.Sequence(chain)
		if seq == "" {
			M.log.WithFields(logrus.Fields{"pdb": M.st.ID, "chain": chain}).Warn("Protein sequence for chain was not obtained")
			continue
		}
		for _, aa := range q.Kinds.Residues() {
			for i := 0; i < len(seq); i++ {
				if seq[i] != aa {
					continue
				}
				pos := i + 1
				for _, kind := range q.Kinds[aa] {
					at, ok := M.AtomAt(chain, aa, kind, pos)
					if !ok {
						M.log.WithFields(logrus.Fields{"pdb": M.st.ID, "chain": chain, "aa": string(aa), "kind": kind, "pdbPosition": pos}).Debug("Atom not found")
						continue
					}
					ret = append(ret, Located{
						Key: pdbsite.ReportKey{
							PDB:      M.st.ID,
							Chain:    chain,
							Residue:  aa,
							AtomKind: kind,
							Flags:    q.Flags,
							Position: pos,
						},
						Atom: at,
					})
				}
			}
		}
	}
	return ret
}
