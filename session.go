/*
 * session.go, part of pdbsite.
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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Session holds the state shared by the components during a batch run: the
// structures that could not be fetched, the structures already parsed and the
// number of candidate structures examined per protein. A Session is not safe
// for concurrent use.
type Session struct {
	unfetchable map[string]bool
	structures  map[string]*Structure
	pdbCounts   []float64
}

// NewSession returns an empty Session.
func NewSession() *Session {
	return &Session{
		unfetchable: make(map[string]bool),
		structures:  make(map[string]*Structure),
	}
}

// MarkUnfetchable records that the structure id could not be obtained.
func (S *Session) MarkUnfetchable(id string) {
	S.unfetchable[id] = true
}

// Unfetchable returns true if the structure id failed to be obtained earlier
// in the session.
func (S *Session) Unfetchable(id string) bool {
	return S.unfetchable[id]
}

// Structure returns the parsed structure id, if it was parsed in this session.
func (S *Session) Structure(id string) (*Structure, bool) {
	st, ok := S.structures[id]
	return st, ok
}

// SetStructure keeps the parsed structure for the rest of the session.
func (S *Session) SetStructure(st *Structure) {
	S.structures[st.ID] = st
}

// ClearStructures forgets the parsed structures, but not the unfetchable ones.
func (S *Session) ClearStructures() {
	S.structures = make(map[string]*Structure)
}

// CountPDBs adds the number of PDB cross-references examined for a protein.
func (S *Session) CountPDBs(n int) {
	S.pdbCounts = append(S.pdbCounts, float64(n))
}

// Stats returns a summary of the PDB cross-references examined per protein.
func (S *Session) Stats() string {
	n := len(S.pdbCounts)
	if n == 0 {
		return "0 proteins analyzed"
	}
	mean, std := stat.MeanStdDev(S.pdbCounts, nil)
	if n == 1 {
		std = 0
	}
	return fmt.Sprintf("%d proteins analyzed\n%g total PDB structures matched\n%.2f(%.2f) structures matched per protein in average (stdev). Max=%g",
		n, floats.Sum(S.pdbCounts), mean, std, floats.Max(S.pdbCounts))
}
