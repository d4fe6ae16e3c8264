/*
 * report.go, part of pdbsite.
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
	"sort"
)

// Distance is a distance between the atom of a site and another atom.
type Distance struct {
	From  Locator
	To    Locator
	Value float64
}

// Report is the result computed for an atom of a structure. It is not
// modified after creation, only collected into a ProteinReport.
// Surface is set for surface calculations, Distances for distance calculations.
type Report struct {
	PDB        string
	Accession  string //empty for reports anchored on the structure
	Position   int    //position in the protein, -1 if anchored on the structure
	Resolution *float64
	Atom       Locator
	Flags      Flags
	Mutated    bool
	Method     string
	Surface    *float64
	Distances  []Distance

	persisted bool
}

// Key returns the ReportKey identifying the report.
func (R *Report) Key() ReportKey {
	pos := R.Position
	if R.Accession == "" {
		pos = R.Atom.ResID
	}
	return ReportKey{
		Accession: R.Accession,
		PDB:       R.PDB,
		Chain:     R.Atom.Chain,
		Residue:   R.Atom.Res,
		AtomKind:  R.Atom.Name,
		Flags:     R.Flags,
		Position:  pos,
	}
}

// Persisted returns true if the report is known to be in the durable log.
func (R *Report) Persisted() bool {
	return R.persisted
}

// MarkPersisted flags the report as already present in the durable log.
func (R *Report) MarkPersisted() {
	R.persisted = true
}

// Value returns the scalar value of the report: the surface, or the shortest
// distance for distance reports. The second return is false if there is none.
func (R *Report) Value() (float64, bool) {
	if R.Surface != nil {
		return *R.Surface, true
	}
	if len(R.Distances) == 0 {
		return 0, false
	}
	min := R.Distances[0].Value
	for _, d := range R.Distances[1:] {
		if d.Value < min {
			min = d.Value
		}
	}
	return min, true
}

// ProteinReport collects the reports for a protein, by position in the
// protein sequence. For structure-anchored runs Accession is the structure ID,
// Sequence is empty and all the reports are at position -1.
type ProteinReport struct {
	Accession  string
	Sequence   string
	byPosition map[int][]*Report
	keys       map[ReportKey]bool
}

// NewProteinReport returns an empty ProteinReport.
func NewProteinReport(acc, seq string) *ProteinReport {
	return &ProteinReport{
		Accession:  acc,
		Sequence:   seq,
		byPosition: make(map[int][]*Report),
		keys:       make(map[ReportKey]bool),
	}
}

// Add adds the report to the collection. It returns false, and does nothing,
// if a report with the same key was already there.
func (P *ProteinReport) Add(R *Report) bool {
	k := R.Key()
	if P.keys[k] {
		return false
	}
	P.keys[k] = true
	P.byPosition[R.Position] = append(P.byPosition[R.Position], R)
	return true
}

// HasPosition returns true if there is at least one report for position pos.
func (P *ProteinReport) HasPosition(pos int) bool {
	return len(P.byPosition[pos]) > 0
}

// Positions returns the positions with reports, in increasing order.
func (P *ProteinReport) Positions() []int {
	ret := make([]int, 0, len(P.byPosition))
	for k := range P.byPosition {
		ret = append(ret, k)
	}
	sort.Ints(ret)
	return ret
}

// At returns the reports for the position pos.
func (P *ProteinReport) At(pos int) []*Report {
	return P.byPosition[pos]
}

// Reports returns all the reports, ordered by position and then by key.
func (P *ProteinReport) Reports() []*Report {
	ret := make([]*Report, 0, len(P.keys))
	for _, pos := range P.Positions() {
		r := append([]*Report(nil), P.byPosition[pos]...)
		sort.SliceStable(r, func(i, j int) bool { return r[i].Key().Less(r[j].Key()) })
		ret = append(ret, r...)
	}
	return ret
}

// ByPDB returns the reports grouped by structure ID.
func (P *ProteinReport) ByPDB() map[string][]*Report {
	ret := make(map[string][]*Report)
	for _, r := range P.Reports() {
		ret[r.PDB] = append(ret[r.PDB], r)
	}
	return ret
}

// Len returns the number of reports.
func (P *ProteinReport) Len() int {
	return len(P.keys)
}

// Empty returns true if there are no reports.
func (P *ProteinReport) Empty() bool {
	return len(P.keys) == 0
}
