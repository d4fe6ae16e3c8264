/*
 * write.go, part of pdbsite.
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

package sitesio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rmera/pdbsite"
)

// PeptideHeader is the header of the per-peptide reports.
var PeptideHeader = []string{"Peptide_seq", "Position_in_peptide", "Ratio", "Uniprot_ACC", "Position_in_uniprot",
	"PDB_ID", "Chain", "Position_in_PDB", "Resolution", "Value"}

// StructureHeader is the header of the reports of whole structures.
var StructureHeader = []string{"PDB_ID", "Chain", "Position_in_PDB", "AA", "Atom", "Resolution", "Value"}

// infinite ratios are written as +-1000.
const infRatio = 1000

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatRatio(r *float64) string {
	switch {
	case r == nil:
		return ""
	case math.IsInf(*r, 1):
		return strconv.Itoa(infRatio)
	case math.IsInf(*r, -1):
		return strconv.Itoa(-infRatio)
	}
	return formatFloat(*r)
}

func formatOpt(f *float64) string {
	if f == nil {
		return "-"
	}
	return formatFloat(*f)
}

func value(R *pdbsite.Report) string {
	v, ok := R.Value()
	if !ok {
		return "-"
	}
	return formatFloat(v)
}

// best returns the report with the largest value among reports, or nil if
// none has a value.
func best(reports []*pdbsite.Report) *pdbsite.Report {
	var ret *pdbsite.Report
	max := math.Inf(-1)
	for _, R := range reports {
		if v, ok := R.Value(); ok && v > max {
			max = v
			ret = R
		}
	}
	return ret
}

// Writer writes report lines as tab-separated values.
type Writer struct {
	w      *csv.Writer
	header []string
	wrote  bool
}

// NewWriter returns a Writer to w. The header is written before the first line.
func NewWriter(w io.Writer, header []string) *Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return &Writer{w: cw, header: header}
}

func (W *Writer) write(rec []string) error {
	if !W.wrote {
		W.wrote = true
		if err := W.w.Write(W.header); err != nil {
			return err
		}
	}
	return W.w.Write(rec)
}

// Flush writes any buffered data and returns the first error found.
func (W *Writer) Flush() error {
	if !W.wrote {
		W.wrote = true
		W.w.Write(W.header)
	}
	W.w.Flush()
	return W.w.Error()
}

// WriteProteinReports writes a line for each report of agg at a site of
// one of the peptides. Sites are the residues of the peptide with a type in
// kinds, at every place the peptide is found in the protein. If onlyBest is
// true, only the report with the largest value is written for each site.
// It returns the number of lines written.
func (W *Writer) WriteProteinReports(peptides []Peptide, agg *pdbsite.ProteinReport, kinds pdbsite.AtomKinds, onlyBest bool) (int, error) {
	if agg == nil {
		return 0, nil
	}
	n := 0
	for _, p := range peptides {
		for from := 0; ; {
			i := strings.Index(agg.Sequence[from:], p.Sequence)
			if i < 0 || p.Sequence == "" {
				break
			}
			start := from + i
			from = start + 1
			for j := 0; j < len(p.Sequence); j++ {
				if !kinds.Has(p.Sequence[j]) {
					continue
				}
				reports := agg.At(start + j + 1)
				if onlyBest {
					if b := best(reports); b != nil {
						reports = []*pdbsite.Report{b}
					} else {
						reports = nil
					}
				}
				for _, R := range reports {
					rec := []string{p.Sequence, strconv.Itoa(j + 1), formatRatio(p.Ratio), R.Accession,
						strconv.Itoa(R.Position), R.PDB, R.Atom.Chain, strconv.Itoa(R.Atom.ResID),
						formatOpt(R.Resolution), value(R)}
					if err := W.write(rec); err != nil {
						return n, fmt.Errorf("WriteProteinReports: %w", err)
					}
					n++
				}
			}
		}
	}
	return n, nil
}

// WriteStructureReports writes a line for each report of agg, which holds
// reports anchored on a structure.
func (W *Writer) WriteStructureReports(agg *pdbsite.ProteinReport) (int, error) {
	if agg == nil {
		return 0, nil
	}
	n := 0
	for _, R := range agg.Reports() {
		rec := []string{R.PDB, R.Atom.Chain, strconv.Itoa(R.Atom.ResID), string(R.Atom.Res), R.Atom.Name,
			formatOpt(R.Resolution), value(R)}
		if err := W.write(rec); err != nil {
			return n, fmt.Errorf("WriteStructureReports: %w", err)
		}
		n++
	}
	return n, nil
}
