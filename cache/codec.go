/*
 * codec.go, part of pdbsite.
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

package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rmera/pdbsite"
	"github.com/rmera/pdbsite/geometry"
)

// none is written for absent values.
const none = "-"

var baseHeader = []string{
	"pdb_ID", "uniprot_ACC", "position_in_uniprot", "resolution",
	"atom_number", "atom_type", "chain_id", "position_in_PDB", "AA", "x", "y", "z",
	"OtherChainsRemoved", "OtherMoleculesRemoved", "Mutated", "Method",
}

var atomHeader = baseHeader[4:12]

const keyColumn = "report_key"

// Header returns the column names of the log for the kind.
func Header(kind geometry.Kind) []string {
	ret := append([]string(nil), baseHeader...)
	if kind == geometry.Distance {
		ret = append(ret, "Distance (A)")
		ret = append(ret, atomHeader...)
		ret = append(ret, atomHeader...)
	} else {
		ret = append(ret, "Surface_accessibility")
	}
	return append(ret, keyColumn)
}

// escape is put before values that would otherwise read back as something else.
const escape = `\`

func orNone(s string) string {
	if s == "" {
		return none
	}
	if s == none || strings.HasPrefix(s, escape) {
		return escape + s
	}
	return s
}

func fromNone(s string) string {
	if s == none {
		return ""
	}
	return strings.TrimPrefix(s, escape)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatOptFloat(f *float64) string {
	if f == nil {
		return none
	}
	return formatFloat(*f)
}

func parseOptFloat(s string) (*float64, error) {
	if s == none || s == "" || s == "null" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func atomFields(l pdbsite.Locator) []string {
	ret := []string{
		strconv.Itoa(l.ID),
		l.Name,
		l.Chain,
		strconv.Itoa(l.ResID),
		string([]byte{l.Res}),
	}
	if len(l.Coords) != 3 {
		return append(ret, none, none, none)
	}
	for _, c := range l.Coords {
		ret = append(ret, formatFloat(c))
	}
	return ret
}

func parseAtom(f []string) (pdbsite.Locator, error) {
	var l pdbsite.Locator
	var err error
	if l.ID, err = strconv.Atoi(f[0]); err != nil {
		return l, err
	}
	l.Name = f[1]
	l.Chain = f[2]
	if l.ResID, err = strconv.Atoi(f[3]); err != nil {
		return l, err
	}
	if len(f[4]) != 1 {
		return l, fmt.Errorf("residue %q", f[4])
	}
	l.Res = f[4][0]
	if f[5] == none {
		return l, nil
	}
	l.Coords = make([]float64, 3)
	for i := range l.Coords {
		if l.Coords[i], err = strconv.ParseFloat(f[5+i], 64); err != nil {
			return l, err
		}
	}
	return l, nil
}

// encode returns the log rows for R. Distance reports give one row
// per distance.
func encode(R *pdbsite.Report, kind geometry.Kind) [][]string {
	base := []string{
		R.PDB,
		orNone(R.Accession),
		strconv.Itoa(R.Position),
		formatOptFloat(R.Resolution),
	}
	base = append(base, atomFields(R.Atom)...)
	base = append(base,
		strconv.FormatBool(R.Flags.RemoveOtherChains),
		strconv.FormatBool(R.Flags.RemoveOtherMolecules),
		strconv.FormatBool(R.Mutated),
		orNone(R.Method),
	)
	key := R.Key().String()
	if kind != geometry.Distance {
		row := append(base, formatOptFloat(R.Surface), key)
		return [][]string{row}
	}
	ret := make([][]string, 0, len(R.Distances))
	for _, d := range R.Distances {
		row := append([]string(nil), base...)
		row = append(row, formatFloat(d.Value))
		row = append(row, atomFields(d.From)...)
		row = append(row, atomFields(d.To)...)
		ret = append(ret, append(row, key))
	}
	return ret
}

// decode parses a log row. The returned report has the key stored in the row.
func decode(f []string, kind geometry.Kind) (*pdbsite.Report, error) {
	if len(f) != len(Header(kind)) {
		return nil, fmt.Errorf("%d columns, %d expected: %w", len(f), len(Header(kind)), pdbsite.ErrMalformed)
	}
	malformed := func(err error) (*pdbsite.Report, error) {
		return nil, fmt.Errorf("%v: %w", err, pdbsite.ErrMalformed)
	}
	R := &pdbsite.Report{PDB: f[0], Accession: fromNone(f[1]), Method: fromNone(f[15])}
	var err error
	if R.Position, err = strconv.Atoi(f[2]); err != nil {
		return malformed(err)
	}
	if R.Resolution, err = parseOptFloat(f[3]); err != nil {
		return malformed(err)
	}
	if R.Atom, err = parseAtom(f[4:12]); err != nil {
		return malformed(err)
	}
	bools := make([]bool, 3)
	for i := range bools {
		if bools[i], err = strconv.ParseBool(f[12+i]); err != nil {
			return malformed(err)
		}
	}
	R.Flags = pdbsite.Flags{RemoveOtherChains: bools[0], RemoveOtherMolecules: bools[1]}
	R.Mutated = bools[2]
	if kind == geometry.Distance {
		var d pdbsite.Distance
		if d.Value, err = strconv.ParseFloat(f[16], 64); err != nil {
			return malformed(err)
		}
		if d.From, err = parseAtom(f[17:25]); err != nil {
			return malformed(err)
		}
		if d.To, err = parseAtom(f[25:33]); err != nil {
			return malformed(err)
		}
		R.Distances = []pdbsite.Distance{d}
	} else if R.Surface, err = parseOptFloat(f[16]); err != nil {
		return malformed(err)
	}
	key, err := pdbsite.ParseReportKey(f[len(f)-1])
	if err != nil {
		return nil, err
	}
	if key != R.Key() {
		return nil, fmt.Errorf("row does not match its key %s: %w", strings.TrimSpace(f[len(f)-1]), pdbsite.ErrMalformed)
	}
	return R, nil
}
