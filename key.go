/*
 * key.go, part of pdbsite.
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
	"strconv"
	"strings"
)

const keySep = '|'

// ReportKey is the identity of a computed Report. Two queries with equal keys
// always resolve to the same Report. Position is the position in the protein.
// An empty Accession means the query was anchored on the structure, and then
// Position is the residue number in the structure.
// ReportKey is comparable, so it can be used directly as a map key.
type ReportKey struct {
	Accession string
	PDB       string
	Chain     string
	Residue   byte
	AtomKind  string
	Flags     Flags
	Position  int
}

// String returns a serialization of the key that can be parsed back by
// ParseReportKey. Fields are joined by '|', and any '|', tab, newline or
// backslash inside a field is escaped, so accessions containing the
// separator can't collide.
func (K ReportKey) String() string {
	fields := []string{
		K.Accession,
		K.PDB,
		K.Chain,
		string([]byte{K.Residue}),
		K.AtomKind,
		strconv.FormatBool(K.Flags.RemoveOtherChains),
		strconv.FormatBool(K.Flags.RemoveOtherMolecules),
		strconv.Itoa(K.Position),
	}
	for i, v := range fields {
		fields[i] = escapeKeyField(v)
	}
	return strings.Join(fields, string(keySep))
}

// Less orders keys by their serialization.
func (K ReportKey) Less(o ReportKey) bool {
	return K.String() < o.String()
}

// ParseReportKey is the inverse of ReportKey.String.
func ParseReportKey(s string) (ReportKey, error) {
	fields, err := splitKey(s)
	if err != nil {
		return ReportKey{}, fmt.Errorf("ParseReportKey: %q: %w", s, err)
	}
	if len(fields) != 8 || len(fields[3]) != 1 {
		return ReportKey{}, fmt.Errorf("ParseReportKey: %q: %w", s, ErrMalformed)
	}
	K := ReportKey{
		Accession: fields[0],
		PDB:       fields[1],
		Chain:     fields[2],
		Residue:   fields[3][0],
		AtomKind:  fields[4],
	}
	if K.Flags.RemoveOtherChains, err = strconv.ParseBool(fields[5]); err != nil {
		return ReportKey{}, fmt.Errorf("ParseReportKey: %q: %w", s, ErrMalformed)
	}
	if K.Flags.RemoveOtherMolecules, err = strconv.ParseBool(fields[6]); err != nil {
		return ReportKey{}, fmt.Errorf("ParseReportKey: %q: %w", s, ErrMalformed)
	}
	if K.Position, err = strconv.Atoi(fields[7]); err != nil {
		return ReportKey{}, fmt.Errorf("ParseReportKey: %q: %w", s, ErrMalformed)
	}
	return K, nil
}

func escapeKeyField(s string) string {
	if !strings.ContainsAny(s, "\\|\t\n") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			sb.WriteString(`\\`)
		case keySep:
			sb.WriteString(`\p`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func splitKey(s string) ([]string, error) {
	fields := make([]string, 0, 8)
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == keySep:
			fields = append(fields, cur.String())
			cur.Reset()
		case c == '\\':
			i++
			if i >= len(s) {
				return nil, ErrMalformed
			}
			switch s[i] {
			case '\\':
				cur.WriteByte('\\')
			case 'p':
				cur.WriteByte(keySep)
			case 't':
				cur.WriteByte('\t')
			case 'n':
				cur.WriteByte('\n')
			default:
				return nil, ErrMalformed
			}
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())
	return fields, nil
}
