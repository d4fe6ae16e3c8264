/*
 * files.go, part of pdbsite.
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
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rmera/pdbsite/v3"
	"github.com/ulikunitz/xz"
)

const (
	mutationTag = "MUTATION: YES"
)

// PDBRead reads the PDB file pdbname and returns a Structure with the given id.
// If id is empty, the file name, without extensions, is used.
// Files ending in .gz, .zst or .xz are decompressed on the fly.
func PDBRead(pdbname, id string) (*Structure, error) {
	f, err := os.Open(pdbname)
	if err != nil {
		return nil, errDecorate(err, "PDBRead")
	}
	defer f.Close()
	r, closer, err := Decompressor(f, pdbname)
	if err != nil {
		return nil, errDecorate(err, "PDBRead")
	}
	defer closer()
	if id == "" {
		id = strings.SplitN(filepath.Base(pdbname), ".", 2)[0]
	}
	S, err := PDBReadFrom(r, id)
	if err != nil {
		return nil, errDecorate(err, "PDBRead "+pdbname)
	}
	return S, nil
}

// Decompressor returns a reader that decompresses r according to the
// extension of name, and a function to be called when the reader is not
// needed anymore. Unknown extensions return r unchanged.
func Decompressor(r io.Reader, name string) (io.Reader, func(), error) {
	nop := func() {}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		g, err := gzip.NewReader(r)
		if err != nil {
			return nil, nop, err
		}
		return g, func() { g.Close() }, nil
	case ".zst":
		z, err := zstd.NewReader(r)
		if err != nil {
			return nil, nop, err
		}
		return z, z.Close, nil
	case ".xz":
		x, err := xz.NewReader(r)
		if err != nil {
			return nil, nop, err
		}
		return x, nop, nil
	}
	return r, nop, nil
}

// PDBReadFrom reads a PDB-formatted stream. Only the first model is read.
// ATOM lines that can't be parsed are skipped.
func PDBReadFrom(r io.Reader, id string) (*Structure, error) {
	S := &Structure{ID: id}
	coords := make([]float64, 0, 3000)
	pdb := bufio.NewScanner(r)
	pdb.Buffer(make([]byte, 0, 1024), 1024*1024)
	for pdb.Scan() {
		line := pdb.Text()
		if strings.Contains(line, mutationTag) {
			S.Mutation = true
		}
		switch {
		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			atom, c, err := readAtomLine(line)
			if err != nil {
				continue
			}
			S.Atoms = append(S.Atoms, atom)
			coords = append(coords, c...)
		case strings.HasPrefix(line, "DBREF"):
			d, err := ParseDBRef(line)
			if err != nil {
				continue
			}
			S.DBRefs = append(S.DBRefs, d)
		case strings.HasPrefix(line, "EXPDTA") && S.Method == "":
			S.Method = strings.TrimSpace(line[len("EXPDTA"):])
		case strings.HasPrefix(line, "ENDMDL"):
			//we only read the first model
			return finishStructure(S, coords)
		}
	}
	if err := pdb.Err(); err != nil {
		return nil, errDecorate(err, "PDBReadFrom")
	}
	return finishStructure(S, coords)
}

func finishStructure(S *Structure, coords []float64) (*Structure, error) {
	if len(coords) == 0 {
		return S, nil
	}
	var err error
	S.Coords, err = v3.NewMatrix(coords)
	if err != nil {
		return nil, errDecorate(err, "PDBReadFrom")
	}
	return S, nil
}

//Parses a valid ATOM or HETATM line of a PDB file, returns an Atom
// object with the info except for the coordinates, which are returned
// separately.
func readAtomLine(line string) (*Atom, []float64, error) {
	if len(line) < 54 {
		return nil, nil, ErrMalformed
	}
	err := make([]error, 5)
	coords := make([]float64, 3)
	atom := new(Atom)
	atom.Het = strings.HasPrefix(line, "HETATM")
	atom.ID, err[0] = strconv.Atoi(strings.TrimSpace(line[6:11]))
	atom.Name = strings.TrimSpace(line[12:16])
	atom.Molname = strings.TrimSpace(line[17:20])
	atom.Molname1, _ = OneLetter(atom.Molname)
	atom.Chain = string(line[21])
	atom.MolID, err[1] = strconv.Atoi(strings.TrimSpace(line[22:26]))
	coords[0], err[2] = strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
	coords[1], err[3] = strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
	coords[2], err[4] = strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
	for i := range err {
		if err[i] != nil {
			return nil, nil, err[i]
		}
	}
	if !atom.Het && len(atom.Molname) != 3 {
		//not an aminoacid, it won't take part in sequences.
		atom.Het = true
	}
	if len(line) >= 78 {
		atom.Symbol = strings.TrimSpace(line[76:78])
		if len(atom.Symbol) == 2 {
			atom.Symbol = atom.Symbol[:1] + strings.ToLower(atom.Symbol[1:])
		}
	}
	if atom.Symbol == "" {
		atom.Symbol = symbolFromName(atom.Name)
	}
	return atom, coords, nil
}
