/*
 * read.go, part of pdbsite.
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

// Package sitesio reads the peptide files given as input and writes the
// per-peptide reports.
package sitesio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/klauspost/compress/gzip"
	"github.com/rmera/pdbsite"
	"github.com/sirupsen/logrus"
)

// ColumnConfig describes an input file. Column indexes start at 0, a
// negative index means the column is absent. The sequence and accession
// columns are required.
type ColumnConfig struct {
	Sequence   int
	Ratio      int
	Accession  int
	SkipHeader bool
	Separator  rune //'\t' if 0
	Logger     *logrus.Logger
}

// Peptide is a row of an input file.
type Peptide struct {
	Sequence   string
	Ratio      *float64
	Accessions []string
}

// CleanSequence removes from a peptide sequence the flanking residues
// ("K.PEPTIDE.R"), and the modifications written between brackets or
// parentheses, or as any other character that is not a letter.
func CleanSequence(seq string) string {
	if n := len(seq); n > 4 && seq[1] == '.' && seq[n-2] == '.' {
		seq = seq[2 : n-2]
	}
	var b strings.Builder
	depth := 0
	for _, r := range seq {
		switch r {
		case '(', '[', '{':
			depth++
			continue
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth == 0 && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// parseRatio reads a ratio. Infinite ratios may be written with a leading
// quote, as spreadsheets export them. An empty field is a missing ratio.
func parseRatio(s string) (*float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "'")
	if s == "" {
		return nil, nil
	}
	var r float64
	switch strings.ToLower(s) {
	case "infinity", "+infinity", "inf":
		r = math.Inf(1)
	case "-infinity", "-inf":
		r = math.Inf(-1)
	default:
		var err error
		r, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &readCloser{Reader: gz, close: func() error {
		gz.Close()
		return f.Close()
	}}, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }

// ReadPeptides reads the peptides in the file at path, which can be
// gzipped if its name ends in .gz. A sequence field with several sequences
// separated by "_" gives one peptide per sequence. Accessions separated by
// ";" are read as several proteins. Rows without an accession are dropped
// with a warning.
func ReadPeptides(path string, cfg ColumnConfig) ([]Peptide, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Separator == 0 {
		cfg.Separator = '\t'
	}
	if cfg.Sequence < 0 || cfg.Accession < 0 {
		return nil, fmt.Errorf("ReadPeptides: sequence and accession columns are required: %w", pdbsite.ErrMalformed)
	}
	f, err := openInput(path)
	if err != nil {
		return nil, fmt.Errorf("ReadPeptides: %w", err)
	}
	defer f.Close()
	return readPeptides(f, cfg)
}

func readPeptides(in io.Reader, cfg ColumnConfig) ([]Peptide, error) {
	r := csv.NewReader(in)
	r.Comma = cfg.Separator
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	ret := make([]Peptide, 0, 100)
	dropped := 0
	for row := 1; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ReadPeptides: row %d: %w", row, err)
		}
		if row == 1 && cfg.SkipHeader {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		need := max(cfg.Sequence, cfg.Ratio, cfg.Accession)
		if len(rec) <= need {
			return nil, fmt.Errorf("ReadPeptides: row %d has %d columns, %d needed: %w", row, len(rec), need+1, pdbsite.ErrMalformed)
		}
		var ratio *float64
		if cfg.Ratio >= 0 {
			ratio, err = parseRatio(rec[cfg.Ratio])
			if err != nil {
				return nil, fmt.Errorf("ReadPeptides: row %d: ratio %q: %w", row, rec[cfg.Ratio], pdbsite.ErrMalformed)
			}
		}
		accs := make([]string, 0, 1)
		for _, a := range strings.Split(rec[cfg.Accession], ";") {
			if a = strings.TrimSpace(a); a != "" {
				accs = append(accs, a)
			}
		}
		if len(accs) == 0 {
			dropped++
			cfg.Logger.WithFields(logrus.Fields{"row": row, "peptide": rec[cfg.Sequence]}).Warn("Peptide without protein accession dropped")
			continue
		}
		for _, s := range strings.Split(rec[cfg.Sequence], "_") {
			s = CleanSequence(s)
			if s == "" {
				continue
			}
			ret = append(ret, Peptide{Sequence: s, Ratio: ratio, Accessions: accs})
		}
	}
	cfg.Logger.WithFields(logrus.Fields{"peptides": len(ret), "dropped": dropped}).Info("Input read")
	return ret, nil
}

// ByProtein groups the peptides by protein accession.
func ByProtein(peptides []Peptide) map[string][]Peptide {
	ret := make(map[string][]Peptide)
	for _, p := range peptides {
		for _, acc := range p.Accessions {
			ret[acc] = append(ret[acc], p)
		}
	}
	return ret
}

// Sequences returns, per protein, the distinct sequences of its peptides
// in the order they were first read.
func Sequences(peptides []Peptide) map[string][]string {
	ret := make(map[string][]string)
	seen := make(map[string]bool)
	for _, p := range peptides {
		for _, acc := range p.Accessions {
			k := acc + "|" + p.Sequence
			if seen[k] {
				continue
			}
			seen[k] = true
			ret[acc] = append(ret[acc], p.Sequence)
		}
	}
	return ret
}
