/*
 * resolve.go, part of pdbsite.
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

// Package resolve finds the chains of experimental structures that cover a
// position of a protein, from the cross-references of the protein.
package resolve

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rmera/pdbsite"
	"github.com/sirupsen/logrus"
)

// Names of the cross-reference type and properties used.
const (
	PDBType            = "PDB"
	ResolutionProperty = "resolution"
	ChainsProperty     = "chains"
)

// CrossRef is a cross-reference of a protein to an external database entry.
type CrossRef struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties,omitempty"`
}

// ParseResolution parses a resolution given as "1.9" or as "2.70 A".
// Anything else gives nil.
func ParseResolution(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &f
	}
	if strings.HasSuffix(s, " A") {
		if f, err := strconv.ParseFloat(strings.Fields(s)[0], 64); err == nil {
			return &f
		}
	}
	return nil
}

// ParseChains parses a chain string such as "A/B=10-20,C=5-9" into one Chain
// per chain ID. IDs separated by "/" share the same range. Segments without
// "=", or with an empty or malformed range, are skipped.
func ParseChains(pdb, s string, resolution *float64) []pdbsite.Chain {
	ret := make([]pdbsite.Chain, 0, 2)
	for _, seg := range strings.Split(s, ",") {
		ids, rng, ok := strings.Cut(seg, "=")
		if !ok {
			continue
		}
		start, end, ok := parseRange(rng)
		if !ok {
			continue
		}
		for _, id := range strings.Split(ids, "/") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			ret = append(ret, pdbsite.Chain{
				PDB:        strings.TrimSpace(pdb),
				ID:         id,
				Start:      start,
				End:        end,
				Resolution: resolution,
			})
		}
	}
	return ret
}

func parseRange(s string) (int, int, bool) {
	s = strings.TrimSpace(s)
	a, b, ok := strings.Cut(s, "-")
	if !ok || s == "-" {
		return 0, 0, false
	}
	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, false
	}
	end, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// Resolver turns the cross-references of a protein into ranked chains.
type Resolver struct {
	Log *logrus.Logger
}

// New returns a Resolver that logs to log, or to a new logrus logger if log is nil.
func New(log *logrus.Logger) *Resolver {
	if log == nil {
		log = logrus.New()
	}
	return &Resolver{Log: log}
}

// Resolve returns the chains, among the PDB cross-references in refs, that
// contain the protein position pos, ranked by resolution. If pinned is not
// empty, only chains of that structure are considered. The number of PDB
// cross-references seen is added to sess. An empty slice means there is no
// structure for the position.
func (R *Resolver) Resolve(sess *pdbsite.Session, refs []CrossRef, pinned string, pos int) []pdbsite.Chain {
	ret := make([]pdbsite.Chain, 0, 4)
	npdb := 0
	for _, ref := range refs {
		if ref.Type != PDBType {
			continue
		}
		npdb++
		if pinned != "" && ref.ID != pinned {
			continue
		}
		chainstr, ok := ref.Properties[ChainsProperty]
		if !ok {
			continue
		}
		res := ParseResolution(ref.Properties[ResolutionProperty])
		for _, c := range ParseChains(ref.ID, chainstr, res) {
			if c.Contains(pos) {
				ret = append(ret, c)
			}
		}
	}
	if sess != nil {
		sess.CountPDBs(npdb)
	}
	if len(ret) == 0 {
		R.Log.WithFields(logrus.Fields{"position": pos, "pdbRefs": npdb}).Debug("No PDB structures for position")
		return ret
	}
	Rank(ret)
	return ret
}

// Rank sorts chains so the largest resolution values come first and the
// chains with unknown resolution come last. The sort is stable.
func Rank(chains []pdbsite.Chain) {
	val := func(c pdbsite.Chain) float64 {
		if c.Resolution == nil {
			return -1
		}
		return *c.Resolution
	}
	sort.SliceStable(chains, func(i, j int) bool {
		return val(chains[i]) > val(chains[j])
	})
}
