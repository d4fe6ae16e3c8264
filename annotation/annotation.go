/*
 * annotation.go, part of pdbsite.
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

// Package annotation obtains, for protein accessions, the reference sequence
// and the cross references to structures. Results can be kept in a local
// badger database, so later runs don't need the network.
package annotation

import (
	"context"

	"github.com/rmera/pdbsite/resolve"
)

// Entry is the annotation of one protein.
type Entry struct {
	Accession string             `json:"accession"`
	Sequence  string             `json:"sequence"`
	CrossRefs []resolve.CrossRef `json:"crossRefs"`
}

// Service annotates accessions. Accessions that can't be annotated are
// absent from the returned map; an error is returned only when the service
// as a whole failed. version selects a release of the annotation data,
// an empty version means the latest.
type Service interface {
	Annotate(ctx context.Context, version string, accs ...string) (map[string]*Entry, error)
}

// Static is a Service with a fixed set of entries, keyed by accession.
type Static map[string]*Entry

// Annotate returns the entries present in S. version is ignored.
func (S Static) Annotate(ctx context.Context, version string, accs ...string) (map[string]*Entry, error) {
	ret := make(map[string]*Entry, len(accs))
	for _, acc := range accs {
		if e, ok := S[acc]; ok {
			ret[acc] = e
		}
	}
	return ret, nil
}

func unique(accs []string) []string {
	seen := make(map[string]bool, len(accs))
	ret := make([]string, 0, len(accs))
	for _, a := range accs {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		ret = append(ret, a)
	}
	return ret
}
