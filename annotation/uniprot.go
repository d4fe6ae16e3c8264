/*
 * uniprot.go, part of pdbsite.
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

package annotation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rmera/pdbsite"
	"github.com/rmera/pdbsite/resolve"
	"github.com/sirupsen/logrus"
)

// DefaultURL is the UniProt REST endpoint for single entries.
const DefaultURL = "https://rest.uniprot.org/uniprotkb/%s.json"

// uniprotEntry is the part of a UniProtKB JSON entry we use.
type uniprotEntry struct {
	PrimaryAccession string `json:"primaryAccession"`
	Sequence         struct {
		Value string `json:"value"`
	} `json:"sequence"`
	CrossReferences []struct {
		Database   string `json:"database"`
		ID         string `json:"id"`
		Properties []struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		} `json:"properties"`
	} `json:"uniProtKBCrossReferences"`
}

// UniprotClient is a Service that queries the UniProt REST API.
type UniprotClient struct {
	URL      string //with a %s for the accession
	Client   *http.Client
	Log      *logrus.Logger
	Parallel int //simultaneous requests
}

// NewUniprotClient returns a client for url, or DefaultURL if url is empty.
func NewUniprotClient(url string, log *logrus.Logger) *UniprotClient {
	if url == "" {
		url = DefaultURL
	}
	if log == nil {
		log = logrus.New()
	}
	return &UniprotClient{URL: url, Client: &http.Client{Timeout: 60 * time.Second}, Log: log, Parallel: 4}
}

// Annotate fetches the entries for accs. Failures for single accessions are
// logged and the accession is left out. version is only recorded in the logs,
// the REST endpoint always serves the current release.
func (U *UniprotClient) Annotate(ctx context.Context, version string, accs ...string) (map[string]*Entry, error) {
	accs = unique(accs)
	ret := make(map[string]*Entry, len(accs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	par := U.Parallel
	if par <= 0 {
		par = 1
	}
	sem := make(chan struct{}, par)
	for _, acc := range accs {
		acc := acc
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return ret, ctx.Err()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			e, err := U.entry(ctx, acc)
			if err != nil {
				U.Log.WithFields(logrus.Fields{"accession": acc, "version": version}).Warnf("Annotation not retrieved: %v", err)
				return
			}
			mu.Lock()
			ret[acc] = e
			mu.Unlock()
		}()
	}
	wg.Wait()
	return ret, ctx.Err()
}

func (U *UniprotClient) entry(ctx context.Context, acc string) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(U.URL, acc), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := U.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("entry %s: status %s: %w", acc, resp.Status, pdbsite.ErrNotFound)
	}
	var u uniprotEntry
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("entry %s: %v: %w", acc, err, pdbsite.ErrMalformed)
	}
	return u.toEntry(acc), nil
}

// toEntry keeps the PDB cross references, with the property names
// the resolver expects.
func (u *uniprotEntry) toEntry(acc string) *Entry {
	e := &Entry{Accession: acc, Sequence: u.Sequence.Value}
	for _, c := range u.CrossReferences {
		if c.Database != resolve.PDBType {
			continue
		}
		ref := resolve.CrossRef{Type: c.Database, ID: c.ID, Properties: make(map[string]string, 2)}
		for _, p := range c.Properties {
			k := strings.ToLower(p.Key)
			if k == resolve.ResolutionProperty || k == resolve.ChainsProperty {
				ref.Properties[k] = p.Value
			}
		}
		e.CrossRefs = append(e.CrossRefs, ref)
	}
	return e
}
