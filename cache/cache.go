/*
 * cache.go, part of pdbsite.
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

// Package cache keeps the computed reports in memory, keyed by their
// ReportKey, and in a tab-delimited log file that survives restarts.
// A report is computed at most once: after the log is loaded, a key found
// in the cache is never computed again.
package cache

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rmera/pdbsite"
	"github.com/rmera/pdbsite/annotation"
	"github.com/rmera/pdbsite/geometry"
	"github.com/sirupsen/logrus"
)

// Config holds the parameters of a Cache.
type Config struct {
	Path       string             //the log file
	Annotation annotation.Service //gives the protein sequences for loaded rows
	Version    string             //of the annotation data
	Kind       geometry.Kind
	Logger     *logrus.Logger
}

// Cache is the result cache. It is safe for concurrent use.
type Cache struct {
	config Config
	log    *logrus.Logger

	once       sync.Once
	hydrateErr error

	mu         sync.Mutex
	reports    map[pdbsite.ReportKey]*pdbsite.Report
	aggregates map[string]*pdbsite.ProteinReport
}

// Open returns a Cache for the log at cfg.Path. The log is not read until
// the first Lookup or the first call to Hydrate.
func Open(cfg Config) (*Cache, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("cache.Open: empty path")
	}
	if cfg.Annotation == nil {
		return nil, fmt.Errorf("cache.Open: no annotation service")
	}
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache.Open: %w", err)
		}
	}
	return &Cache{
		config:     cfg,
		log:        cfg.Logger,
		reports:    make(map[pdbsite.ReportKey]*pdbsite.Report),
		aggregates: make(map[string]*pdbsite.ProteinReport),
	}, nil
}

// Path returns the name of the log file.
func (C *Cache) Path() string {
	return C.config.Path
}

// Hydrate loads the log into memory. It does the work only the first time
// it is called, later calls return the first result. Rows that can't be
// parsed, or whose protein can't be annotated, are dropped with a warning.
// A missing log is not an error.
func (C *Cache) Hydrate(ctx context.Context) error {
	C.once.Do(func() {
		C.hydrateErr = C.hydrate(ctx)
		if C.hydrateErr != nil {
			C.log.WithFields(logrus.Fields{"file": C.config.Path}).Errorf("Result log not loaded: %v", C.hydrateErr)
		}
	})
	return C.hydrateErr
}

func (C *Cache) readRows() ([][]string, error) {
	f, err := os.Open(C.config.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false
	ret := make([][]string, 0, 100)
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == baseHeader[0] {
				continue
			}
		}
		ret = append(ret, rec)
	}
	return ret, nil
}

func (C *Cache) hydrate(ctx context.Context) error {
	records, err := C.readRows()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	accs := make([]string, 0, 10)
	for _, rec := range records {
		if len(rec) > 1 && fromNone(rec[1]) != "" {
			accs = append(accs, fromNone(rec[1]))
		}
	}
	var entries map[string]*annotation.Entry
	if len(accs) > 0 {
		entries, err = C.config.Annotation.Annotate(ctx, C.config.Version, accs...)
		if err != nil {
			C.log.Warnf("Proteins in the result log not fully annotated: %v", err)
		}
	}
	C.mu.Lock()
	defer C.mu.Unlock()
	loaded, dropped := 0, 0
	fresh := make(map[pdbsite.ReportKey]bool)
	for n, rec := range records {
		R, err := decode(rec, C.config.Kind)
		if err != nil {
			dropped++
			C.log.WithFields(logrus.Fields{"file": C.config.Path, "row": n + 2}).Warnf("Malformed row dropped: %v", err)
			continue
		}
		var agg *pdbsite.ProteinReport
		if R.Accession != "" {
			e, ok := entries[R.Accession]
			if !ok {
				dropped++
				C.log.WithFields(logrus.Fields{"accession": R.Accession, "row": n + 2}).Warn("Row dropped, protein sequence not available")
				continue
			}
			agg = C.aggregate(R.Accession, e.Sequence)
		}
		R.MarkPersisted()
		k := R.Key()
		if prev, ok := C.reports[k]; ok {
			//Distance reports take one row per distance. Keys stored
			//before hydration are already complete.
			if fresh[k] {
				prev.Distances = append(prev.Distances, R.Distances...)
				loaded++
			}
			continue
		}
		fresh[k] = true
		C.reports[k] = R
		if agg != nil {
			agg.Add(R)
		}
		loaded++
	}
	rows.WithLabelValues("loaded").Add(float64(loaded))
	rows.WithLabelValues("dropped").Add(float64(dropped))
	C.log.WithFields(logrus.Fields{"file": C.config.Path, "rows": loaded, "dropped": dropped, "reports": len(C.reports)}).Info("Result log loaded")
	return nil
}

// aggregate returns the aggregate for acc, creating it if needed. C.mu must be held.
func (C *Cache) aggregate(acc, seq string) *pdbsite.ProteinReport {
	agg, ok := C.aggregates[acc]
	if !ok {
		agg = pdbsite.NewProteinReport(acc, seq)
		C.aggregates[acc] = agg
	}
	return agg
}

// Lookup returns the report for key, loading the log first if needed.
func (C *Cache) Lookup(ctx context.Context, key pdbsite.ReportKey) (*pdbsite.Report, bool) {
	C.Hydrate(ctx)
	C.mu.Lock()
	R, ok := C.reports[key]
	C.mu.Unlock()
	if ok {
		lookups.WithLabelValues("hit").Inc()
	} else {
		lookups.WithLabelValues("miss").Inc()
	}
	return R, ok
}

// Aggregate returns the reports known for the protein acc.
func (C *Cache) Aggregate(acc string) (*pdbsite.ProteinReport, bool) {
	C.mu.Lock()
	defer C.mu.Unlock()
	agg, ok := C.aggregates[acc]
	return agg, ok
}

// Len returns the number of reports in the cache.
func (C *Cache) Len() int {
	C.mu.Lock()
	defer C.mu.Unlock()
	return len(C.reports)
}

// Store adds the reports of agg to the cache, and appends those that are not
// yet persisted to the log. Reports with a key already in the cache are
// ignored, but if the cached report with that key failed to be written
// before, it is written again. The header is written first if the log is
// empty.
func (C *Cache) Store(agg *pdbsite.ProteinReport) error {
	if agg == nil {
		return nil
	}
	C.mu.Lock()
	defer C.mu.Unlock()
	pending := make([]*pdbsite.Report, 0, agg.Len())
	queued := make(map[pdbsite.ReportKey]bool)
	for _, R := range agg.Reports() {
		k := R.Key()
		prev, ok := C.reports[k]
		if !ok {
			prev = R
			C.reports[k] = R
			if R.Accession != "" {
				C.aggregate(R.Accession, agg.Sequence).Add(R)
			}
		}
		if !prev.Persisted() && !queued[k] {
			queued[k] = true
			pending = append(pending, prev)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	n, err := C.appendRows(pending)
	if err != nil {
		C.log.WithFields(logrus.Fields{"file": C.config.Path}).Errorf("Reports not written: %v", err)
		return fmt.Errorf("Cache.Store: %w", err)
	}
	for _, R := range pending {
		R.MarkPersisted()
	}
	rows.WithLabelValues("appended").Add(float64(n))
	return nil
}

func (C *Cache) appendRows(reports []*pdbsite.Report) (int, error) {
	unlock, err := lock(C.config.Path)
	if err != nil {
		return 0, err
	}
	defer unlock()
	f, err := os.OpenFile(C.config.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, err
	}
	n, err := C.write(f, reports, fi.Size() == 0)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// write writes the rows for reports to w, preceded by the header if header
// is true, and returns the number of rows written.
func (C *Cache) write(w io.Writer, reports []*pdbsite.Report, header bool) (int, error) {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if header {
		if err := cw.Write(Header(C.config.Kind)); err != nil {
			return 0, err
		}
	}
	n := 0
	for _, R := range reports {
		for _, row := range encode(R, C.config.Kind) {
			if err := cw.Write(row); err != nil {
				return n, err
			}
			n++
		}
	}
	cw.Flush()
	return n, cw.Error()
}

// Dump rewrites the log with every report in the cache, sorted by key.
// The new log is written to a temporary file that then replaces the old one.
func (C *Cache) Dump() error {
	C.mu.Lock()
	defer C.mu.Unlock()
	keys := make([]pdbsite.ReportKey, 0, len(C.reports))
	for k := range C.reports {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	reports := make([]*pdbsite.Report, len(keys))
	for i, k := range keys {
		reports[i] = C.reports[k]
	}
	unlock, err := lock(C.config.Path)
	if err != nil {
		return fmt.Errorf("Cache.Dump: %w", err)
	}
	defer unlock()
	tmp, err := os.CreateTemp(filepath.Dir(C.config.Path), filepath.Base(C.config.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("Cache.Dump: %w", err)
	}
	defer os.Remove(tmp.Name())
	n, err := C.write(tmp, reports, true)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), C.config.Path)
	}
	if err != nil {
		C.log.WithFields(logrus.Fields{"file": C.config.Path}).Errorf("Result log not dumped: %v", err)
		return fmt.Errorf("Cache.Dump: %w", err)
	}
	for _, R := range reports {
		R.MarkPersisted()
	}
	C.log.WithFields(logrus.Fields{"file": C.config.Path, "reports": len(reports), "rows": n}).Info("Result log dumped")
	return nil
}
