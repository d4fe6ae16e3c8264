/*
 * orchestrate.go, part of pdbsite.
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

// Package orchestrate drives a calculation: for the sites of a protein, or of
// a structure, it finds the structures and atoms, reuses the cached reports
// and computes the missing ones.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rmera/pdbsite"
	"github.com/rmera/pdbsite/annotation"
	"github.com/rmera/pdbsite/cache"
	"github.com/rmera/pdbsite/geometry"
	"github.com/rmera/pdbsite/mapper"
	"github.com/rmera/pdbsite/resolve"
	"github.com/rmera/pdbsite/store"
	"github.com/sirupsen/logrus"
)

// Config holds the collaborators and options of a Runner.
type Config struct {
	Store              *store.Store
	Annotation         annotation.Service
	Version            string //of the annotation data
	Cache              *cache.Cache
	Strategy           geometry.Strategy
	Kinds              pdbsite.AtomKinds
	Flags              pdbsite.Flags
	OneModelPerProtein bool
	Session            *pdbsite.Session //a new one is created if nil
	Logger             *logrus.Logger
}

// Runner resolves proteins and structures into reports. A Runner is not safe
// for concurrent use, since it shares its Session among calls.
type Runner struct {
	config   Config
	log      *logrus.Logger
	resolver *resolve.Resolver
}

// New returns a Runner for cfg.
func New(cfg Config) (*Runner, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Session == nil {
		cfg.Session = pdbsite.NewSession()
	}
	switch {
	case cfg.Store == nil:
		return nil, fmt.Errorf("orchestrate.New: no structure store")
	case cfg.Annotation == nil:
		return nil, fmt.Errorf("orchestrate.New: no annotation service")
	case cfg.Cache == nil:
		return nil, fmt.Errorf("orchestrate.New: no result cache")
	case cfg.Strategy == nil:
		return nil, fmt.Errorf("orchestrate.New: no geometry strategy")
	case len(cfg.Kinds) == 0:
		return nil, fmt.Errorf("orchestrate.New: no atom kinds")
	}
	return &Runner{config: cfg, log: cfg.Logger, resolver: resolve.New(cfg.Logger)}, nil
}

// Session returns the session shared by the calls of the runner.
func (R *Runner) Session() *pdbsite.Session {
	return R.config.Session
}

// Stats returns a summary of the structures matched so far.
func (R *Runner) Stats() string {
	return R.config.Session.Stats()
}

// job is a site whose report is not in the cache.
type job struct {
	loc   mapper.Located
	chain pdbsite.Chain
}

// positions returns the 1-based positions of every occurrence of peptide
// in seq, overlapping ones included.
func positions(seq, peptide string) []int {
	ret := make([]int, 0, 1)
	if peptide == "" {
		return ret
	}
	for from := 0; from < len(seq); {
		i := strings.Index(seq[from:], peptide)
		if i < 0 {
			break
		}
		ret = append(ret, from+i+1)
		from += i + 1
	}
	return ret
}

// ResolveProtein returns the reports for the sites of the protein acc covered
// by peptides. If pinned is not empty, only that structure is used. The
// returned error wraps pdbsite.ErrNoResult when there were no reports and
// nothing was computed.
func (R *Runner) ResolveProtein(ctx context.Context, acc, pinned string, peptides []string) (*pdbsite.ProteinReport, error) {
	entries, err := R.config.Annotation.Annotate(ctx, R.config.Version, acc)
	if err != nil {
		R.log.WithFields(logrus.Fields{"accession": acc}).Warnf("Annotation failed: %v", err)
	}
	e, ok := entries[acc]
	if !ok {
		return nil, fmt.Errorf("ResolveProtein: %s not annotated: %w", acc, pdbsite.ErrNoResult)
	}
	return R.resolveEntry(ctx, e, pinned, peptides)
}

// ResolveProteins resolves the proteins in peptides, keyed by accession, one
// after the other. All the proteins are annotated at once. Proteins without
// results are absent from the returned map. Errors other than no results are
// collected and returned together.
func (R *Runner) ResolveProteins(ctx context.Context, peptides map[string][]string) (map[string]*pdbsite.ProteinReport, error) {
	accs := make([]string, 0, len(peptides))
	for acc := range peptides {
		accs = append(accs, acc)
	}
	sort.Strings(accs)
	entries, err := R.config.Annotation.Annotate(ctx, R.config.Version, accs...)
	if err != nil {
		R.log.Warnf("Annotation failed for some proteins: %v", err)
	}
	ret := make(map[string]*pdbsite.ProteinReport, len(accs))
	var errs []error
	for _, acc := range accs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		e, ok := entries[acc]
		if !ok {
			R.log.WithFields(logrus.Fields{"accession": acc}).Warn("Protein not annotated, skipped")
			continue
		}
		agg, err := R.resolveEntry(ctx, e, "", peptides[acc])
		if errors.Is(err, pdbsite.ErrNoResult) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
		if agg != nil && !agg.Empty() {
			ret[acc] = agg
		}
	}
	R.log.Info(R.Stats())
	return ret, errors.Join(errs...)
}

func (R *Runner) resolveEntry(ctx context.Context, e *annotation.Entry, pinned string, peptides []string) (*pdbsite.ProteinReport, error) {
	acc := e.Accession
	if e.Sequence == "" {
		R.log.WithFields(logrus.Fields{"accession": acc}).Warn("UniProt entry has no protein sequence")
		return nil, fmt.Errorf("ResolveProtein: %s has no sequence: %w", acc, pdbsite.ErrNoResult)
	}
	sess := R.config.Session
	sess.ClearStructures()
	agg := pdbsite.NewProteinReport(acc, e.Sequence)
	seen := make(map[int]bool)
	groups := make(map[string][]job)
	order := make([]string, 0, 4)
	mappers := make(map[string]*mapper.Mapper)
	for _, peptide := range peptides {
		occ := positions(e.Sequence, peptide)
		if len(occ) > 1 {
			R.log.WithFields(logrus.Fields{"accession": acc, "peptide": peptide}).Debugf("Peptide present %d times in protein", len(occ))
		}
		for _, start := range occ {
			for pip := 0; pip < len(peptide); pip++ {
				if !R.config.Kinds.Has(peptide[pip]) {
					continue
				}
				pos := start + pip
				if seen[pos] {
					continue
				}
				seen[pos] = true
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				chains := R.resolver.Resolve(sess, e.CrossRefs, pinned, pos)
				for _, chain := range chains {
					m, ok := R.mapperFor(ctx, mappers, chain.PDB, acc)
					if !ok {
						continue
					}
					q := mapper.UniprotQuery{
						Accession:         acc,
						Position:          pos,
						Peptide:           peptide,
						PositionInPeptide: pip,
						Chain:             chain.ID,
						Kinds:             R.config.Kinds,
						Flags:             R.config.Flags,
					}
					located, err := m.MapUniprot(q)
					if err != nil {
						R.log.WithFields(logrus.Fields{"accession": acc, "position": pos, "chain": chain.String()}).Debugf("Site not mapped: %v", err)
						continue
					}
					for _, l := range located {
						if rep, ok := R.config.Cache.Lookup(ctx, l.Key); ok {
							agg.Add(rep)
							continue
						}
						if _, ok := groups[chain.PDB]; !ok {
							order = append(order, chain.PDB)
						}
						groups[chain.PDB] = append(groups[chain.PDB], job{loc: l, chain: chain})
					}
					if R.config.OneModelPerProtein {
						break
					}
				}
			}
		}
	}
	todo := 0
	for _, jobs := range groups {
		todo += len(jobs)
	}
	if todo > 0 {
		R.log.WithFields(logrus.Fields{"accession": acc, "calculations": todo}).Info("Calculations to do")
	}
	for _, pdb := range order {
		jobs := groups[pdb]
		sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].loc.Key.Position < jobs[j].loc.Key.Position })
		st := mappers[pdb].Structure()
		R.log.WithFields(logrus.Fields{"accession": acc, "pdb": pdb, "sites": len(jobs)}).Info("Using PDB model")
		for _, j := range jobs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rep, ok := R.compute(st, j.loc, j.chain.Resolution)
			if ok {
				agg.Add(rep)
			}
		}
	}
	if err := R.config.Cache.Store(agg); err != nil {
		return agg, fmt.Errorf("ResolveProtein: %s: %w", acc, err)
	}
	if agg.Empty() && todo == 0 {
		return nil, fmt.Errorf("ResolveProtein: %s: %w", acc, pdbsite.ErrNoResult)
	}
	R.log.WithFields(logrus.Fields{"accession": acc, "reports": agg.Len()}).Info("Sites calculated")
	return agg, nil
}

// mapperFor returns the mapper for the structure pdb, if the structure can be
// obtained and it references the protein acc.
func (R *Runner) mapperFor(ctx context.Context, mappers map[string]*mapper.Mapper, pdb, acc string) (*mapper.Mapper, bool) {
	if m, ok := mappers[pdb]; ok {
		return m, m.Structure().HasUniprotRef(acc)
	}
	st, err := R.config.Store.Structure(ctx, R.config.Session, pdb)
	if err != nil {
		R.log.WithFields(logrus.Fields{"pdb": pdb}).Debugf("Structure not available: %v", err)
		return nil, false
	}
	m := mapper.New(st, R.log)
	mappers[pdb] = m
	if !st.HasUniprotRef(acc) {
		R.log.WithFields(logrus.Fields{"pdb": pdb, "accession": acc}).Debug("Structure does not reference the protein")
		return m, false
	}
	return m, true
}

// compute runs the geometry strategy on the located atom and builds the report.
func (R *Runner) compute(st *pdbsite.Structure, l mapper.Located, resolution *float64) (*pdbsite.Report, bool) {
	geometryCalls.Inc()
	res, ok := R.config.Strategy.Compute(st, l.Atom, l.Key.Flags)
	if !ok {
		R.log.WithFields(logrus.Fields{"key": l.Key.String()}).Debug("No result for site")
		return nil, false
	}
	pos := l.Key.Position
	if l.Key.Accession == "" {
		pos = -1
	}
	return &pdbsite.Report{
		PDB:        st.ID,
		Accession:  l.Key.Accession,
		Position:   pos,
		Resolution: resolution,
		Atom:       st.Locate(l.Atom),
		Flags:      l.Key.Flags,
		Mutated:    st.Mutation,
		Method:     st.Method,
		Surface:    res.Surface,
		Distances:  res.Distances,
	}, true
}

// ResolveStructure returns the reports for every site of the structure pdb,
// in chain, or in all its chains if chain is empty. The returned aggregate
// is keyed by the structure ID and has no sequence.
func (R *Runner) ResolveStructure(ctx context.Context, pdb, chain string) (*pdbsite.ProteinReport, error) {
	sess := R.config.Session
	sess.ClearStructures()
	st, err := R.config.Store.Structure(ctx, sess, pdb)
	if err != nil {
		return nil, fmt.Errorf("ResolveStructure: %w: %w", err, pdbsite.ErrNoResult)
	}
	m := mapper.New(st, R.log)
	agg := pdbsite.NewProteinReport(pdb, "")
	computed := 0
	for _, l := range m.MapStructure(mapper.StructureQuery{Chain: chain, Kinds: R.config.Kinds, Flags: R.config.Flags}) {
		if rep, ok := R.config.Cache.Lookup(ctx, l.Key); ok {
			agg.Add(rep)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rep, ok := R.compute(st, l, nil); ok {
			computed++
			agg.Add(rep)
		}
	}
	if err := R.config.Cache.Store(agg); err != nil {
		return agg, fmt.Errorf("ResolveStructure: %s: %w", pdb, err)
	}
	if agg.Empty() {
		return nil, fmt.Errorf("ResolveStructure: %s: %w", pdb, pdbsite.ErrNoResult)
	}
	R.log.WithFields(logrus.Fields{"pdb": pdb, "reports": agg.Len(), "computed": computed}).Info("Sites calculated")
	return agg, nil
}
