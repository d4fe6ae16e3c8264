/*
 * main.go, part of pdbsite.
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

// pdbsite computes the surface accessibility of, or the distances around,
// the sites of the peptides in an input file, using the PDB structures of
// their proteins. With -pdb, or a PDB_SURFACE calculation, it computes the
// sites of whole structures instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rmera/pdbsite"
	"github.com/rmera/pdbsite/annotation"
	"github.com/rmera/pdbsite/cache"
	"github.com/rmera/pdbsite/config"
	"github.com/rmera/pdbsite/geometry"
	"github.com/rmera/pdbsite/orchestrate"
	"github.com/rmera/pdbsite/sitesio"
	"github.com/rmera/pdbsite/sitesplot"
	"github.com/rmera/pdbsite/store"
	"github.com/sirupsen/logrus"
)

type options struct {
	config  string
	input   string
	out     string
	pdb     string
	chain   string
	plot    string
	metrics string
	dump    bool
	best    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("pdbsite", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.config, "config", "", "YAML configuration file")
	fs.StringVar(&o.input, "input", "", "peptide file (TSV or CSV, optionally gzipped)")
	fs.StringVar(&o.out, "out", "", "folder for the reports (default: resultsDir of the configuration)")
	fs.StringVar(&o.pdb, "pdb", "", "comma-separated PDB IDs whose sites are all computed")
	fs.StringVar(&o.chain, "chain", "", "with -pdb, only sites in this chain")
	fs.StringVar(&o.plot, "plot", "", "folder for a PNG plot per protein")
	fs.StringVar(&o.metrics, "metrics", "", "address to serve Prometheus metrics on, e.g. :9090")
	fs.BoolVar(&o.dump, "dump", false, "rewrite the result log, sorted, at the end")
	fs.BoolVar(&o.best, "best", false, "report only the largest value per site")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func loadConfig(o options) (config.Config, error) {
	if o.config == "" {
		return config.Default(), nil
	}
	return config.Load(o.config)
}

// app holds the wired components of a run.
type app struct {
	cfg    config.Config
	log    *logrus.Logger
	runner *orchestrate.Runner
	cache  *cache.Cache
	close  []func() error
}

func (A *app) Close() {
	for i := len(A.close) - 1; i >= 0; i-- {
		if err := A.close[i](); err != nil {
			A.log.Warnf("Close: %v", err)
		}
	}
}

func wire(ctx context.Context, cfg config.Config, log *logrus.Logger) (*app, error) {
	A := &app{cfg: cfg, log: log}
	var fetcher store.Fetcher
	if s3cfg, ok := cfg.S3Config(); ok {
		f, err := store.NewS3Fetcher(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		fetcher = f
	} else {
		fetcher = store.NewHTTPFetcher(cfg.RemoteURL, log)
	}
	scfg := cfg.StoreConfig(log)
	scfg.Fetcher = fetcher
	S, err := store.New(scfg)
	if err != nil {
		return nil, err
	}
	var svc annotation.Service = annotation.NewUniprotClient(cfg.Annotation.URL, log)
	if cfg.Annotation.CacheDir != "" {
		ac, err := annotation.NewCache(annotation.CacheConfig{Path: cfg.Annotation.CacheDir, Next: svc, Logger: log})
		if err != nil {
			return nil, err
		}
		A.close = append(A.close, ac.Close)
		svc = ac
	}
	kind := cfg.Kind()
	C, err := cache.Open(cache.Config{
		Path:       cfg.LogPath(),
		Annotation: svc,
		Version:    cfg.Annotation.Version,
		Kind:       kind,
		Logger:     log,
	})
	if err != nil {
		A.Close()
		return nil, err
	}
	R, err := orchestrate.New(orchestrate.Config{
		Store:              S,
		Annotation:         svc,
		Version:            cfg.Annotation.Version,
		Cache:              C,
		Strategy:           geometry.New(kind, cfg.GeometryOptions()),
		Kinds:              cfg.Kinds(),
		Flags:              cfg.Flags(),
		OneModelPerProtein: cfg.OneModel(),
		Logger:             log,
	})
	if err != nil {
		A.Close()
		return nil, err
	}
	A.runner = R
	A.cache = C
	return A, nil
}

func createReport(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(dir, name))
}

// structures computes every site of the structures in ids.
func (A *app) structures(ctx context.Context, ids []string, chain, out string) error {
	f, err := createReport(out, geometry.PDBSurface.String()+"_REPORT.txt")
	if err != nil {
		return err
	}
	defer f.Close()
	W := sitesio.NewWriter(f, sitesio.StructureHeader)
	var errs []error
	for _, id := range ids {
		agg, err := A.runner.ResolveStructure(ctx, id, chain)
		if errors.Is(err, pdbsite.ErrNoResult) {
			A.log.WithFields(logrus.Fields{"pdb": id}).Warn("No sites computed")
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
		if _, err := W.WriteStructureReports(agg); err != nil {
			return err
		}
	}
	if err := W.Flush(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

// peptides computes the sites of the peptides in the file input.
func (A *app) peptides(ctx context.Context, o options, out string) error {
	c := A.cfg.Input
	sep, _ := A.cfg.Separator()
	peps, err := sitesio.ReadPeptides(o.input, sitesio.ColumnConfig{
		Sequence:   c.SequenceColumn,
		Ratio:      c.RatioColumn,
		Accession:  c.AccessionColumn,
		SkipHeader: c.SkipHeader,
		Separator:  sep,
		Logger:     A.log,
	})
	if err != nil {
		return err
	}
	aggs, rerr := A.runner.ResolveProteins(ctx, sitesio.Sequences(peps))
	base := strings.TrimSuffix(filepath.Base(o.input), ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	f, err := createReport(out, fmt.Sprintf("%s_%s_REPORT.txt", base, A.cfg.Kind()))
	if err != nil {
		return err
	}
	defer f.Close()
	W := sitesio.NewWriter(f, sitesio.PeptideHeader)
	byProt := sitesio.ByProtein(peps)
	accs := make([]string, 0, len(aggs))
	for acc := range aggs {
		accs = append(accs, acc)
	}
	sort.Strings(accs)
	kinds := A.cfg.Kinds()
	for _, acc := range accs {
		if _, err := W.WriteProteinReports(byProt[acc], aggs[acc], kinds, o.best); err != nil {
			return err
		}
		if o.plot == "" {
			continue
		}
		if err := os.MkdirAll(o.plot, 0o755); err != nil {
			return err
		}
		if err := sitesplot.Plot(aggs[acc], filepath.Join(o.plot, acc+".png")); err != nil {
			A.log.WithFields(logrus.Fields{"accession": acc}).Warnf("Not plotted: %v", err)
		}
	}
	if err := W.Flush(); err != nil {
		return err
	}
	return rerr
}

func serveMetrics(addr string, log *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server: %v", err)
		}
	}()
	return srv
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	log := cfg.Logger()
	log.SetOutput(stderr)
	ids := cfg.PDBIDs
	if o.pdb != "" {
		ids = strings.Split(o.pdb, ",")
	}
	structureRun := o.pdb != "" || cfg.Kind() == geometry.PDBSurface
	if structureRun && len(ids) == 0 {
		return fmt.Errorf("no PDB IDs given")
	}
	if !structureRun && o.input == "" {
		return fmt.Errorf("no input file given")
	}
	if o.metrics != "" {
		srv := serveMetrics(o.metrics, log)
		defer srv.Close()
	}
	A, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer A.Close()
	out := o.out
	if out == "" {
		out = cfg.ResultsDir
	}
	if structureRun {
		for i := range ids {
			ids[i] = strings.ToUpper(strings.TrimSpace(ids[i]))
		}
		err = A.structures(ctx, ids, o.chain, out)
	} else {
		err = A.peptides(ctx, o, out)
	}
	if o.dump {
		if derr := A.cache.Dump(); derr != nil {
			err = errors.Join(err, derr)
		}
	}
	fmt.Fprintln(stdout, A.runner.Stats())
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "pdbsite:", err)
		stop()
		os.Exit(1)
	}
}
