/*
 * store.go, part of pdbsite.
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

// Package store obtains PDB files by structure ID. Files are kept in a local
// directory, and missing ones are fetched from a remote source and saved there.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/rmera/pdbsite"
	"github.com/shirou/gopsutil/disk"
	"github.com/sirupsen/logrus"
)

// Compression of the files saved in the local directory.
const (
	None = "none"
	Zstd = "zstd"
)

// Config holds the parameters of a Store.
type Config struct {
	Dir         string
	Compression string  //None or Zstd
	MinFreeGB   float64 //files are not saved when the disk has less free space. 0 disables the check.
	Fetcher     Fetcher //nil means local files only
	Logger      *logrus.Logger
}

// Store gets PDB files by structure ID.
type Store struct {
	config Config
	log    *logrus.Logger
	//freeSpace returns the free bytes at the path. Replaced in tests.
	freeSpace func(path string) (uint64, error)
}

// New returns a Store for cfg, creating the directory if needed.
func New(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("store.New: empty directory")
	}
	if cfg.Compression == "" {
		cfg.Compression = None
	}
	if cfg.Compression != None && cfg.Compression != Zstd {
		return nil, fmt.Errorf("store.New: unknown compression %q", cfg.Compression)
	}
	if fi, err := os.Stat(cfg.Dir); err == nil && !fi.IsDir() {
		return nil, fmt.Errorf("store.New: %s is not a folder", cfg.Dir)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("store.New: %w", err)
	}
	return &Store{config: cfg, log: cfg.Logger, freeSpace: diskFree}, nil
}

func diskFree(path string) (uint64, error) {
	u, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return u.Free, nil
}

// Dir returns the local directory of the store.
func (S *Store) Dir() string {
	return S.config.Dir
}

// Path returns the name of the local file for id, whether it exists or not.
func (S *Store) Path(id string) string {
	name := filepath.Join(S.config.Dir, id+".pdb")
	if S.config.Compression == Zstd {
		name += ".zst"
	}
	return name
}

// local returns the name of an existing local file for id, with or without compression.
func (S *Store) local(id string) (string, bool) {
	base := filepath.Join(S.config.Dir, id+".pdb")
	for _, name := range []string{S.Path(id), base, base + ".zst"} {
		if fi, err := os.Stat(name); err == nil && fi.Mode().IsRegular() {
			return name, true
		}
	}
	return "", false
}

// cancelled is true if err comes from a cancelled or expired context, which
// says nothing about the structure.
func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Get returns the name of the local file for the structure id, fetching it if
// needed. IDs that could not be fetched earlier in the session fail right away,
// with an error wrapping pdbsite.ErrNotFound. A fetch stopped by ctx is not
// remembered as a failure.
func (S *Store) Get(ctx context.Context, sess *pdbsite.Session, id string) (string, error) {
	if sess != nil && sess.Unfetchable(id) {
		fetches.WithLabelValues("negative").Inc()
		return "", fmt.Errorf("Store.Get: %s: %w", id, pdbsite.ErrNotFound)
	}
	if name, ok := S.local(id); ok {
		fetches.WithLabelValues("local").Inc()
		return name, nil
	}
	if S.config.Fetcher == nil {
		S.unfetchable(sess, id, pdbsite.ErrNotFound)
		return "", fmt.Errorf("Store.Get: %s: no local file and no remote source: %w", id, pdbsite.ErrNotFound)
	}
	r, err := S.config.Fetcher.Fetch(ctx, id)
	if cancelled(err) {
		return "", fmt.Errorf("Store.Get: %s: %w", id, err)
	}
	if err != nil {
		S.unfetchable(sess, id, err)
		return "", fmt.Errorf("Store.Get: %w: %w", err, pdbsite.ErrNotFound)
	}
	defer r.Close()
	name, err := S.save(id, r)
	if err != nil {
		if errors.Is(err, errDiskFull) || cancelled(err) {
			return "", fmt.Errorf("Store.Get: %s: %w", id, err)
		}
		S.unfetchable(sess, id, err)
		return "", fmt.Errorf("Store.Get: %s: %w: %w", id, err, pdbsite.ErrNotFound)
	}
	fetches.WithLabelValues("remote").Inc()
	S.log.WithFields(logrus.Fields{"id": id, "file": name}).Info("PDB file saved")
	return name, nil
}

func (S *Store) unfetchable(sess *pdbsite.Session, id string, err error) {
	fetches.WithLabelValues("failed").Inc()
	S.log.WithFields(logrus.Fields{"id": id}).Warnf("Structure could not be retrieved: %v", err)
	if sess != nil {
		sess.MarkUnfetchable(id)
	}
}

var errDiskFull = errors.New("not enough free disk space")

// save writes the contents of r to a temporary file in the store directory and
// renames it into place. If the final file appeared in the meantime, written
// by someone else, that file is kept.
func (S *Store) save(id string, r io.Reader) (string, error) {
	if S.config.MinFreeGB > 0 {
		free, err := S.freeSpace(S.config.Dir)
		if err != nil {
			return "", err
		}
		if float64(free)/1e9 < S.config.MinFreeGB {
			return "", fmt.Errorf("%.2f GB free, %.2f required: %w", float64(free)/1e9, S.config.MinFreeGB, errDiskFull)
		}
	}
	final := S.Path(id)
	tmp, err := os.CreateTemp(S.config.Dir, id+".*.tmp")
	if err != nil {
		return "", err
	}
	tmpname := tmp.Name()
	defer os.Remove(tmpname) //no-op after a successful rename
	compressed := S.config.Compression == Zstd
	var w io.WriteCloser = tmp
	if compressed {
		z, err := zstd.NewWriter(tmp)
		if err != nil {
			tmp.Close()
			return "", err
		}
		w = z
	}
	n, err := io.Copy(w, r)
	if err == nil && n == 0 {
		err = fmt.Errorf("empty file")
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if compressed {
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(final); err == nil {
		return final, nil
	}
	if err := os.Rename(tmpname, final); err != nil {
		if _, err2 := os.Stat(final); err2 == nil {
			return final, nil
		}
		return "", err
	}
	return final, nil
}

// Structure returns the parsed structure id. Structures are parsed once per
// session. Files that can't be parsed are treated as unfetchable.
func (S *Store) Structure(ctx context.Context, sess *pdbsite.Session, id string) (*pdbsite.Structure, error) {
	if sess != nil {
		if st, ok := sess.Structure(id); ok {
			return st, nil
		}
	}
	name, err := S.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	st, err := pdbsite.PDBRead(name, id)
	if err != nil {
		S.unfetchable(sess, id, err)
		return nil, fmt.Errorf("Store.Structure: %w: %w", err, pdbsite.ErrNotFound)
	}
	if sess != nil {
		sess.SetStructure(st)
	}
	return st, nil
}
