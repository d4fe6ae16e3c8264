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

package annotation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// CacheConfig holds the parameters of a Cache.
type CacheConfig struct {
	Path   string
	Next   Service //where misses are sent
	Logger *logrus.Logger
}

// Cache is a Service that keeps the entries obtained from another Service in
// a badger database, under the key "version|accession".
type Cache struct {
	config CacheConfig
	db     *badger.DB
	log    *logrus.Logger
}

// NewCache opens, or creates, the database at cfg.Path.
func NewCache(cfg CacheConfig) (*Cache, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("annotation.NewCache: empty path")
	}
	if cfg.Next == nil {
		return nil, fmt.Errorf("annotation.NewCache: no service to query")
	}
	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil
	opts.SyncWrites = false
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("annotation.NewCache: %w", err)
	}
	return &Cache{config: cfg, db: db, log: cfg.Logger}, nil
}

// Close closes the database.
func (C *Cache) Close() error {
	return C.db.Close()
}

func cacheKey(version, acc string) []byte {
	return []byte(version + "|" + acc)
}

// Annotate returns the stored entries and asks the next Service for the rest,
// storing what it returns.
func (C *Cache) Annotate(ctx context.Context, version string, accs ...string) (map[string]*Entry, error) {
	accs = unique(accs)
	ret := make(map[string]*Entry, len(accs))
	missing := make([]string, 0, len(accs))
	err := C.db.View(func(txn *badger.Txn) error {
		for _, acc := range accs {
			item, err := txn.Get(cacheKey(version, acc))
			if errors.Is(err, badger.ErrKeyNotFound) {
				missing = append(missing, acc)
				continue
			}
			if err != nil {
				return err
			}
			e := new(Entry)
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, e)
			})
			if err != nil {
				C.log.WithFields(logrus.Fields{"accession": acc}).Warnf("Unreadable cached annotation: %v", err)
				missing = append(missing, acc)
				continue
			}
			ret[acc] = e
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Cache.Annotate: %w", err)
	}
	hits.Add(float64(len(ret)))
	if len(missing) == 0 {
		return ret, nil
	}
	fetched, err := C.config.Next.Annotate(ctx, version, missing...)
	if err != nil && len(fetched) == 0 {
		return ret, fmt.Errorf("Cache.Annotate: %w", err)
	}
	wb := C.db.NewWriteBatch()
	defer wb.Cancel()
	for acc, e := range fetched {
		ret[acc] = e
		val, merr := json.Marshal(e)
		if merr != nil {
			continue
		}
		if serr := wb.Set(cacheKey(version, acc), val); serr != nil {
			C.log.WithFields(logrus.Fields{"accession": acc}).Errorf("Annotation not cached: %v", serr)
		}
	}
	if ferr := wb.Flush(); ferr != nil {
		C.log.Errorf("Annotations not cached: %v", ferr)
	}
	C.log.WithFields(logrus.Fields{"cached": len(ret) - len(fetched), "fetched": len(fetched), "missing": len(missing) - len(fetched)}).Info("Annotations obtained")
	return ret, err
}
