/*
 * store_test.go, part of pdbsite.
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

package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rmera/pdbsite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(Te *testing.T) []byte {
	b, err := os.ReadFile("../test/1ABC.pdb")
	require.NoError(Te, err)
	return b
}

func TestRetryAfter(Te *testing.T) {
	pdb := fixture(Te)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(Te, "/1ABC.pdb", r.URL.Path)
		w.Write(pdb)
	}))
	defer srv.Close()
	F := NewHTTPFetcher(srv.URL+"/%s.pdb", nil)
	var waits []time.Duration
	F.Sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	S, err := New(Config{Dir: Te.TempDir(), Fetcher: F})
	require.NoError(Te, err)
	sess := pdbsite.NewSession()
	name, err := S.Get(context.Background(), sess, "1ABC")
	require.NoError(Te, err)
	assert.Equal(Te, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(Te, []time.Duration{2 * time.Second, 2 * time.Second}, waits)
	assert.Equal(Te, filepath.Join(S.Dir(), "1ABC.pdb"), name)
	got, err := os.ReadFile(name)
	require.NoError(Te, err)
	assert.Equal(Te, pdb, got)
	//No temporary files left behind.
	entries, _ := os.ReadDir(S.Dir())
	assert.Len(Te, entries, 1)

	//Second time it is local.
	_, err = S.Get(context.Background(), sess, "1ABC")
	require.NoError(Te, err)
	assert.Equal(Te, int32(3), atomic.LoadInt32(&calls))
}

func TestNegativeCache(Te *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()
	S, err := New(Config{Dir: Te.TempDir(), Fetcher: NewHTTPFetcher(srv.URL+"/%s.pdb", nil)})
	require.NoError(Te, err)
	sess := pdbsite.NewSession()
	_, err = S.Get(context.Background(), sess, "9XYZ")
	assert.ErrorIs(Te, err, pdbsite.ErrNotFound)
	assert.True(Te, sess.Unfetchable("9XYZ"))
	_, err = S.Structure(context.Background(), sess, "9XYZ")
	assert.ErrorIs(Te, err, pdbsite.ErrNotFound)
	assert.Equal(Te, int32(1), atomic.LoadInt32(&calls))
	//A new session tries again.
	_, err = S.Get(context.Background(), pdbsite.NewSession(), "9XYZ")
	assert.Error(Te, err)
	assert.Equal(Te, int32(2), atomic.LoadInt32(&calls))
}

func TestCancelledFetch(Te *testing.T) {
	pdb := fixture(Te)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdb)
	}))
	defer srv.Close()
	S, err := New(Config{Dir: Te.TempDir(), Fetcher: NewHTTPFetcher(srv.URL+"/%s.pdb", nil)})
	require.NoError(Te, err)
	sess := pdbsite.NewSession()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = S.Get(ctx, sess, "1ABC")
	assert.ErrorIs(Te, err, context.Canceled)
	assert.NotErrorIs(Te, err, pdbsite.ErrNotFound)
	assert.False(Te, sess.Unfetchable("1ABC"))
	//The same session can still get it.
	_, err = S.Get(context.Background(), sess, "1ABC")
	require.NoError(Te, err)
}

func TestStructureZstd(Te *testing.T) {
	pdb := fixture(Te)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write(pdb)
	}))
	defer srv.Close()
	S, err := New(Config{Dir: Te.TempDir(), Compression: Zstd, Fetcher: NewHTTPFetcher(srv.URL+"/%s.pdb", nil)})
	require.NoError(Te, err)
	sess := pdbsite.NewSession()
	st, err := S.Structure(context.Background(), sess, "1ABC")
	require.NoError(Te, err)
	assert.Equal(Te, 24, st.Len())
	assert.True(Te, strings.HasSuffix(S.Path("1ABC"), ".pdb.zst"))
	st2, err := S.Structure(context.Background(), sess, "1ABC")
	require.NoError(Te, err)
	assert.Same(Te, st, st2)
	assert.Equal(Te, int32(1), atomic.LoadInt32(&calls))
}

func TestExistingFileWins(Te *testing.T) {
	dir := Te.TempDir()
	S, err := New(Config{Dir: dir})
	require.NoError(Te, err)
	require.NoError(Te, os.WriteFile(S.Path("1ABC"), []byte("first"), 0o644))
	name, err := S.save("1ABC", strings.NewReader("second"))
	require.NoError(Te, err)
	got, _ := os.ReadFile(name)
	assert.Equal(Te, "first", string(got))
}

func TestDiskFull(Te *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ATOM"))
	}))
	defer srv.Close()
	S, err := New(Config{Dir: Te.TempDir(), MinFreeGB: 1, Fetcher: NewHTTPFetcher(srv.URL+"/%s.pdb", nil)})
	require.NoError(Te, err)
	S.freeSpace = func(string) (uint64, error) { return 1000, nil }
	sess := pdbsite.NewSession()
	_, err = S.Get(context.Background(), sess, "1ABC")
	assert.ErrorIs(Te, err, errDiskFull)
	assert.False(Te, sess.Unfetchable("1ABC"))
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func TestS3Fetcher(Te *testing.T) {
	pdb := fixture(Te)
	F := newS3Fetcher(&fakeS3{objects: map[string][]byte{"pdb/1ABC.pdb": pdb}}, S3Config{Bucket: "b", Key: "pdb/%s.pdb"})
	r, err := F.Fetch(context.Background(), "1ABC")
	require.NoError(Te, err)
	got, err := io.ReadAll(r)
	require.NoError(Te, err)
	require.NoError(Te, r.Close())
	assert.Equal(Te, pdb, got)
	_, err = F.Fetch(context.Background(), "2XYZ")
	assert.True(Te, errors.Is(err, pdbsite.ErrNotFound))
}
