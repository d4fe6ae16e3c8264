/*
 * fetch.go, part of pdbsite.
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
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rmera/pdbsite"
	"github.com/sirupsen/logrus"
)

// DefaultURL is the URL template used to download PDB files. %s is replaced
// by the structure ID.
const DefaultURL = "https://files.rcsb.org/download/%s.pdb"

// Fetcher obtains the PDB-formatted contents of a structure from a remote source.
// The returned stream is uncompressed.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (io.ReadCloser, error)
}

// HTTPFetcher downloads structures over HTTP. When the server answers with a
// Retry-After header of a positive number of seconds, the fetcher waits for
// that long and sends the same request again, for as long as the server keeps
// asking. There is no limit to the number of retries; ctx can be used to stop
// waiting.
type HTTPFetcher struct {
	URL    string //template, with a %s for the ID
	Client *http.Client
	Log    *logrus.Logger
	//Sleep waits for d. If nil, a timer that honors ctx is used.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewHTTPFetcher returns a fetcher for the URL template url, or DefaultURL if url is empty.
func NewHTTPFetcher(url string, log *logrus.Logger) *HTTPFetcher {
	if url == "" {
		url = DefaultURL
	}
	if log == nil {
		log = logrus.New()
	}
	return &HTTPFetcher{URL: url, Client: http.DefaultClient, Log: log}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryAfter returns the wait requested by the response, 0 if none.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	secs, err := strconv.Atoi(h)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Fetch downloads the structure id.
func (F *HTTPFetcher) Fetch(ctx context.Context, id string) (io.ReadCloser, error) {
	url := fmt.Sprintf(F.URL, id)
	sleep := F.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	client := F.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	var resp *http.Response
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("HTTPFetcher.Fetch: %s: %w", id, err)
		}
		resp, err = client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTPFetcher.Fetch: %s: %w", id, err)
		}
		wait := retryAfter(resp)
		if wait == 0 {
			break
		}
		resp.Body.Close()
		retryWaits.Inc()
		F.Log.WithFields(logrus.Fields{"id": id, "wait": wait}).Info("Server asked to wait before retrying")
		if err := sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("HTTPFetcher.Fetch: %s: %w", id, err)
		}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTPFetcher.Fetch: %s: got %s: %w", id, resp.Status, pdbsite.ErrNotFound)
	}
	F.Log.WithFields(logrus.Fields{"id": id, "elapsed": time.Since(start)}).Info("Got an OK reply")
	r, closer, err := pdbsite.Decompressor(resp.Body, url)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTPFetcher.Fetch: %s: %w", id, err)
	}
	return &readCloser{Reader: r, close: func() error {
		closer()
		return resp.Body.Close()
	}}, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }
