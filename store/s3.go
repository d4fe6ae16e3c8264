/*
 * s3.go, part of pdbsite.
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
	"errors"
	"fmt"
	"io"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rmera/pdbsite"
)

// S3Config holds the parameters of an S3-compatible mirror of PDB files
// (AWS S3 or MinIO).
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string //optional, for MinIO and other compatible services.
	PathStyle bool
	//Key is a template for the object key, with a %s for the structure ID.
	//The extension of the key decides the decompression used.
	Key string
}

// s3API is the part of the S3 client used, so tests can replace it.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher gets structures from an S3 bucket.
type S3Fetcher struct {
	client s3API
	bucket string
	key    string
}

// NewS3Fetcher creates an S3Fetcher from cfg. Credentials come from the
// default AWS chain.
func NewS3Fetcher(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("NewS3Fetcher: s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("NewS3Fetcher: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Fetcher(client, cfg), nil
}

func newS3Fetcher(client s3API, cfg S3Config) *S3Fetcher {
	key := cfg.Key
	if key == "" {
		key = "%s.pdb.gz"
	}
	return &S3Fetcher{client: client, bucket: cfg.Bucket, key: key}
}

// Fetch gets the object for the structure id.
func (F *S3Fetcher) Fetch(ctx context.Context, id string) (io.ReadCloser, error) {
	key := fmt.Sprintf(F.key, id)
	out, err := F.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &F.bucket, Key: &key})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("S3Fetcher.Fetch: %s: %w", key, pdbsite.ErrNotFound)
		}
		return nil, fmt.Errorf("S3Fetcher.Fetch: %s: %w", key, err)
	}
	r, closer, err := pdbsite.Decompressor(out.Body, key)
	if err != nil {
		out.Body.Close()
		return nil, fmt.Errorf("S3Fetcher.Fetch: %s: %w", key, err)
	}
	return &readCloser{Reader: r, close: func() error {
		closer()
		return out.Body.Close()
	}}, nil
}
