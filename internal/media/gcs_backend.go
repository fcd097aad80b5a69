// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	gobreaker "github.com/sony/gobreaker/v2"
	"google.golang.org/api/option"

	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/metrics"
)

// objectStore is the slice of a GCS bucket the backend needs.
type objectStore interface {
	Write(ctx context.Context, name, contentType string, data []byte) error
	Read(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// GCSBackend stores images in a Cloud Storage bucket as
// <prefix>/<id>/full.jpg, thumb.jpg and meta.json. Every call goes through
// a circuit breaker so an unreachable bucket fails fast.
type GCSBackend struct {
	objects objectStore
	prefix  string
	cb      *gobreaker.CircuitBreaker[[]byte]
	name    string
}

// NewGCSBackend connects to the configured bucket.
func NewGCSBackend(ctx context.Context, cfg *config.MediaConfig) (*GCSBackend, error) {
	if cfg.GCSBucket == "" {
		return nil, fmt.Errorf("media: gcs backend requires a bucket")
	}
	var opts []option.ClientOption
	if cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	objects := &bucketObjects{client: client, bucket: client.Bucket(cfg.GCSBucket)}
	return newGCSBackend(objects, cfg), nil
}

func newGCSBackend(objects objectStore, cfg *config.MediaConfig) *GCSBackend {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	name := "media-gcs"
	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// a missing object is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	prefix := cfg.GCSPrefix
	if prefix == "" {
		prefix = "media"
	}
	return &GCSBackend{objects: objects, prefix: prefix, cb: cb, name: name}
}

// Name identifies the backend in metrics.
func (g *GCSBackend) Name() string { return "gcs" }

func (g *GCSBackend) objectName(id, variant string) string {
	file := variant + ".jpg"
	if variant == VariantMeta {
		file = "meta.json"
	}
	return path.Join(g.prefix, id, file)
}

func contentTypeOf(variant string) string {
	if variant == VariantMeta {
		return "application/json"
	}
	return "image/jpeg"
}

// Put uploads one variant.
func (g *GCSBackend) Put(ctx context.Context, id, variant string, data []byte) error {
	_, err := g.execute(func() ([]byte, error) {
		return nil, g.objects.Write(ctx, g.objectName(id, variant), contentTypeOf(variant), data)
	})
	return err
}

// Get downloads one variant.
func (g *GCSBackend) Get(ctx context.Context, id, variant string) ([]byte, error) {
	return g.execute(func() ([]byte, error) {
		return g.objects.Read(ctx, g.objectName(id, variant))
	})
}

// Delete removes all variants. Missing objects are ignored.
func (g *GCSBackend) Delete(ctx context.Context, id string) error {
	for _, v := range []string{VariantFull, VariantThumb, VariantMeta} {
		name := g.objectName(id, v)
		_, err := g.execute(func() ([]byte, error) {
			return nil, g.objects.Delete(ctx, name)
		})
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// Close releases the storage client.
func (g *GCSBackend) Close() error {
	return g.objects.Close()
}

func (g *GCSBackend) execute(fn func() ([]byte, error)) ([]byte, error) {
	data, err := g.cb.Execute(fn)
	switch {
	case err == nil || errors.Is(err, ErrNotFound):
		metrics.BreakerRequests.WithLabelValues(g.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.BreakerRequests.WithLabelValues(g.name, "rejected").Inc()
		logging.Warn().Err(err).Str("breaker", g.name).Msg("[CIRCUIT BREAKER] Request rejected")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		metrics.BreakerRequests.WithLabelValues(g.name, "failure").Inc()
	}
	return data, err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// bucketObjects adapts a storage bucket to objectStore.
type bucketObjects struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

func (b *bucketObjects) Write(ctx context.Context, name, contentType string, data []byte) error {
	w := b.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object %s: %w", name, err)
	}
	return nil
}

func (b *bucketObjects) Read(ctx context.Context, name string) ([]byte, error) {
	r, err := b.bucket.Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", name, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (b *bucketObjects) Delete(ctx context.Context, name string) error {
	err := b.bucket.Object(name).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrNotFound
	}
	return err
}

func (b *bucketObjects) Close() error {
	return b.client.Close()
}
