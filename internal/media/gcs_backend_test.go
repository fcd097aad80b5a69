// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package media

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/indieforge/internal/config"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fail    bool
	calls   int
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (f *fakeObjects) Write(_ context.Context, name, contentType string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return errors.New("503 backend error")
	}
	f.objects[name] = append([]byte(nil), data...)
	f.types[name] = contentType
	return nil
}

func (f *fakeObjects) Read(_ context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("503 backend error")
	}
	data, ok := f.objects[name]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (f *fakeObjects) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, ok := f.objects[name]; !ok {
		return ErrNotFound
	}
	delete(f.objects, name)
	return nil
}

func (f *fakeObjects) Close() error { return nil }

func (f *fakeObjects) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestGCSBackend_ObjectLayout(t *testing.T) {
	objects := newFakeObjects()
	g := newGCSBackend(objects, &config.MediaConfig{GCSPrefix: "uploads"})
	ctx := context.Background()

	if err := g.Put(ctx, "abc", VariantFull, []byte("full")); err != nil {
		t.Fatal(err)
	}
	if err := g.Put(ctx, "abc", VariantThumb, []byte("thumb")); err != nil {
		t.Fatal(err)
	}
	if err := g.Put(ctx, "abc", VariantMeta, []byte("{}")); err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"uploads/abc/full.jpg":  "image/jpeg",
		"uploads/abc/thumb.jpg": "image/jpeg",
		"uploads/abc/meta.json": "application/json",
	}
	for name, ct := range want {
		if objects.types[name] != ct {
			t.Errorf("object %s content type = %q, want %q", name, objects.types[name], ct)
		}
	}

	data, err := g.Get(ctx, "abc", VariantThumb)
	if err != nil || !bytes.Equal(data, []byte("thumb")) {
		t.Errorf("Get() = %q, %v", data, err)
	}

	if err := g.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(objects.objects) != 0 {
		t.Errorf("objects left: %v", objects.objects)
	}
	// deleting again is not an error
	if err := g.Delete(ctx, "abc"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestGCSBackend_DefaultPrefix(t *testing.T) {
	g := newGCSBackend(newFakeObjects(), &config.MediaConfig{})
	if got := g.objectName("x", VariantFull); got != "media/x/full.jpg" {
		t.Errorf("objectName() = %s", got)
	}
	if g.Name() != "gcs" {
		t.Errorf("Name() = %s", g.Name())
	}
}

func TestGCSBackend_BreakerOpens(t *testing.T) {
	objects := newFakeObjects()
	objects.fail = true
	g := newGCSBackend(objects, &config.MediaConfig{BreakerMaxFailures: 2, BreakerTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := g.Put(ctx, "abc", VariantFull, []byte("x"))
		if err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: error = %v, want backend error", i, err)
		}
	}

	before := objects.callCount()
	if _, err := g.Get(ctx, "abc", VariantFull); !errors.Is(err, ErrUnavailable) {
		t.Errorf("open breaker: error = %v, want ErrUnavailable", err)
	}
	if objects.callCount() != before {
		t.Error("open breaker should not reach the bucket")
	}
}

func TestGCSBackend_NotFoundDoesNotTrip(t *testing.T) {
	objects := newFakeObjects()
	g := newGCSBackend(objects, &config.MediaConfig{BreakerMaxFailures: 2, BreakerTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := g.Get(ctx, "missing", VariantFull); !errors.Is(err, ErrNotFound) {
			t.Fatalf("call %d: error = %v, want ErrNotFound", i, err)
		}
	}
	if err := g.Put(ctx, "abc", VariantFull, []byte("x")); err != nil {
		t.Errorf("Put() after misses: %v", err)
	}
}
