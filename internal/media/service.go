// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Package media accepts image uploads, produces a bounded full-size JPEG
// and a thumbnail, and stores both in Badger or Google Cloud Storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/kvstore"
	"github.com/tomtom215/indieforge/internal/logging"
	"github.com/tomtom215/indieforge/internal/metrics"
	"github.com/tomtom215/indieforge/internal/models"
)

var (
	ErrNotFound    = errors.New("media not found")
	ErrTooLarge    = errors.New("upload exceeds the size limit")
	ErrUnavailable = errors.New("media storage unavailable")
)

// DefaultMaxUploadBytes is used when the config leaves the limit unset.
const DefaultMaxUploadBytes = 10 << 20

// Service processes uploads and serves stored images.
type Service struct {
	backend   Backend
	processor *Processor
	maxUpload int64
	urlPrefix string
	now       func() time.Time
}

// NewService creates a media service over backend.
func NewService(backend Backend, cfg *config.MediaConfig) *Service {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Service{
		backend:   backend,
		processor: NewProcessor(cfg.MaxPixels, cfg.MaxDimension, cfg.ThumbDimension, cfg.JPEGQuality),
		maxUpload: maxUpload,
		urlPrefix: "/api/v1/media/",
		now:       time.Now,
	}
}

// NewBackend picks the backend named in cfg.
func NewBackend(ctx context.Context, cfg *config.MediaConfig, kv *kvstore.Store) (Backend, error) {
	switch cfg.Backend {
	case "", "badger":
		if kv == nil {
			return nil, fmt.Errorf("media: badger backend requires the kv store")
		}
		return NewBadgerBackend(kv), nil
	case "gcs":
		return NewGCSBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("media: unknown backend %q", cfg.Backend)
	}
}

// MaxUploadBytes is the largest accepted upload.
func (s *Service) MaxUploadBytes() int64 { return s.maxUpload }

// Upload reads an image from r, resizes it and stores both variants with
// their metadata.
func (s *Service) Upload(ctx context.Context, ownerID string, r io.Reader) (info *models.MediaInfo, err error) {
	var full, thumb int
	defer func() {
		metrics.RecordMediaUpload(s.backend.Name(), full, thumb, err)
	}()

	data, err := readLimited(r, s.maxUpload)
	if err != nil {
		return nil, err
	}
	processed, err := s.processor.Process(data)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	info = &models.MediaInfo{
		ID:          id,
		OwnerID:     ownerID,
		ContentType: "image/jpeg",
		Width:       processed.FullWidth,
		Height:      processed.FullHeight,
		ThumbWidth:  processed.ThumbWidth,
		ThumbHeight: processed.ThumbHeight,
		Bytes:       int64(len(processed.Full)),
		ThumbBytes:  int64(len(processed.Thumb)),
		URL:         s.urlPrefix + id,
		ThumbURL:    s.urlPrefix + id + "/thumb",
		CreatedAt:   s.now().UTC(),
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encode media metadata: %w", err)
	}

	if err := s.backend.Put(ctx, id, VariantFull, processed.Full); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	if err := s.backend.Put(ctx, id, VariantThumb, processed.Thumb); err != nil {
		s.cleanup(id)
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}
	if err := s.backend.Put(ctx, id, VariantMeta, meta); err != nil {
		s.cleanup(id)
		return nil, fmt.Errorf("store metadata: %w", err)
	}

	full, thumb = len(processed.Full), len(processed.Thumb)
	logging.Debug().Str("media_id", id).Str("owner", ownerID).Str("format", processed.Format).
		Int("width", info.Width).Int("height", info.Height).Msg("Stored upload")
	return info, nil
}

func (s *Service) cleanup(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.backend.Delete(ctx, id); err != nil {
		logging.Warn().Err(err).Str("media_id", id).Msg("Failed to remove partial upload")
	}
}

// Get returns the bytes of the full or thumb variant and their content type.
func (s *Service) Get(ctx context.Context, id, variant string) ([]byte, string, error) {
	if variant != VariantFull && variant != VariantThumb {
		return nil, "", ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, "", ErrNotFound
	}
	data, err := s.backend.Get(ctx, id, variant)
	if err != nil {
		return nil, "", err
	}
	return data, "image/jpeg", nil
}

// Info returns the stored metadata of an image.
func (s *Service) Info(ctx context.Context, id string) (*models.MediaInfo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	raw, err := s.backend.Get(ctx, id, VariantMeta)
	if err != nil {
		return nil, err
	}
	var info models.MediaInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decode media metadata: %w", err)
	}
	return &info, nil
}

// Delete removes an image. Only the owner or an admin may delete.
func (s *Service) Delete(ctx context.Context, actor *models.Actor, id string) error {
	info, err := s.Info(ctx, id)
	if err != nil {
		return err
	}
	if actor == nil || (actor.ID != info.OwnerID && !actor.IsAdmin()) {
		return ErrForbidden
	}
	return s.backend.Delete(ctx, id)
}

// ErrForbidden is returned when a caller deletes someone else's image.
var ErrForbidden = errors.New("not allowed to delete this image")
