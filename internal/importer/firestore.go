// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package importer

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/tomtom215/indieforge/internal/config"
)

// Source reads legacy documents in document id order.
type Source interface {
	// ReadBatch returns up to limit documents with ids after afterID.
	// An empty afterID starts at the beginning.
	ReadBatch(ctx context.Context, collection, afterID string, limit int) ([]Document, error)
	Close() error
}

// FirestoreSource reads from the legacy Firestore project.
type FirestoreSource struct {
	client *firestore.Client
}

// NewFirestoreSource connects through the Firebase Admin SDK.
func NewFirestoreSource(ctx context.Context, cfg *config.FirestoreConfig) (*FirestoreSource, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore: project id is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &FirestoreSource{client: client}, nil
}

// ReadBatch pages through a collection ordered by document id.
func (s *FirestoreSource) ReadBatch(ctx context.Context, collection, afterID string, limit int) ([]Document, error) {
	q := s.client.Collection(collection).OrderBy(firestore.DocumentID, firestore.Asc).Limit(limit)
	if afterID != "" {
		q = q.StartAfter(afterID)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	docs := make([]Document, 0, limit)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s after %q: %w", collection, afterID, err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

// Close releases the client.
func (s *FirestoreSource) Close() error {
	return s.client.Close()
}
