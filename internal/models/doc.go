// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Package models holds the data types shared by the store, the forum
// service, the HTTP API and the importer.
//
// JSON tags are the wire format of the REST API. Store-only fields such as
// password hashes carry `json:"-"` and never leave the process.
package models
