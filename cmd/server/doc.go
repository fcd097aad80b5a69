// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

/*
Package main is the entry point of the IndieForge forum server.

IndieForge is a community forum for indie game developers: channels per
engine, posts with upvotes and threaded comments, private whispers,
engine rankings and an admin dashboard, served as a JSON API.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("indieforge")
	├── DataSupervisor ("data-layer")
	│   ├── Event bus (Watermill gochannel router)
	│   ├── Ranking scheduler (debounce + cron)
	│   ├── Audit logger (retention cleanup)
	│   └── KV store (Badger value log GC)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocket hub
	└── APISupervisor ("api-layer")
	    └── HTTP server (chi)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog with JSON or console output
 3. Database: DuckDB forum store
 4. KV store: Badger for token revocation, media and import progress
 5. Audit logger: DuckDB audit_events table
 6. Event bus, WebSocket hub, forum service and ranking scheduler
 7. Authentication: JWT or none mode, bootstrap admin
 8. Authorization: Casbin RBAC with the embedded policy
 9. Media: Badger or Google Cloud Storage backend
 10. HTTP server and supervisor tree

# Configuration

Priority: environment variables > config file > defaults.

	HTTP_PORT=8080
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	AUTH_MODE=jwt                # jwt or none
	JWT_SECRET=<32+ chars>
	ADMIN_EMAIL=admin@example.org
	ADMIN_PASSWORD=<password>

	DUCKDB_PATH=/data/indieforge.duckdb
	STORE_PATH=/data/store
	MEDIA_BACKEND=badger         # badger or gcs
	SEED_DEMO_DATA=false

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains
in-flight requests, the event bus drains its handlers and the audit logger
flushes buffered events before the process exits.

The forgectl command shares this configuration and runs the legacy import,
ranking recomputes and admin promotion offline.
*/
package main
