// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

/*
Package main is the entry point for the Flowsentry detection server.

Flowsentry scores network flow feature vectors against an ensemble of
pre-trained classification models and streams verdicts to connected
operators in real time. Capture agents submit flows over the REST API,
the WebSocket stream, or (optionally) NATS JetStream.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("flowsentry")
	├── DataSupervisor ("data-layer")
	│   └── Badger value-log maintenance (store backend "badger")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (live detection streaming)
	│   ├── Detection dispatch (result fanout)
	│   ├── Sync Manager (trainer artifact sync, optional)
	│   └── NATS ingestion (optional, -tags nats)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (Chi router)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Model Registry: gob artifact catalog with atomic reload
 4. Result Store: Badger, Redis, in-memory, or none
 5. WebSocket Hub: live detection streaming
 6. Detection Service: sanitize, vote, score pipeline
 7. Authentication: JWT, API key, multi, or no-auth mode
 8. Trainer Sync: artifact polling and catalog reload (optional)
 9. NATS Ingestion: JetStream flow consumption (optional, -tags nats)
 10. Supervisor Tree: Suture v4 process supervision
 11. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_PORT=8080               # HTTP listen port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Models
	MODELS_DIR=./models          # Serialized model artifact directory
	MODELS_REQUIRE_LOADED=false  # Refuse detections with an empty catalog

	# Authentication (choose one mode)
	AUTH_MODE=jwt                # jwt, apikey, multi, or none
	JWT_SECRET=<32+ chars>       # Required for jwt/multi modes
	ADMIN_USERNAME=admin
	ADMIN_PASSWORD=<password>
	API_KEY_HASHES=<bcrypt,...>  # Required for apikey/multi modes

	# Result store
	STORE_BACKEND=memory         # badger, redis, memory, or none

	# NATS ingestion (requires -tags nats)
	NATS_ENABLED=false
	NATS_EMBEDDED=true           # Run an embedded JetStream server
	NATS_FLOW_SUBJECT=flows.raw

	# Trainer artifact sync
	SYNC_ENABLED=false
	SYNC_TRAINER_URL=http://trainer:9090

# Build Tags

Optional build tags enable additional functionality:

	go build ./cmd/server              # REST + WebSocket ingestion only
	go build -tags nats ./cmd/server   # Enable NATS JetStream ingestion

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:
  - Stops accepting new connections
  - Waits for in-flight requests to complete (shutdown timeout)
  - Drains the detection dispatch channel
  - Shuts down NATS components if enabled
*/
package main
