// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

// Package eventstream provides NATS JetStream ingestion for flow events.
//
// Capture agents that cannot speak HTTP publish flow events to a JetStream
// subject; this package consumes them through a durable queue-group
// subscriber and feeds them into the detection pipeline. Verdicts are
// published back to a result subject for downstream consumers (SIEM
// forwarders, alert routers).
//
// Architecture:
//
//	capture agent → JetStream (flows.raw) → Subscriber → Router → FlowHandler → detector.Service
//	                                                                                │
//	                                   results subject (flows.results) ← Publisher ─┘
//
// The Watermill Router wraps every handler with Recoverer, exponential
// backoff Retry, and an optional PoisonQueue that shunts permanently
// failing messages to a dead-letter subject instead of blocking the
// consumer group.
//
// All NATS-dependent code is behind the "nats" build tag. Without the tag
// the constructors return ErrNATSNotEnabled and the binary carries no NATS
// dependencies, matching deployments that only ingest over HTTP.
//
// An embedded nats-server can be started for single-node deployments so
// operators do not have to run a separate broker process.
package eventstream
