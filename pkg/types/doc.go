// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for source-engine: the query
// context enumeration, source profiles, per-context policy, scoring records,
// selection decisions, and component configuration.
package types
