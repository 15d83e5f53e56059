// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package storage provides the keyed record store backing match scores,
// recommendation models, experiments, and forecast predictions. Records are
// JSON documents addressed by prefixed string keys.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a key has no record.
var ErrKeyNotFound = errors.New("storage: key not found")

// RecordStore is a durable key/value store for JSON-encoded records.
// Put overwrites unconditionally, which is what every caller here wants:
// match scores and models are upserted, never versioned.
type RecordStore interface {
	// Put stores value under key, replacing any existing record.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the record under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all key/value pairs whose key starts with prefix.
	List(ctx context.Context, prefix string) (map[string][]byte, error)

	// Close releases the underlying resources.
	Close() error
}

// PutJSON marshals v with the store's codec and writes it under key.
func PutJSON(ctx context.Context, s RecordStore, key string, v any) error {
	data, err := marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data)
}

// GetJSON reads key and unmarshals the record into v.
func GetJSON(ctx context.Context, s RecordStore, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	return unmarshal(data, v)
}
