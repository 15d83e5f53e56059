// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stores returns every RecordStore implementation under its display name.
// Badger runs in-memory so the suite stays hermetic.
func stores(t *testing.T) map[string]RecordStore {
	t.Helper()

	badgerStore, err := NewBadgerStore(BadgerConfig{Path: "", GCInterval: time.Minute})
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	t.Cleanup(func() {
		if err := badgerStore.Close(); err != nil {
			t.Errorf("close badger store: %v", err)
		}
	})

	return map[string]RecordStore{
		"memory": NewMemoryStore(),
		"badger": badgerStore,
	}
}

func TestRecordStorePutGetDelete(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "absent"); !errors.Is(err, ErrKeyNotFound) {
				t.Fatalf("Get(absent) error = %v, want ErrKeyNotFound", err)
			}

			if err := s.Put(ctx, "match:u1:jobs", []byte(`{"score":72}`)); err != nil {
				t.Fatalf("Put: %v", err)
			}
			got, err := s.Get(ctx, "match:u1:jobs")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `{"score":72}` {
				t.Fatalf("Get = %s, want original value", got)
			}

			// Put replaces unconditionally.
			if err := s.Put(ctx, "match:u1:jobs", []byte(`{"score":85}`)); err != nil {
				t.Fatalf("Put overwrite: %v", err)
			}
			got, err = s.Get(ctx, "match:u1:jobs")
			if err != nil {
				t.Fatalf("Get after overwrite: %v", err)
			}
			if string(got) != `{"score":85}` {
				t.Fatalf("Get after overwrite = %s, want replaced value", got)
			}

			if err := s.Delete(ctx, "match:u1:jobs"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Get(ctx, "match:u1:jobs"); !errors.Is(err, ErrKeyNotFound) {
				t.Fatalf("Get after delete error = %v, want ErrKeyNotFound", err)
			}

			// Deleting a missing key is a no-op, not an error.
			if err := s.Delete(ctx, "never-existed"); err != nil {
				t.Fatalf("Delete(missing) = %v, want nil", err)
			}
		})
	}
}

func TestRecordStoreListByPrefix(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed := map[string]string{
				"experiment:exp-1": `{"status":"running"}`,
				"experiment:exp-2": `{"status":"draft"}`,
				"model:cities":     `{"status":"ready"}`,
			}
			for k, v := range seed {
				if err := s.Put(ctx, k, []byte(v)); err != nil {
					t.Fatalf("Put(%s): %v", k, err)
				}
			}

			got, err := s.List(ctx, "experiment:")
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("List(experiment:) returned %d records, want 2", len(got))
			}
			if string(got["experiment:exp-2"]) != `{"status":"draft"}` {
				t.Fatalf("List value for exp-2 = %s", got["experiment:exp-2"])
			}
			if _, ok := got["model:cities"]; ok {
				t.Fatal("List(experiment:) leaked a model record")
			}

			empty, err := s.List(ctx, "forecast:")
			if err != nil {
				t.Fatalf("List(forecast:): %v", err)
			}
			if len(empty) != 0 {
				t.Fatalf("List(forecast:) returned %d records, want 0", len(empty))
			}
		})
	}
}

func TestPutJSONGetJSON(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type record struct {
		City  string  `json:"city"`
		Score float64 `json:"score"`
	}

	if err := PutJSON(ctx, s, "trend:lisbon", record{City: "lisbon", Score: 0.74}); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}

	var got record
	if err := GetJSON(ctx, s, "trend:lisbon", &got); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got.City != "lisbon" || got.Score != 0.74 {
		t.Fatalf("GetJSON = %+v", got)
	}

	if err := GetJSON(ctx, s, "trend:missing", &got); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("GetJSON(missing) error = %v, want ErrKeyNotFound", err)
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	val := []byte(`{"a":1}`)
	if err := s.Put(ctx, "k", val); err != nil {
		t.Fatalf("Put: %v", err)
	}
	val[2] = 'z'

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("stored value mutated through caller slice: %s", got)
	}
}
