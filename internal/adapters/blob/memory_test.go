package blob

import (
	"context"
	"testing"

	perr "gridday/internal/platform/errors"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Put(ctx, "inputs/2023-07-31/12/result.json", []byte(`{"ok":true}`), "application/json"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := m.Fetch(ctx, "inputs/2023-07-31/12/result.json")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Fatalf("fetch data = %s", data)
	}

	// mutation of the fetched slice must not leak into the store
	data[0] = 'X'
	again, _ := m.Fetch(ctx, "inputs/2023-07-31/12/result.json")
	if string(again) != `{"ok":true}` {
		t.Fatalf("store was mutated through fetch copy")
	}
}

func TestMemoryMissingKey(t *testing.T) {
	m := NewMemory()
	_, err := m.Fetch(context.Background(), "nope")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
