package service

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"gridday/internal/adapters/blob"
	"gridday/internal/services/publish/domain"
)

func TestZipDeterministic(t *testing.T) {
	at := time.Date(2023, 7, 31, 23, 30, 0, 0, time.UTC)
	entries := []domain.ZipEntry{
		{Name: "b.uct", Data: []byte("second")},
		{Name: "a.uct", Data: []byte("first")},
	}

	one, err := Zip(entries, at)
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	// reversed caller order yields identical bytes
	two, err := Zip([]domain.ZipEntry{entries[1], entries[0]}, at)
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if !bytes.Equal(one, two) {
		t.Fatalf("zip bytes depend on entry order")
	}

	r, err := zip.NewReader(bytes.NewReader(one), int64(len(one)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(r.File) != 2 || r.File[0].Name != "a.uct" || r.File[1].Name != "b.uct" {
		t.Fatalf("entries not sorted: %v", r.File)
	}
}

func TestZipRejectsUnnamedEntry(t *testing.T) {
	if _, err := Zip([]domain.ZipEntry{{Data: []byte("x")}}, time.Now()); err == nil {
		t.Fatalf("unnamed entry should fail")
	}
}

func TestPublishDay(t *testing.T) {
	store := blob.NewMemory()
	svc := New(store, Config{KeyPrefix: "outbox/"})

	day := time.Date(2023, 7, 31, 0, 0, 0, 0, time.UTC)
	keys, err := svc.PublishDay(context.Background(), day, 1, []domain.Artifact{
		{Name: "doc.xml", Data: []byte("<x/>"), ContentType: "application/xml"},
		{Name: "meta.csv", Data: []byte("a;b"), ContentType: "text/csv"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	want := []string{"outbox/2023-07-31/v01/doc.xml", "outbox/2023-07-31/v01/meta.csv"}
	if len(keys) != 2 || keys[0] != want[0] || keys[1] != want[1] {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	data, err := store.Fetch(context.Background(), want[0])
	if err != nil || string(data) != "<x/>" {
		t.Fatalf("uploaded content wrong: %s, %v", data, err)
	}
}
