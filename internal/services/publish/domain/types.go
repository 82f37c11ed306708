// Package domain holds the artifact shapes and ports of publication
package domain

import (
	"context"
	"time"
)

// Artifact is one named output file ready for upload
type Artifact struct {
	Name        string
	Data        []byte
	ContentType string
}

// ZipEntry is one member of a bundled artifact
type ZipEntry struct {
	Name string
	Data []byte
}

// PublisherPort uploads a day's artifacts and returns their object keys
type PublisherPort interface {
	PublishDay(ctx context.Context, day time.Time, version int, artifacts []Artifact) ([]string, error)
}

// BlobPort is the upload seam, implemented by the blob adapter
type BlobPort interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Ports are the collaborators the publish module needs injected at build time
type Ports struct {
	Blob BlobPort
}
