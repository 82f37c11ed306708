// Package service implements artifact bundling and upload
package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	perr "gridday/internal/platform/errors"
	"gridday/internal/platform/logger"
	"gridday/internal/services/publish/domain"
)

// Config holds publication options
type Config struct {
	// KeyPrefix is prepended to every uploaded object key
	KeyPrefix string
}

// Service uploads daily artifacts to object storage
type Service struct {
	Blob domain.BlobPort
	Cfg  Config
}

// New constructs the publish service
func New(blob domain.BlobPort, cfg Config) *Service {
	if blob == nil {
		panic("publish.Service requires a non nil BlobPort")
	}
	return &Service{Blob: blob, Cfg: cfg}
}

// PublishDay implements domain.PublisherPort. Uploads run in artifact order
// so retries after a partial failure re-cover the remainder.
func (s *Service) PublishDay(ctx context.Context, day time.Time, version int, artifacts []domain.Artifact) ([]string, error) {
	keys := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if a.Name == "" {
			return keys, perr.InvalidArgf("publish: artifact without name")
		}
		key := fmt.Sprintf("%s%s/v%02d/%s", s.Cfg.KeyPrefix, day.Format("2006-01-02"), version, a.Name)
		if err := s.Blob.Put(ctx, key, a.Data, a.ContentType); err != nil {
			return keys, perr.Wrapf(err, perr.ErrorCodeUnavailable, "publish: upload %s", a.Name)
		}
		logger.C(ctx).Debug().Str("key", key).Int("bytes", len(a.Data)).Msg("publish: artifact uploaded")
		keys = append(keys, key)
	}
	return keys, nil
}

// Zip bundles entries into a byte-deterministic archive: entries are stored
// sorted by name and every header carries the supplied timestamp, so the
// same content always produces the same bytes
func Zip(entries []domain.ZipEntry, at time.Time) ([]byte, error) {
	sorted := make([]domain.ZipEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range sorted {
		if e.Name == "" {
			return nil, perr.InvalidArgf("publish: zip entry without name")
		}
		hdr := &zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Deflate,
			Modified: at.UTC(),
		}
		f, err := w.CreateHeader(hdr)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "publish: zip header %s", e.Name)
		}
		if _, err := f.Write(e.Data); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "publish: zip write %s", e.Name)
		}
	}
	if err := w.Close(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "publish: zip close")
	}
	return buf.Bytes(), nil
}
