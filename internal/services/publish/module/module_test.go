package module

import (
	"context"
	"testing"
	"time"

	"gridday/internal/adapters/blob"
	"gridday/internal/modkit"
	"gridday/internal/platform/config"
	"gridday/internal/platform/testkit"
	"gridday/internal/services/publish/domain"
)

func TestNewWiresPublisherPort(t *testing.T) {
	deps := modkit.Deps{Cfg: config.New()}
	mem := blob.NewMemory()

	m := New(deps, modkit.WithPorts(domain.Ports{Blob: mem}))
	if m.Name() != "publish" {
		t.Fatalf("name = %q", m.Name())
	}
	ports, ok := m.Ports().(Ports)
	if !ok || ports.Publisher == nil {
		t.Fatalf("ports = %#v", m.Ports())
	}

	day := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	keys, err := ports.Publisher.PublishDay(context.Background(), day, 1, []domain.Artifact{
		{Name: "doc.xml", Data: []byte("<x/>"), ContentType: "application/xml"},
	})
	if err != nil {
		t.Fatalf("PublishDay: %v", err)
	}
	if len(keys) != 1 || keys[0] != "outbox/2024-06-12/v01/doc.xml" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestNewRequiresBlobPort(t *testing.T) {
	deps := modkit.Deps{Cfg: config.New()}
	testkit.MustPanic(t, func() { New(deps) })
	testkit.MustPanic(t, func() { New(deps, modkit.WithPorts(domain.Ports{})) })
}
