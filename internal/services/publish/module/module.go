// Package module provides the publish module implementation
package module

import (
	"gridday/internal/modkit"
	"gridday/internal/services/publish/domain"
	"gridday/internal/services/publish/service"
)

// Ports defines the publish module ports
type Ports struct {
	Publisher domain.PublisherPort
}

// Module implements the publish module
type Module struct {
	deps  modkit.Deps
	name  string
	ports Ports
}

var _ modkit.Module = (*Module)(nil)

// New constructs the publish module; the upload seam arrives via
// WithPorts(publish/domain.Ports)
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("publish"),
	}, opts...)...)

	ports, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("publish module: expected WithPorts(publish/domain.Ports)")
	}
	if ports.Blob == nil {
		panic("publish module: Ports missing Blob")
	}

	cfg := deps.Cfg.Prefix("CORE_PUBLISH_")
	svc := service.New(ports.Blob, service.Config{
		KeyPrefix: cfg.MayString("KEY_PREFIX", "outbox/"),
	})

	m := &Module{deps: deps, name: b.Name}
	m.ports = Ports{Publisher: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
