// Package module provides the aggregation module implementation
package module

import (
	"gridday/internal/modkit"
	"gridday/internal/services/aggregate/domain"
	"gridday/internal/services/aggregate/metrics"
	"gridday/internal/services/aggregate/repo"
	"gridday/internal/services/aggregate/service"
)

// Ports defines the aggregation module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the aggregation module
type Module struct {
	deps  modkit.Deps
	name  string
	ports Ports
}

var _ modkit.Module = (*Module)(nil)

// New constructs the aggregation module. The blob and publisher seams
// arrive via WithPorts(aggregate/domain.Ports); the metrics sink is wired
// only when ClickHouse is open.
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("aggregate"),
	}, opts...)...)

	ports, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("aggregate module: expected WithPorts(aggregate/domain.Ports)")
	}
	if ports.Blob == nil || ports.Publisher == nil {
		panic("aggregate module: Ports missing Blob or Publisher")
	}

	var sink domain.MetricsSink
	if deps.CH != nil {
		sink = metrics.NewSink(deps.CH)
	}

	svc := service.New(
		deps.PG,
		repo.NewPG(),
		ports.Blob,
		ports.Publisher,
		sink,
		FromConfig(deps.Cfg).serviceConfig(),
	)

	m := &Module{deps: deps, name: b.Name}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
