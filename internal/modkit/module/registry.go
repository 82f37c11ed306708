package module

import "sync"

// process wide registry the run binaries fill during bootstrap; the
// aggregation binary composes a handful of modules in one process, so a
// name keyed map is all the cross wiring it needs
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores the port set published under a module name
func Register(name string, ports any) {
	mu.Lock()
	reg[name] = ports
	mu.Unlock()
}

// PortsAs looks up the port set registered under name and asserts it to T
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

// Reset clears the registry for tests
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}
