package repokit

// Binder builds a domain repo bound to a specific Queryer, so the same
// repo code runs against the pool or inside a transaction
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a plain function into a Binder; tests lean on it to
// inject fakes
type BindFunc[T any] func(Queryer) T

// Bind calls the underlying function
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// RequireQueryer panics when handed a nil Queryer; binding to nil is a
// wiring bug, not a runtime condition
func RequireQueryer(q Queryer) Queryer {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return q
}

// MustBind validates q then binds
func MustBind[T any](b Binder[T], q Queryer) T {
	return b.Bind(RequireQueryer(q))
}
