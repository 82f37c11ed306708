package repokit

import (
	"context"
	"testing"

	"gridday/internal/platform/store"
)

type fakeRepo struct{ q Queryer }

func TestBindFunc(t *testing.T) {
	b := BindFunc[*fakeRepo](func(q Queryer) *fakeRepo { return &fakeRepo{q: q} })

	var q Queryer = stubQ{}
	r := MustBind[*fakeRepo](b, q)
	if r == nil || r.q == nil {
		t.Fatalf("MustBind returned unbound repo")
	}
}

func TestMustBindNilQueryerPanics(t *testing.T) {
	b := BindFunc[*fakeRepo](func(q Queryer) *fakeRepo { return &fakeRepo{q: q} })
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on nil Queryer")
		}
	}()
	MustBind[*fakeRepo](b, nil)
}

type stubQ struct{}

func (stubQ) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	return nil, nil
}
func (stubQ) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	return nil, nil
}
func (stubQ) QueryRow(ctx context.Context, sql string, args ...any) store.Row { return nil }
