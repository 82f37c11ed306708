package modkit

import "testing"

type pingPorts struct{ v int }

func TestBuildAppliesOptions(t *testing.T) {
	b := Build(WithName("aggregate"), WithPorts(pingPorts{v: 7}))
	if b.Name != "aggregate" {
		t.Fatalf("name = %q", b.Name)
	}
	p, ok := b.Ports.(pingPorts)
	if !ok || p.v != 7 {
		t.Fatalf("ports = %#v", b.Ports)
	}
}

func TestBuildLaterOptionWins(t *testing.T) {
	b := Build(WithName("one"), WithName("two"))
	if b.Name != "two" {
		t.Fatalf("name = %q", b.Name)
	}
}

func TestBuildZero(t *testing.T) {
	b := Build()
	if b.Name != "" || b.Ports != nil {
		t.Fatalf("zero build = %#v", b)
	}
}
