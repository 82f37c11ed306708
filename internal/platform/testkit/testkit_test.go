package testkit

import "testing"

var seamVar = func() int { return 1 }

func TestMustPanicAndNot(t *testing.T) {
	MustPanic(t, func() { panic("boom") })
	MustNotPanic(t, func() {})
}

func TestSwapRestores(t *testing.T) {
	t.Run("swapped", func(t *testing.T) {
		Swap(t, &seamVar, func() int { return 99 })
		if seamVar() != 99 {
			t.Fatalf("swap did not take effect")
		}
	})
	if seamVar() != 1 {
		t.Fatalf("swap did not restore original")
	}
}

func TestMustContain(t *testing.T) {
	MustContain(t, `{"level":"info","msg":"hello"}`, `"msg":"hello"`)
}
