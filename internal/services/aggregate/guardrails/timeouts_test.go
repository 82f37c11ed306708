package guardrails

import (
	"context"
	"testing"
	"time"
)

func TestWithRunZeroBudgetInheritsParent(t *testing.T) {
	parent, pcancel := context.WithTimeout(context.Background(), time.Hour)
	defer pcancel()

	ctx, cancel := WithRun(parent, Timeouts{})
	defer cancel()

	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("child must inherit the parent deadline")
	}
	pdl, _ := parent.Deadline()
	if !dl.Equal(pdl) {
		t.Fatalf("deadline = %v, want parent %v", dl, pdl)
	}
}

func TestChildNeverExtendsParent(t *testing.T) {
	parent, pcancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer pcancel()

	ctx, cancel := ForFetch(parent, Timeouts{Fetch: time.Hour})
	defer cancel()

	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	pdl, _ := parent.Deadline()
	if dl.After(pdl) {
		t.Fatalf("child deadline %v extends parent %v", dl, pdl)
	}
}

func TestForDBAppliesBudget(t *testing.T) {
	ctx, cancel := ForDB(context.Background(), Timeouts{DB: 50 * time.Millisecond})
	defer cancel()

	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if until := time.Until(dl); until > 50*time.Millisecond || until <= 0 {
		t.Fatalf("budget = %v", until)
	}
}

func TestRemaining(t *testing.T) {
	if got := Remaining(context.Background()); got != 0 {
		t.Fatalf("no deadline should report zero, got %v", got)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if got := Remaining(ctx); got <= 0 || got > time.Minute {
		t.Fatalf("remaining = %v", got)
	}
}
