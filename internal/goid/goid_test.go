package goid

import "testing"

func TestCurrentStableWithinGoroutine(t *testing.T) {
	a, b := Current(), Current()
	if a == 0 {
		t.Fatal("expected a non-zero goroutine id")
	}
	if a != b {
		t.Fatalf("goroutine id changed within one goroutine: %d != %d", a, b)
	}
}

func TestCurrentDiffersAcrossGoroutines(t *testing.T) {
	mine := Current()
	ch := make(chan uint64)
	go func() { ch <- Current() }()
	if other := <-ch; other == mine {
		t.Fatalf("expected a different id in a new goroutine, both were %d", mine)
	}
}
