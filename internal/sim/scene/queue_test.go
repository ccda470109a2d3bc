package scene

import "testing"

func TestResultQueue_FIFOAcrossGrowth(t *testing.T) {
	var q resultQueue
	next := 0
	// Interleave pushes and pops so head wraps before the buffer grows.
	for round := 0; round < 5; round++ {
		for i := 0; i < 13; i++ {
			q.push(ChunkResult{Total: round*100 + i})
		}
		for i := 0; i < 7; i++ {
			r, ok := q.pop()
			if !ok {
				t.Fatalf("pop failed")
			}
			want := (next/13)*100 + next%13
			if got := r.(ChunkResult).Total; got != want {
				t.Fatalf("pop %d: got %d want %d", next, got, want)
			}
			next++
		}
	}
	for q.len() > 0 {
		r, _ := q.pop()
		want := (next/13)*100 + next%13
		if got := r.(ChunkResult).Total; got != want {
			t.Fatalf("pop %d: got %d want %d", next, got, want)
		}
		next++
	}
	if next != 65 {
		t.Fatalf("popped %d want 65", next)
	}
	if _, ok := q.pop(); ok {
		t.Fatalf("pop on empty queue")
	}
	if len(q.buf)&(len(q.buf)-1) != 0 {
		t.Fatalf("capacity %d not a power of two", len(q.buf))
	}
}
