package memory

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestQueueOrderedSet(t *testing.T) {
	q := NewQueue()
	q.Push("r1")
	q.Push("r2")
	q.Push("r1") // dup
	q.Push("")   // falsy

	if got := q.Snapshot(); len(got) != 2 || got[0] != "r1" || got[1] != "r2" {
		t.Errorf("unexpected queue: %s", spew.Sdump(got))
	}
	if !q.Contains("r1") || q.Contains("r3") {
		t.Error("contains is wrong")
	}
}

func TestQueueRemove(t *testing.T) {
	q := NewQueue()
	q.Push("r1")
	q.Push("r2")
	q.Push("r3")

	q.Remove("r2")
	q.Remove("missing")

	if got := q.Snapshot(); len(got) != 2 || got[0] != "r1" || got[1] != "r3" {
		t.Errorf("remove must preserve order of the rest, got %s", spew.Sdump(got))
	}
}

func TestQueueClear(t *testing.T) {
	q := NewQueue()
	q.Push("r1")
	q.Clear()

	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d entries", q.Len())
	}
	if got := q.Snapshot(); got == nil || len(got) != 0 {
		t.Errorf("snapshot of empty queue must be an empty array, got %s", spew.Sdump(got))
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.SetRoom("A", "r1")

	if roomID, ok := r.Room("A"); !ok || roomID != "r1" {
		t.Errorf("expected r1, got %q (%v)", roomID, ok)
	}

	r.Clear("A")
	r.Clear("unknown") // no-op

	if _, ok := r.Room("A"); ok {
		t.Error("cleared token must not resolve")
	}
}
