package memory

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/rajputgovind/swit-call-server/backend/model"
)

func TestStoreMembershipCap(t *testing.T) {
	s := NewStore()
	s.Reset("r1", "A")

	if !s.AddMember("r1", "B") {
		t.Fatal("second member should be accepted")
	}
	if s.AddMember("r1", "C") {
		t.Error("third member should be rejected")
	}
	if s.AddMember("r1", "B") {
		t.Error("existing member should not be added twice")
	}
	if got := s.MembersOf("r1"); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("unexpected members: %s", spew.Sdump(got))
	}
}

func TestStoreAddMemberAbsentRoom(t *testing.T) {
	s := NewStore()
	if s.AddMember("nope", "A") {
		t.Error("add to absent room should report false")
	}
	if s.Has("nope") {
		t.Error("add to absent room should not create it")
	}
}

func TestStoreResetReplacesRoom(t *testing.T) {
	s := NewStore()
	s.Reset("r1", "A")
	s.AddMember("r1", "B")
	s.AppendMessage("r1", "A", "hi")

	s.Reset("r1", "C")
	if got := s.MembersOf("r1"); len(got) != 1 || got[0] != "C" {
		t.Errorf("reset should leave only the new member, got %s", spew.Sdump(got))
	}
	if hist := s.History("r1"); len(hist) != 0 {
		t.Errorf("reset should wipe messages, got %s", spew.Sdump(hist))
	}
}

func TestStoreRemoveMemberClearsMessages(t *testing.T) {
	s := NewStore()
	s.Reset("r1", "A")
	s.AddMember("r1", "B")
	if !s.AppendMessage("r1", "A", "hello") {
		t.Fatal("append to occupied room should succeed")
	}

	s.RemoveMember("r1", "B")
	if hist := s.History("r1"); len(hist) != 0 {
		t.Errorf("departure must wipe history, got %s", spew.Sdump(hist))
	}
	if got := s.Size("r1"); got != 1 {
		t.Errorf("expected 1 remaining member, got %d", got)
	}

	s.RemoveMember("r1", "A")
	if s.Has("r1") {
		t.Error("empty room must not be stored")
	}

	// idempotent on absent room
	s.RemoveMember("r1", "A")
}

func TestStoreAppendMessageGuard(t *testing.T) {
	s := NewStore()
	if s.AppendMessage("r1", "A", "hello") {
		t.Error("append to absent room should be a no-op")
	}

	s.Reset("r1", "A")
	s.AppendMessage("r1", "A", "one")
	s.AppendMessage("r1", "A", "two")
	want := []model.ChatMessage{
		{Sender: "A", Message: "one"},
		{Sender: "A", Message: "two"},
	}
	got := s.History("r1")
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("unexpected history: %s", spew.Sdump(got))
	}
}

func TestStoreSkipHistoryOrderedSet(t *testing.T) {
	s := NewStore()
	s.RecordSkip("A", "r1")
	s.RecordSkip("A", "r2")
	s.RecordSkip("A", "r1")

	got := s.SkipHistory("A")
	if len(got) != 2 || got[0] != "r1" || got[1] != "r2" {
		t.Errorf("skip history must be an ordered set, got %s", spew.Sdump(got))
	}
	if hist := s.SkipHistory("B"); len(hist) != 0 {
		t.Errorf("unknown token must have empty history, got %s", spew.Sdump(hist))
	}

	s.ForgetSkips("A")
	if hist := s.SkipHistory("A"); len(hist) != 0 {
		t.Errorf("forgotten history must be empty, got %s", spew.Sdump(hist))
	}
}

func TestStoreActiveMembersIsACopy(t *testing.T) {
	s := NewStore()
	s.Reset("r1", "A")

	view := s.ActiveMembers()
	view["r1"][0] = "mutated"
	view["r2"] = []string{"X"}

	if got := s.MembersOf("r1"); got[0] != "A" {
		t.Error("snapshot mutation leaked into the store")
	}
	if s.Has("r2") {
		t.Error("snapshot mutation created a room")
	}
}
