package memory

import (
	"github.com/rajputgovind/swit-call-server/backend/model"
)

// Store keeps rooms, their transient message buffers and per-connection
// skip history. It is plain data: callers are expected to serialize
// access (the matchmaking service guards all transitions with one lock).
type Store struct {
	rooms   map[string]*model.Room
	skipped map[string][]string
}

func NewStore() *Store {
	return &Store{
		rooms:   make(map[string]*model.Room),
		skipped: make(map[string][]string),
	}
}

// Reset stores a fresh room containing only the given member, replacing
// any previous room under the same id. Messages start empty.
func (s *Store) Reset(roomID, token string) *model.Room {
	room := &model.Room{
		ID:      roomID,
		Members: []string{token},
	}
	s.rooms[roomID] = room
	return room
}

func (s *Store) Has(roomID string) bool {
	_, ok := s.rooms[roomID]
	return ok
}

// AddMember adds token to the room. It reports false without touching
// the room if the room is absent, already holds two distinct members,
// or already lists the token.
func (s *Store) AddMember(roomID, token string) bool {
	room, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	for _, m := range room.Members {
		if m == token {
			return false
		}
	}
	if len(room.Members) >= model.MaxRoomMembers {
		return false
	}
	room.Members = append(room.Members, token)
	return true
}

// RemoveMember removes token from the room if present and wipes the
// room's message buffer unconditionally. Every departure clears history
// so a re-matched pair never sees stale context. A room left with zero
// members is deleted.
func (s *Store) RemoveMember(roomID, token string) {
	room, ok := s.rooms[roomID]
	if !ok {
		return
	}
	members := make([]string, 0, len(room.Members))
	for _, m := range room.Members {
		if m != token {
			members = append(members, m)
		}
	}
	room.Members = members
	room.Messages = nil
	if len(room.Members) == 0 {
		delete(s.rooms, roomID)
	}
}

func (s *Store) Size(roomID string) int {
	room, ok := s.rooms[roomID]
	if !ok {
		return 0
	}
	return len(room.Members)
}

func (s *Store) MembersOf(roomID string) []string {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]string, len(room.Members))
	copy(out, room.Members)
	return out
}

// AppendMessage records a chat message and reports whether it was
// stored. Rooms with no recorded members reject messages.
func (s *Store) AppendMessage(roomID, sender, text string) bool {
	room, ok := s.rooms[roomID]
	if !ok || len(room.Members) == 0 {
		return false
	}
	room.Messages = append(room.Messages, model.ChatMessage{
		Sender:  sender,
		Message: text,
	})
	return true
}

func (s *Store) History(roomID string) []model.ChatMessage {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]model.ChatMessage, len(room.Messages))
	copy(out, room.Messages)
	return out
}

// RecordSkip appends roomID to the connection's skip history. The
// history is an ordered set: skipping the same room twice records it
// once.
func (s *Store) RecordSkip(token, roomID string) {
	for _, id := range s.skipped[token] {
		if id == roomID {
			return
		}
	}
	s.skipped[token] = append(s.skipped[token], roomID)
}

func (s *Store) SkipHistory(token string) []string {
	hist := s.skipped[token]
	out := make([]string, len(hist))
	copy(out, hist)
	return out
}

// ForgetSkips drops the connection's skip history. Called on
// disconnect: the token is never reused, so the history is dead weight.
func (s *Store) ForgetSkips(token string) {
	delete(s.skipped, token)
}

func (s *Store) RoomCount() int {
	return len(s.rooms)
}

// ActiveMembers returns a copy of the full roomID -> members view for
// the global snapshot.
func (s *Store) ActiveMembers() map[string][]string {
	out := make(map[string][]string, len(s.rooms))
	for id, room := range s.rooms {
		members := make([]string, len(room.Members))
		copy(members, room.Members)
		out[id] = members
	}
	return out
}
