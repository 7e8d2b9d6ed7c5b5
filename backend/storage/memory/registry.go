package memory

// Registry maps a connection token to the room it currently occupies.
// Pure bookkeeping, no failure modes: clearing an unknown token is a
// no-op.
type Registry struct {
	rooms map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]string),
	}
}

func (r *Registry) SetRoom(token, roomID string) {
	r.rooms[token] = roomID
}

func (r *Registry) Room(token string) (string, bool) {
	roomID, ok := r.rooms[token]
	return roomID, ok
}

func (r *Registry) Clear(token string) {
	delete(r.rooms, token)
}
