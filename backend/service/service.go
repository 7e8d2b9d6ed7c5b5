package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rajputgovind/swit-call-server/backend/model"
	"github.com/rs/zerolog"
)

type (
	// RoomStore holds rooms, message buffers and skip history.
	// Implementations are plain data; Service serializes all access.
	RoomStore interface {
		Reset(roomID, token string) *model.Room
		Has(roomID string) bool
		AddMember(roomID, token string) bool
		RemoveMember(roomID, token string)
		Size(roomID string) int
		MembersOf(roomID string) []string
		AppendMessage(roomID, sender, text string) bool
		History(roomID string) []model.ChatMessage
		RecordSkip(token, roomID string)
		SkipHistory(token string) []string
		ForgetSkips(token string)
		RoomCount() int
		ActiveMembers() map[string][]string
	}

	// WaitingQueue lists rooms with exactly one occupant.
	WaitingQueue interface {
		Push(roomID string)
		Remove(roomID string)
		Clear()
		Snapshot() []string
	}

	// ConnectionRegistry maps connection tokens to their current room.
	ConnectionRegistry interface {
		SetRoom(token, roomID string)
		Room(token string) (string, bool)
		Clear(token string)
	}

	Relay interface {
		Connect(token string, wire model.Wire)
		Disconnect(token string)
		SendTo(ctx context.Context, ev model.Event, tokens ...string)
		Broadcast(ctx context.Context, ev model.Event)
	}

	// Service is the matchmaking engine. Every inbound event is one
	// atomic transition against store, queue and registry, guarded by a
	// single mutex; sends happen after the lock is released and are
	// fire-and-forget.
	Service struct {
		mx       sync.Mutex
		store    RoomStore
		queue    WaitingQueue
		registry ConnectionRegistry
		relay    Relay
		logger   zerolog.Logger
	}

	Config struct {
		RoomStore RoomStore
		Queue     WaitingQueue
		Registry  ConnectionRegistry
		Relay     Relay
		Logger    *zerolog.Logger
	}
)

func NewService(cfg Config) *Service {
	return &Service{
		store:    cfg.RoomStore,
		queue:    cfg.Queue,
		registry: cfg.Registry,
		relay:    cfg.Relay,
		logger:   cfg.Logger.With().Str("component", "matchmaker").Logger(),
	}
}

// CreateSession attaches a freshly connected client: it is registered
// with the relay, receives one global snapshot, and its inbound events
// are consumed until ctx is canceled. The snapshot send must not block
// the caller: the client's sender pump may not be draining the wire
// yet.
func (svc *Service) CreateSession(ctx context.Context, token string, wire model.Wire) {
	svc.relay.Connect(token, wire)

	svc.mx.Lock()
	snap := svc.snapshotLocked()
	svc.mx.Unlock()

	svc.logger.Debug().Str("token", token).Msg("session created")
	go func() {
		svc.relay.SendTo(ctx, svc.snapshotEvent(snap), token)
	}()
	go svc.consumeEvents(ctx, token, wire.RX)
}

// DeleteSession runs the disconnect transition and detaches the client
// from the relay. Safe to call more than once for the same token.
func (svc *Service) DeleteSession(ctx context.Context, token string) {
	svc.handleDisconnect(ctx, token)
	svc.relay.Disconnect(token)
	svc.logger.Debug().Str("token", token).Msg("session deleted")
}

func (svc *Service) consumeEvents(ctx context.Context, token string, rx <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-rx:
			if !ok {
				return
			}
			svc.HandleEvent(ctx, token, ev)
		}
	}
}

// HandleEvent dispatches one inbound event. Malformed events degrade to
// logged no-ops: a buggy client must never take the process down.
func (svc *Service) HandleEvent(ctx context.Context, token string, ev model.Event) {
	switch ev.Type {
	case model.EventJoin:
		var p model.JoinPayload
		if len(ev.Payload) > 0 {
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				svc.logger.Debug().Err(err).Str("token", token).Msg("malformed join payload")
				return
			}
		}
		if p.RoomID == "" {
			p.RoomID = ev.RoomID
		}
		svc.handleJoin(ctx, token, p)
	case model.EventReady, model.EventOffer, model.EventAnswer, model.EventCandidate:
		svc.relayToRoom(ctx, token, ev)
	case model.EventSkip:
		svc.handleSkip(ctx, token, ev.RoomID)
	case model.EventOnLeave:
		svc.handleLeave(ctx, token, ev.RoomID)
	case model.EventMessageSend:
		var p model.ChatPayload
		if len(ev.Payload) > 0 {
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				svc.logger.Debug().Err(err).Str("token", token).Msg("malformed chat payload")
				return
			}
		}
		if p.RoomID == "" {
			p.RoomID = ev.RoomID
		}
		svc.handleMessage(ctx, token, p)
	case model.EventLeaveOn:
		svc.handleQueueReset(ctx, token)
	default:
		svc.logger.Debug().
			Str("token", token).
			Str("type", ev.Type).
			Msg("unknown event type, dropped")
	}
}

// handleJoin overloads room creation and room joining based on
// occupancy. UserSkip forces a fresh room under the same name even if
// one exists, resetting whatever was there.
func (svc *Service) handleJoin(ctx context.Context, token string, p model.JoinPayload) {
	if p.RoomID == "" {
		svc.logger.Debug().Str("token", token).Msg("join without room id, dropped")
		return
	}

	svc.mx.Lock()
	var outcome string
	switch {
	case !svc.store.Has(p.RoomID) || p.UserSkip:
		// a forced re-create evicts whoever held the room before
		for _, evicted := range svc.store.MembersOf(p.RoomID) {
			svc.registry.Clear(evicted)
		}
		svc.store.Reset(p.RoomID, token)
		svc.registry.SetRoom(token, p.RoomID)
		outcome = model.EventCreated
	case svc.store.Size(p.RoomID) == 1:
		svc.store.AddMember(p.RoomID, token)
		svc.registry.SetRoom(token, p.RoomID)
		outcome = model.EventJoined
	default:
		outcome = model.EventFull
	}
	if outcome != model.EventFull {
		svc.syncQueueLocked(p.RoomID)
	}
	snap := svc.snapshotLocked()
	svc.mx.Unlock()

	svc.logger.Debug().
		Str("token", token).
		Str("roomID", p.RoomID).
		Str("outcome", outcome).
		Msg("join handled")

	svc.relay.SendTo(ctx, model.Event{Type: outcome}, token)
	if outcome != model.EventFull {
		svc.relay.Broadcast(ctx, svc.snapshotEvent(snap))
	}
}

// relayToRoom forwards a negotiation event verbatim to the other room
// occupant(s). Payload content is never inspected.
func (svc *Service) relayToRoom(ctx context.Context, token string, ev model.Event) {
	if ev.RoomID == "" {
		svc.logger.Debug().Str("token", token).Str("type", ev.Type).Msg("relay without room id, dropped")
		return
	}

	svc.mx.Lock()
	others := exclude(svc.store.MembersOf(ev.RoomID), token)
	svc.mx.Unlock()

	if len(others) == 0 {
		svc.logger.Debug().
			Str("token", token).
			Str("roomID", ev.RoomID).
			Str("type", ev.Type).
			Msg("nowhere to forward, dropped")
		return
	}
	svc.relay.SendTo(ctx, ev, others...)
}

func (svc *Service) handleSkip(ctx context.Context, token, roomID string) {
	svc.mx.Lock()
	members := svc.store.MembersOf(roomID)
	if !contains(members, token) {
		svc.mx.Unlock()
		svc.logger.Debug().
			Str("token", token).
			Str("roomID", roomID).
			Msg("skip by non-member, dropped")
		return
	}

	svc.store.RecordSkip(token, roomID)
	hist := svc.store.SkipHistory(token)
	svc.store.RemoveMember(roomID, token)
	svc.syncQueueLocked(roomID)
	svc.registry.Clear(token)
	snap := svc.snapshotLocked()
	svc.mx.Unlock()

	histPayload, err := json.Marshal(hist)
	if err != nil {
		svc.logger.Error().Err(err).Msg("failed to marshal skip history")
		return
	}

	svc.logger.Debug().Str("token", token).Str("roomID", roomID).Msg("skip handled")

	// both parties see the wipe and the skipper's history
	svc.relay.SendTo(ctx, model.Event{Type: model.EventClearMessages, RoomID: roomID}, members...)
	svc.relay.SendTo(ctx, model.Event{
		Type:    model.EventSkippedUsers,
		RoomID:  roomID,
		SRC:     token,
		Payload: histPayload,
	}, members...)
	svc.relay.Broadcast(ctx, svc.snapshotEvent(snap))
}

// handleLeave processes a voluntary leave. An omitted room id falls
// back to the room the registry tracks for this connection.
func (svc *Service) handleLeave(ctx context.Context, token, roomID string) {
	svc.mx.Lock()
	if roomID == "" {
		roomID, _ = svc.registry.Room(token)
	}
	if roomID == "" {
		svc.mx.Unlock()
		svc.logger.Debug().Str("token", token).Msg("leave without room, dropped")
		return
	}

	others := exclude(svc.store.MembersOf(roomID), token)
	svc.store.RemoveMember(roomID, token)
	svc.syncQueueLocked(roomID)
	if tracked, ok := svc.registry.Room(token); ok && tracked == roomID {
		svc.registry.Clear(token)
	}
	snap := svc.snapshotLocked()
	svc.mx.Unlock()

	svc.logger.Debug().Str("token", token).Str("roomID", roomID).Msg("leave handled")

	snapEv := svc.snapshotEvent(snap)
	svc.relay.Broadcast(ctx, snapEv)
	svc.relay.SendTo(ctx, snapEv, token)
	svc.relay.SendTo(ctx, model.Event{Type: model.EventLeave, RoomID: roomID}, others...)
}

// handleDisconnect is the leave cleanup sourced from the registry
// instead of an explicit argument. Processing it twice for the same
// token is a no-op. No leave event is sent, only the broadcast.
func (svc *Service) handleDisconnect(ctx context.Context, token string) {
	svc.mx.Lock()
	roomID, ok := svc.registry.Room(token)
	if !ok {
		svc.store.ForgetSkips(token)
		svc.mx.Unlock()
		return
	}

	svc.store.RemoveMember(roomID, token)
	svc.syncQueueLocked(roomID)
	svc.registry.Clear(token)
	svc.store.ForgetSkips(token)
	snap := svc.snapshotLocked()
	svc.mx.Unlock()

	svc.logger.Debug().Str("token", token).Str("roomID", roomID).Msg("disconnect handled")
	svc.relay.Broadcast(ctx, svc.snapshotEvent(snap))
}

// handleMessage appends to the room's history and forwards the whole
// accumulated history, not just the new entry. Clients rely on the
// full replay.
func (svc *Service) handleMessage(ctx context.Context, token string, p model.ChatPayload) {
	if p.RoomID == "" {
		svc.logger.Debug().Str("token", token).Msg("message without room id, dropped")
		return
	}

	svc.mx.Lock()
	if !svc.store.AppendMessage(p.RoomID, token, p.Message) {
		svc.mx.Unlock()
		svc.logger.Debug().
			Str("token", token).
			Str("roomID", p.RoomID).
			Msg("message for room with no members, dropped")
		return
	}
	hist := svc.store.History(p.RoomID)
	others := exclude(svc.store.MembersOf(p.RoomID), token)
	svc.mx.Unlock()

	if len(others) == 0 {
		return
	}
	histPayload, err := json.Marshal(hist)
	if err != nil {
		svc.logger.Error().Err(err).Msg("failed to marshal message history")
		return
	}
	svc.relay.SendTo(ctx, model.Event{
		Type:    model.EventMessageReceived,
		RoomID:  p.RoomID,
		SRC:     token,
		Payload: histPayload,
	}, others...)
}

// handleQueueReset drops the whole waiting queue once no rooms are
// active. Legacy repair operation kept for client compatibility.
func (svc *Service) handleQueueReset(ctx context.Context, token string) {
	svc.mx.Lock()
	if svc.store.RoomCount() == 0 {
		svc.queue.Clear()
	}
	snap := svc.snapshotLocked()
	svc.mx.Unlock()

	svc.logger.Debug().Str("token", token).Msg("queue reset handled")
	svc.relay.Broadcast(ctx, svc.snapshotEvent(snap))
}

// syncQueueLocked re-derives the room's queue membership from its
// size: queued iff exactly one occupant.
func (svc *Service) syncQueueLocked(roomID string) {
	if svc.store.Size(roomID) == 1 {
		svc.queue.Push(roomID)
	} else {
		svc.queue.Remove(roomID)
	}
}

func (svc *Service) snapshotLocked() model.Snapshot {
	return model.Snapshot{
		WaitingQueue:        svc.queue.Snapshot(),
		ActiveSessionsUsers: svc.store.ActiveMembers(),
	}
}

func (svc *Service) snapshotEvent(snap model.Snapshot) model.Event {
	b, err := json.Marshal(&snap)
	if err != nil {
		svc.logger.Error().Err(err).Msg("failed to marshal snapshot")
	}
	return model.Event{Type: model.EventWaitingRooms, Payload: b}
}

func contains(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

func exclude(tokens []string, token string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != token {
			out = append(out, t)
		}
	}
	return out
}
