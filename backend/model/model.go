package model

import "encoding/json"

// Inbound event types.
const (
	EventJoin        = "join"
	EventReady       = "ready"
	EventOffer       = "offer"
	EventAnswer      = "answer"
	EventCandidate   = "ice-candidate"
	EventOnLeave     = "onLeave"
	EventSkip        = "skip"
	EventMessageSend = "message_send"
	EventLeaveOn     = "leave_on"
)

// Outbound event types. Spellings match the deployed client protocol
// and must not be "fixed".
const (
	EventCreated         = "created"
	EventJoined          = "joined"
	EventFull            = "full"
	EventLeave           = "leave"
	EventSkippedUsers    = "skipped_users"
	EventClearMessages   = "clear_messages"
	EventMessageReceived = "message_recieved"
	EventWaitingRooms    = "getWaitingRooms"
)

// Event is a single wire frame. Payload stays opaque for the WebRTC
// negotiation events; join, chat and snapshot payloads are typed below.
type Event struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id,omitempty"`
	SRC     string          `json:"src,omitempty"` // for inbound messages server re-assigns this based on websocket session
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	RoomID   string `json:"roomId"`
	UserSkip bool   `json:"userskip"`
}

type ChatPayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type ChatMessage struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// Snapshot is the global view pushed to every connected client after
// each mutation, and once on connect.
type Snapshot struct {
	WaitingQueue        []string            `json:"waiting_queue"`
	ActiveSessionsUsers map[string][]string `json:"active_sessions_users"`
}

// Room holds at most two members. Join order is preserved.
type Room struct {
	ID       string        `json:"room_id"`
	Members  []string      `json:"members"`
	Messages []ChatMessage `json:"-"`
}

const MaxRoomMembers = 2

type Wire struct {
	RX chan Event
	TX chan Event
}

func NewWire() Wire {
	return Wire{
		RX: make(chan Event),
		TX: make(chan Event),
	}
}
