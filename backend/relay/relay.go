package relay

import (
	"context"
	"sync"
	"time"

	"github.com/rajputgovind/swit-call-server/backend/model"
	"github.com/rs/zerolog"
)

const (
	defaultFwdTimout = time.Second
)

// Relay fans events out to connected clients. It only knows connection
// tokens and their wires; which tokens an event should reach is decided
// by the matchmaking service. Sends are fire-and-forget: a wire that
// does not accept within the timeout is logged and skipped, never
// retried.
type Relay struct {
	logger zerolog.Logger
	mx     *sync.RWMutex
	wires  map[string]model.Wire
}

func NewRelay(logger *zerolog.Logger) *Relay {
	return &Relay{
		logger: logger.With().Str("component", "relay").Logger(),
		mx:     &sync.RWMutex{},
		wires:  make(map[string]model.Wire),
	}
}

func (rl *Relay) Connect(token string, wire model.Wire) {
	rl.mx.Lock()
	defer func() {
		rl.mx.Unlock()
		rl.logger.Debug().
			Str("token", token).
			Msg("endpoint connected")
	}()

	rl.wires[token] = wire
}

func (rl *Relay) Disconnect(token string) {
	rl.mx.Lock()
	defer func() {
		rl.mx.Unlock()
		rl.logger.Debug().
			Str("token", token).
			Msg("endpoint disconnected")
	}()

	delete(rl.wires, token)
}

// SendTo forwards ev to each named token that is still connected.
func (rl *Relay) SendTo(ctx context.Context, ev model.Event, tokens ...string) {
	logger := rl.logger.With().
		Str("type", ev.Type).
		Str("src", ev.SRC).Logger()

	for _, token := range tokens {
		rl.mx.RLock()
		wire, ok := rl.wires[token]
		rl.mx.RUnlock()

		if !ok {
			logger.Debug().Str("dst", token).Msg("cannot forward, dst not found")
			continue
		}
		if _, canceled := send(ctx, ev, wire.TX, &logger); canceled {
			break
		}
	}
}

// Broadcast forwards ev to every connected client, the sender included.
func (rl *Relay) Broadcast(ctx context.Context, ev model.Event) {
	rl.mx.RLock()
	tokens := make([]string, 0, len(rl.wires))
	for token := range rl.wires {
		tokens = append(tokens, token)
	}
	rl.mx.RUnlock()

	if len(tokens) == 0 {
		rl.logger.Debug().
			Str("type", ev.Type).
			Msg("broadcast did not reach anyone")
		return
	}
	rl.SendTo(ctx, ev, tokens...)
}

func send(ctx context.Context, ev model.Event, tx chan<- model.Event, logger *zerolog.Logger) (bool, bool) {
	var sent, canceled bool
	tCh := time.NewTimer(defaultFwdTimout)
	select {
	case <-ctx.Done():
		canceled = true
	case <-tCh.C:
		logger.Error().Msg("dead endpoint")
	case tx <- ev:
		logger.Trace().Msg("event is forwarded")
		sent = true
	}
	tCh.Stop()
	return sent, canceled
}
