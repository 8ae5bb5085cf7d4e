package ws

import (
	"context"
	"errors"
	"time"

	"cups_webapp/internal/autoplay"
	"cups_webapp/internal/rgs"
	"cups_webapp/internal/round"

	"github.com/shopspring/decimal"
)

// DefaultCupMove is how long the browser takes to lift, lower or swap a cup
const DefaultCupMove = 220 * time.Millisecond

// Renderer drives the browser renderers of one session. It is the round
// presenter and observer and the auto-play reporter for that session.
type Renderer struct {
	hub   *Hub
	key   string
	clock round.Clock
	move  time.Duration
}

func NewRenderer(hub *Hub, sessionKey string, clock round.Clock, move time.Duration) *Renderer {
	if clock == nil {
		clock = round.SystemClock
	}
	return &Renderer{hub: hub, key: sessionKey, clock: clock, move: move}
}

var (
	_ round.Presenter   = (*Renderer)(nil)
	_ round.Observer    = (*Renderer)(nil)
	_ autoplay.Reporter = (*Renderer)(nil)
)

func (r *Renderer) emit(msgType string, payload any) {
	r.hub.Broadcast(r.key, Message{Type: msgType, Payload: payload})
}

// animate emits the event and waits for the browser animation to finish
func (r *Renderer) animate(ctx context.Context, msgType string, payload any) error {
	r.emit(msgType, payload)
	return r.clock.Sleep(ctx, r.move)
}

func (r *Renderer) CupCount() int {
	return round.CupCount
}

func (r *Renderer) SetCupsInteractive(enabled bool) {
	r.emit(MsgInteractive, InteractivePayload{Enabled: enabled})
}

func (r *Renderer) Lift(ctx context.Context, cup int) error {
	return r.animate(ctx, MsgLift, CupPayload{Cup: cup})
}

func (r *Renderer) Lower(ctx context.Context, cup int) error {
	return r.animate(ctx, MsgLower, CupPayload{Cup: cup})
}

func (r *Renderer) Swap(ctx context.Context, a, b int) error {
	return r.animate(ctx, MsgSwap, SwapPayload{A: a, B: b})
}

func (r *Renderer) ShowMarker(cup int) {
	r.emit(MsgShowMarker, CupPayload{Cup: cup})
}

func (r *Renderer) HideMarker() {
	r.emit(MsgHideMarker, nil)
}

func (r *Renderer) Layout() {
	r.emit(MsgLayout, nil)
}

func (r *Renderer) RoundState(roundID string, state round.State) {
	r.emit(MsgState, StatePayload{RoundID: roundID, State: state})
}

func (r *Renderer) BalanceUpdated(balance decimal.Decimal, resp *rgs.EndRoundResponse) {
	phase := round.PhasePlaying
	if resp != nil && resp.Balance.Amount != nil {
		phase = round.PhaseRest
	}
	r.emit(MsgBalance, BalancePayload{Balance: balance, Phase: phase})
}

func (r *Renderer) Progress(remaining int) {
	r.emit(MsgAutoPlay, AutoPlayPayload{Running: true, Remaining: remaining})
}

func (r *Renderer) Phase(phase round.Phase) {
	r.emit(MsgAutoPlay, AutoPlayPayload{Running: true, Phase: phase})
}

func (r *Renderer) RoundDone(out *round.Outcome) {
	r.emit(MsgRound, out)
}

func (r *Renderer) Stopped(reason autoplay.StopReason, err error) {
	p := AutoPlayPayload{Reason: string(reason)}
	if err != nil {
		p.Error = err.Error()
	}
	r.emit(MsgAutoPlay, p)
}

// Error reports a failed round to the renderers
func (r *Renderer) Error(err error) {
	p := ErrorPayload{Message: err.Error()}
	var rerr *rgs.Error
	if errors.As(err, &rerr) {
		p.Code = rerr.Code
	}
	r.emit(MsgError, p)
}
