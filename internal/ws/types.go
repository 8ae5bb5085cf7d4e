package ws

const (
	// client - server
	MsgPick = "pick"
	MsgPing = "ping"

	// server - client
	MsgReady       = "ready"
	MsgPong        = "pong"
	MsgState       = "state"
	MsgInteractive = "interactive"
	MsgLift        = "lift"
	MsgLower       = "lower"
	MsgSwap        = "swap"
	MsgShowMarker  = "show_marker"
	MsgHideMarker  = "hide_marker"
	MsgLayout      = "layout"
	MsgBalance     = "balance"
	MsgRound       = "round"
	MsgAutoPlay    = "autoplay"
	MsgError       = "error"
)

// Message is the server to renderer envelope
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// inbound is a renderer to server message
type inbound struct {
	Type string `json:"type"`
	Cup  *int   `json:"cup,omitempty"`
}
