package chessdto

type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type MoveResponse struct {
	Record MoveRecord `json:"record"`
	State  GameState  `json:"state"`
}

type CheckResponse struct {
	Color   string `json:"color"`
	InCheck bool   `json:"inCheck"`
}

type LegalResponse struct {
	From string   `json:"from"`
	To   []string `json:"to"`
}

type RestartResponse struct {
	Saved *SavedGame `json:"saved,omitempty"`
	State GameState  `json:"state"`
}

// ReplayCommand is sent by websocket replay clients. Op is one of next,
// prev, jump, play or pause.
type ReplayCommand struct {
	Op         string `json:"op"`
	Index      int    `json:"index,omitempty"`
	IntervalMS int    `json:"interval_ms,omitempty"`
}

// ReplayEvent is pushed to websocket replay clients. Exactly one of
// Snapshot and Error is set.
type ReplayEvent struct {
	Type     string       `json:"type"`
	Snapshot *Snapshot    `json:"snapshot,omitempty"`
	Error    *DomainError `json:"error,omitempty"`
}
