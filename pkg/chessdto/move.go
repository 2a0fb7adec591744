package chessdto

// MoveRecord describes one applied move. From and To are algebraic squares
// and may be absent in older records; Notation is then authoritative.
type MoveRecord struct {
	Notation    string `json:"notation"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	IsCapture   bool   `json:"isCapture"`
	IsCheck     bool   `json:"isCheck"`
	IsCheckmate bool   `json:"isCheckmate"`
}

type MovePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}
