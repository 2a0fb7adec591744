package chessdto

// SavedGame is the stored form of a finished or abandoned game.
type SavedGame struct {
	ID     int64        `json:"id"`
	Date   string       `json:"date"`
	Result string       `json:"result"`
	Moves  []MoveRecord `json:"moves"`
}

type SavedGameList struct {
	Games []SavedGame `json:"games"`
}

type ClearResponse struct {
	Deleted int `json:"deleted"`
}

// ArchivedEvent is the webhook body sent when a live game is archived.
type ArchivedEvent struct {
	Type string    `json:"type"`
	Game SavedGame `json:"game"`
}
