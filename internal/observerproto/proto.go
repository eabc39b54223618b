package observerproto

// Version is the debug observer protocol version.
const Version = "0.1"

// Server -> Client. Sent every few ticks.
type FrameMsg struct {
	Type            string       `json:"type"` // "FRAME"
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	PlayerID        uint64       `json:"player_id"`
	Entities        []EntityView `json:"entities"`
	Chunks          []ChunkView  `json:"chunks,omitempty"`
}

type EntityView struct {
	ID       uint64     `json:"id"`
	Name     string     `json:"name"`
	Texture  string     `json:"texture"`
	Pos      [2]float64 `json:"pos"`
	Vel      [2]float64 `json:"vel"`
	Size     [2]float64 `json:"size"`
	Health   int32      `json:"health"`
	Contacts []uint64   `json:"contacts,omitempty"`
}

// ChunkView is a chunk rendered top row first: '#' solid, '+' passable, '.' empty.
type ChunkView struct {
	X    int32    `json:"x"`
	Y    int32    `json:"y"`
	Rows []string `json:"rows"`
}

// Client -> Server debug command.
type CommandMsg struct {
	Type   string  `json:"type"`   // "COMMAND"
	Action string  `json:"action"` // move, stop, place, break, use
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Kind   string  `json:"kind,omitempty"`
}
