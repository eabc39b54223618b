package world

import "errors"

var (
	// ErrDuplicateChunk is returned when a chunk already exists at a coordinate.
	ErrDuplicateChunk = errors.New("two chunks in the same world may not share a coordinate")
	// ErrNoChunk is returned when a write targets a position no chunk backs.
	ErrNoChunk = errors.New("no chunk at position")
	// ErrTileOutOfRange is returned when a tile coordinate falls outside a chunk.
	ErrTileOutOfRange = errors.New("tile coordinate out of range")
	// ErrNotPlaceable is returned when a kind without the placeable flag is placed.
	ErrNotPlaceable = errors.New("entity kind is not placeable")
	// ErrPlayerAssigned is returned when a second player is spawned.
	ErrPlayerAssigned = errors.New("player already assigned")
)
