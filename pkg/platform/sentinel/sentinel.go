package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores. Services translate
// them into domain errors; they never reach a transport directly.
//
// For input validation failures use pkg/domain-errors instead.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
