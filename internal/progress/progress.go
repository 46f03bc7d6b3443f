package progress

import "time"

// Stage identifies which step of a non-interactive generation is active.
type Stage string

const (
	StageTopic    Stage = "topic"
	StageGenerate Stage = "generate"
	StageShare    Stage = "share"
	StageComplete Stage = "complete"
)

// Event carries progress information from the generate command to the
// renderer.
type Event struct {
	Stage   Stage
	Message string
	Percent float64 // 0.0–1.0
	Elapsed time.Duration
	Error   error
	// Turns is the number of labeled turns, set on StageComplete.
	Turns int
	// Model is the model alias used, set on StageGenerate.
	Model string
}

// Callback is the function signature for progress event handlers.
type Callback func(Event)

// NopCallback is a no-op progress callback for tests and silent mode.
func NopCallback(Event) {}

// NewEvent creates an Event with common fields populated.
func NewEvent(stage Stage, msg string, pct float64, start time.Time) Event {
	return Event{
		Stage:   stage,
		Message: msg,
		Percent: pct,
		Elapsed: time.Since(start),
	}
}
