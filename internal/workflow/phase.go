// Package workflow holds the topic → script → share state machine behind the
// practice screen.
package workflow

// Phase identifies where the user is in the generation workflow.
type Phase int

const (
	// PhaseInitial is the landing state before any topic is chosen.
	PhaseInitial Phase = iota
	// PhaseTopicSelected lets the user edit the topic and request a script.
	PhaseTopicSelected
	// PhaseGenerating waits on the one outstanding provider request.
	PhaseGenerating
	// PhaseScriptGenerated shows the script and the share controls.
	PhaseScriptGenerated
)

// String returns the human-readable name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "Initial"
	case PhaseTopicSelected:
		return "Topic Selected"
	case PhaseGenerating:
		return "Generating"
	case PhaseScriptGenerated:
		return "Script Generated"
	default:
		return "Unknown"
	}
}
