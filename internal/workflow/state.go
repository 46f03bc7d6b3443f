package workflow

// State is one of Initial, TopicSelected, Generating or ScriptGenerated.
// Each variant carries only the fields that mean something in its phase.
type State interface {
	Phase() Phase
	isState()
}

type Initial struct{}

// TopicSelected holds an editable topic. Err is the message from the last
// failed generation, if any.
type TopicSelected struct {
	Topic string
	Err   string
}

// Generating holds the topic that was submitted and the ticket for the
// request in flight.
type Generating struct {
	Topic   string
	Request Request
}

// ScriptGenerated holds the frozen topic, the script text exactly as the
// provider returned it, and the partner email being typed.
type ScriptGenerated struct {
	Topic        string
	Script       string
	PartnerEmail string
}

func (Initial) Phase() Phase         { return PhaseInitial }
func (TopicSelected) Phase() Phase   { return PhaseTopicSelected }
func (Generating) Phase() Phase      { return PhaseGenerating }
func (ScriptGenerated) Phase() Phase { return PhaseScriptGenerated }

func (Initial) isState()         {}
func (TopicSelected) isState()   {}
func (Generating) isState()      {}
func (ScriptGenerated) isState() {}
