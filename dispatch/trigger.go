package dispatch

// TriggerKind says what a trigger asks the gateway to do.
type TriggerKind int

const (
	// KindCommand runs one free-form AT command.
	KindCommand TriggerKind = iota
	// KindFetch runs the full HTTP fetch workflow.
	KindFetch
)

func (k TriggerKind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindFetch:
		return "fetch"
	default:
		return "unknown"
	}
}

// Trigger is one unit of work for the dispatcher.
type Trigger struct {
	Kind TriggerKind
	// Command is the AT command line for KindCommand.
	Command string
	// Workflow names the workflow for KindFetch. Empty selects the
	// default fetch workflow.
	Workflow string
}
