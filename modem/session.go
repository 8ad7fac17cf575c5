package modem

// Belief is a tri-state answer about modem-side state the gateway cannot
// observe directly. The line is half-duplex and the modem keeps its own
// state, so "unknown" is the honest default.
type Belief int

const (
	BeliefUnknown Belief = iota
	BeliefYes
	BeliefNo
)

func (b Belief) String() string {
	switch b {
	case BeliefYes:
		return "yes"
	case BeliefNo:
		return "no"
	default:
		return "unknown"
	}
}

// Session tracks what the gateway currently believes about the modem.
// It is owned by the dispatcher while a trigger is in service and is
// never shared; only successful outcomes update it.
type Session struct {
	ContextActive Belief
	SocketOpen    Belief
}

// Reset forgets everything. Each workflow run starts from scratch
// because the modem may have been power-cycled or dropped off the
// network since the last one.
func (s *Session) Reset() {
	s.ContextActive = BeliefUnknown
	s.SocketOpen = BeliefUnknown
}
