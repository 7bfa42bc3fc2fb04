package vm

// RuntimePhase is a step of the runtime's startup and shutdown sequence.
type RuntimePhase int

const (
	PhaseInitialAgents RuntimePhase = iota // Initial agent loading is done.
	PhaseStart                             // The runtime is started.
	PhaseInit                              // The runtime is initialized and will run user code soon.
	PhaseDeath                             // The runtime just died.
)

func (p RuntimePhase) String() string {
	switch p {
	case PhaseInitialAgents:
		return "initial-agents"
	case PhaseStart:
		return "start"
	case PhaseInit:
		return "init"
	case PhaseDeath:
		return "death"
	default:
		return "unknown"
	}
}
