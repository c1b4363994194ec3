package engine

// Phase identifies a coarse stage of a turn, surfaced to callers that want to
// show progress (typing indicators, status messages). No engine behavior
// depends on anyone listening.
type Phase int

const (
	// PhaseProcessing fires when a turn starts.
	PhaseProcessing Phase = iota
	// PhaseFetchingData fires before each batch of tool executions.
	PhaseFetchingData
	// PhaseGeneratingResponse fires before the final answer is decoded.
	PhaseGeneratingResponse
)

// String returns a user-presentable status message for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseProcessing:
		return "Processing..."
	case PhaseFetchingData:
		return "Fetching data..."
	case PhaseGeneratingResponse:
		return "Generating visualization..."
	default:
		return "Working..."
	}
}

// PhaseFunc receives phase transitions. A nil PhaseFunc is a no-op.
type PhaseFunc func(Phase)

func (f PhaseFunc) emit(p Phase) {
	if f != nil {
		f(p)
	}
}
