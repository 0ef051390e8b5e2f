package engine

// Rules are the termination thresholds and judgment limits of a session.
type Rules struct {
	ApprovalFloor float64 // approval strictly below this loses on any turn
	WinApproval   float64 // approval strictly above this wins once past TurnLimit
	TurnLimit     int
	MaxSamples    int // zero means the reference cap
}

// DefaultRules returns the reference thresholds: lose below 30% approval,
// and after turn 10 win above 70% or lose otherwise.
func DefaultRules() Rules {
	return Rules{
		ApprovalFloor: 30,
		WinApproval:   70,
		TurnLimit:     10,
		MaxSamples:    MaxSamples,
	}
}

// Evaluate applies the termination rules to post-turn metrics. The approval
// floor is checked first and applies on every turn.
func Evaluate(m Metrics, r Rules) Status {
	switch {
	case m.GovApproval < r.ApprovalFloor:
		return Lost
	case m.Turn > r.TurnLimit && m.GovApproval > r.WinApproval:
		return Won
	case m.Turn > r.TurnLimit:
		return Lost
	default:
		return Playing
	}
}
