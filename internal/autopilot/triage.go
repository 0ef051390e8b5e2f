package autopilot

import "github.com/talgya/neo-haven/internal/engine"

// CrisisLevel grades how close the session is to being lost.
type CrisisLevel string

const (
	Critical CrisisLevel = "CRITICAL"
	Warning  CrisisLevel = "WARNING"
	Watch    CrisisLevel = "WATCH"
	Healthy  CrisisLevel = "HEALTHY"
)

const (
	// criticalMargin is how far above the approval floor counts as critical.
	criticalMargin = 10
	// finalStretch is how many turns before the limit a sub-win approval is watched.
	finalStretch   = 2
	crimeWarning   = 30
	joblessWarning = 15
)

// Health is the triaged reading of one snapshot.
type Health struct {
	Turn         int
	TurnsLeft    int
	Approval     float64
	ApprovalGap  float64 // distance to the win threshold; negative once past it
	FloorMargin  float64 // distance above the losing floor
	ApprovalDrop bool    // approval fell on the last turn
	CrisisLevel  CrisisLevel
}

// Triage computes the crisis level from approval, pressure metrics and the
// turns remaining under rules.
func Triage(snap *Snapshot, rules engine.Rules) Health {
	m := snap.State.Metrics
	h := Health{
		Turn:        m.Turn,
		TurnsLeft:   rules.TurnLimit - m.Turn + 1,
		Approval:    m.GovApproval,
		ApprovalGap: rules.WinApproval - m.GovApproval,
		FloorMargin: m.GovApproval - rules.ApprovalFloor,
	}
	if h.TurnsLeft < 0 {
		h.TurnsLeft = 0
	}
	if d := snap.State.Deltas; d != nil && d.GovApproval < 0 {
		h.ApprovalDrop = true
	}

	h.CrisisLevel = Healthy
	switch {
	case h.FloorMargin < criticalMargin:
		h.CrisisLevel = Critical
	case h.TurnsLeft <= finalStretch && h.ApprovalGap >= 0:
		h.CrisisLevel = Critical
	case m.CrimeRate > crimeWarning || m.Unemployment > joblessWarning:
		h.CrisisLevel = Warning
	case h.ApprovalDrop && h.FloorMargin < 2*criticalMargin:
		h.CrisisLevel = Warning
	case h.ApprovalGap >= 0:
		h.CrisisLevel = Watch
	}
	return h
}
