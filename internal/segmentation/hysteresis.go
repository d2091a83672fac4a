package segmentation

// Phase is the hysteresis sub-state.
type Phase string

// Phase constants
const (
	PhaseConfirmed     Phase = "CONFIRMED"
	PhasePendingRevert Phase = "PENDING_REVERT"
)

// Hysteresis debounces the instantaneous classification. A confirmed turn
// survives straight readings until they have lasted RevertHold; any turning
// reading confirms its direction at once.
type Hysteresis struct {
	Phase     Phase  `json:"phase"`
	Confirmed Status `json:"confirmed"`
	SinceMs   int64  `json:"since_ms"` // start of the pending revert, zero when confirmed
}

// NewHysteresis returns the sub-state confirmed on straight.
func NewHysteresis() Hysteresis {
	return Hysteresis{Phase: PhaseConfirmed, Confirmed: StatusStraight}
}

// Apply feeds one instantaneous reading taken at nowMs and returns the
// effective status.
func (h *Hysteresis) Apply(instant Status, nowMs, holdMs int64) Status {
	if instant.IsTurn() {
		*h = Hysteresis{Phase: PhaseConfirmed, Confirmed: instant}
		return instant
	}

	if !h.Confirmed.IsTurn() {
		return StatusStraight
	}

	if h.Phase != PhasePendingRevert {
		h.Phase = PhasePendingRevert
		h.SinceMs = nowMs
	}
	if nowMs-h.SinceMs < holdMs {
		return h.Confirmed
	}

	*h = NewHysteresis()
	return StatusStraight
}
