package segmentation

import (
	"fmt"
	"math"

	"github.com/wakana-code/station-navi-app/internal/models"
	"github.com/wakana-code/station-navi-app/internal/spatial"
)

// Progress labels
const (
	LabelWaiting       = "waiting"
	LabelStraight      = "going straight"
	LabelRecalibrating = "recalibrating heading"
)

// Engine is the route segmentation state machine.
type Engine struct {
	th       Thresholds
	state    State
	progress Progress
	events   []models.NarrationEvent
	started  bool
	stopped  bool
}

// NewEngine creates an engine using th. Call Start before feeding samples.
func NewEngine(th Thresholds) *Engine {
	return &Engine{
		th:       th,
		progress: Progress{StraightFraction: 1, Label: LabelWaiting, Status: StatusStraight},
	}
}

// Start begins a recording with initialAngle as the straight-ahead heading.
// Calling Start again discards the previous recording.
func (e *Engine) Start(initialAngle float64) error {
	if math.IsNaN(initialAngle) || math.IsInf(initialAngle, 0) {
		return fmt.Errorf("%w: initial angle %v", ErrInvalidInput, initialAngle)
	}

	e.state = State{
		ReferenceAngle: spatial.NormalizeDegrees(initialAngle),
		Status:         StatusStraight,
		Instant:        StatusStraight,
		Hysteresis:     NewHysteresis(),
	}
	e.progress = Progress{StraightFraction: 1, Label: LabelStraight, Status: StatusStraight}
	e.events = nil
	e.started = true
	e.stopped = false
	return nil
}

// Stop ends the recording. Later ticks fail with ErrInvalidState.
func (e *Engine) Stop() {
	e.stopped = true
}

// Started reports whether Start has been called.
func (e *Engine) Started() bool {
	return e.started
}

// Stopped reports whether Stop has been called.
func (e *Engine) Stopped() bool {
	return e.stopped
}

// Tick feeds one heading sample and returns the narration event it
// triggered, if any.
func (e *Engine) Tick(sample models.HeadingSample) (*models.NarrationEvent, error) {
	if !e.started {
		return nil, fmt.Errorf("%w: tick before start", ErrInvalidState)
	}
	if e.stopped {
		return nil, fmt.Errorf("%w: recording stopped", ErrInvalidState)
	}
	if math.IsNaN(sample.AngleDegrees) || math.IsInf(sample.AngleDegrees, 0) {
		return nil, fmt.Errorf("%w: angle %v", ErrInvalidInput, sample.AngleDegrees)
	}
	if sample.TimestampMs < 0 {
		return nil, fmt.Errorf("%w: negative timestamp %d", ErrInvalidInput, sample.TimestampMs)
	}
	st := &e.state
	if st.HasSample && sample.TimestampMs <= st.LastTimestampMs {
		return nil, fmt.Errorf("%w: timestamp %d not after %d", ErrInvalidInput, sample.TimestampMs, st.LastTimestampMs)
	}
	st.HasSample = true
	st.LastTimestampMs = sample.TimestampMs

	now := sample.TimestampMs
	angle := spatial.NormalizeDegrees(sample.AngleDegrees)

	if st.Resetting {
		if now-st.ResetSinceMs < e.th.Cooldown.Milliseconds() {
			return nil, nil
		}
		e.finishReset(angle, now)
	}

	rel := spatial.RelativeHeading(angle, st.ReferenceAngle)
	st.Instant = e.th.Classify(rel)
	effective := st.Hysteresis.Apply(st.Instant, now, e.th.RevertHold.Milliseconds())
	if effective != st.Status {
		st.Status = effective
		st.StatusSinceMs = now
	}
	e.progress.Status = effective

	if effective.IsTurn() {
		return e.advanceTurn(now), nil
	}
	return e.advanceStraight(now), nil
}

func (e *Engine) advanceTurn(now int64) *models.NarrationEvent {
	st := &e.state
	turnMs := e.th.TurnHold.Milliseconds()

	st.StraightActive = false
	st.StraightSinceMs = 0
	e.progress.StraightFraction = 1

	if !st.TurnActive {
		st.TurnActive = true
		st.TurnSinceMs = now
	}
	elapsed := now - st.TurnSinceMs
	e.progress.TurnFraction = math.Min(float64(elapsed)/float64(turnMs), 1)

	if elapsed >= turnMs {
		kind := models.EventTurnRight
		if st.Status == StatusTurningLeft {
			kind = models.EventTurnLeft
		}
		ev := e.emit(kind, now)
		st.Resetting = true
		st.ResetSinceMs = now
		e.progress.Resetting = true
		e.progress.Label = LabelRecalibrating
		return ev
	}

	remain := int(math.Ceil(float64(turnMs-elapsed) / 1000))
	direction := models.EventTurnRight.Label()
	if st.Status == StatusTurningLeft {
		direction = models.EventTurnLeft.Label()
	}
	if st.Instant.IsTurn() {
		e.progress.Label = fmt.Sprintf("%s in %ds", direction, remain)
	} else {
		e.progress.Label = fmt.Sprintf("adjusting angle, %ds left (holding %s)", remain, direction)
	}
	return nil
}

func (e *Engine) advanceStraight(now int64) *models.NarrationEvent {
	st := &e.state
	straightMs := e.th.StraightCheckpoint.Milliseconds()

	st.TurnActive = false
	st.TurnSinceMs = 0
	e.progress.TurnFraction = 0
	e.progress.Label = LabelStraight

	if !st.StraightActive {
		st.StraightActive = true
		st.StraightSinceMs = now
	}
	elapsed := now - st.StraightSinceMs

	if elapsed >= straightMs {
		ev := e.emit(models.EventStraight, now)
		st.StraightSinceMs = now
		e.progress.StraightFraction = 1
		return ev
	}

	e.progress.StraightFraction = math.Max(0, 1-float64(elapsed)/float64(straightMs))
	return nil
}

// finishReset ends the post-turn cooldown and takes angle as the new
// straight-ahead heading.
func (e *Engine) finishReset(angle float64, now int64) {
	st := &e.state
	st.Resetting = false
	st.ResetSinceMs = 0
	st.ReferenceAngle = angle
	st.Hysteresis = NewHysteresis()
	st.Status = StatusStraight
	st.StatusSinceMs = now
	st.Instant = StatusStraight
	st.TurnActive = false
	st.TurnSinceMs = 0
	st.StraightActive = false
	st.StraightSinceMs = 0

	e.progress.Resetting = false
	e.progress.TurnFraction = 0
}

func (e *Engine) emit(kind models.EventKind, now int64) *models.NarrationEvent {
	ev := models.NarrationEvent{EmittedAtMs: now, Kind: kind}
	e.events = append(e.events, ev)
	return &ev
}

// Progress returns a snapshot of the live feedback.
func (e *Engine) Progress() Progress {
	return e.progress
}

// State returns a copy of the engine state.
func (e *Engine) State() State {
	return e.state
}

// Events returns a copy of the narration log in emission order.
func (e *Engine) Events() []models.NarrationEvent {
	out := make([]models.NarrationEvent, len(e.events))
	copy(out, e.events)
	return out
}
