package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wakana-code/station-navi-app/internal/models"
	"github.com/wakana-code/station-navi-app/internal/narration"
	"github.com/wakana-code/station-navi-app/internal/observe"
	"github.com/wakana-code/station-navi-app/internal/repository"
	"github.com/wakana-code/station-navi-app/internal/segmentation"
	"github.com/wakana-code/station-navi-app/internal/spatial"
)

const subscriberBuffer = 16

// MinCalibrationConsistency is the mean resultant length calibration
// readings must reach; lower values mean the device was turning.
const MinCalibrationConsistency = 0.9

// IngestResult is what one batch of samples produced.
type IngestResult struct {
	Accepted int                     `json:"accepted"`
	Rejected int                     `json:"rejected"`
	Events   []models.NarrationEvent `json:"events"`
	Progress segmentation.Progress   `json:"progress"`
}

// Subscription delivers the ingest results of one session. C is closed when
// the recording stops, when Cancel is called, or when the subscriber falls
// more than subscriberBuffer results behind; Lagged reports the last case.
type Subscription struct {
	C <-chan IngestResult

	ch     chan IngestResult
	lagged atomic.Bool
	sess   *session
}

// Lagged reports whether C was closed because the subscriber fell behind
// and results were lost.
func (sub *Subscription) Lagged() bool {
	return sub.lagged.Load()
}

// Cancel unsubscribes and closes C. It is safe to call more than once.
func (sub *Subscription) Cancel() {
	sub.sess.mu.Lock()
	defer sub.sess.mu.Unlock()
	sub.sess.drop(sub, false)
}

// session is one in-progress recording. mu serializes samples arriving from
// the REST and websocket paths.
type session struct {
	mu         sync.Mutex
	rec        models.Recording
	engine     *segmentation.Engine
	subs       map[*Subscription]struct{}
	lastActive time.Time
}

// drop removes sub and closes its channel. mu must be held.
func (sess *session) drop(sub *Subscription, lagged bool) {
	if _, ok := sess.subs[sub]; !ok {
		return
	}
	delete(sess.subs, sub)
	if lagged {
		sub.lagged.Store(true)
	}
	close(sub.ch)
}

// RecordingService owns the single active recording session and turns it
// into a published route once stopped.
type RecordingService struct {
	recordings *repository.RecordingRepository
	thresholds segmentation.Thresholds
	narration  narration.Options
	metrics    *observe.Metrics
	now        func() time.Time

	// idleTimeout stops a session nobody has fed samples to for this long.
	// Zero disables expiry.
	idleTimeout time.Duration

	mu     sync.Mutex
	active *session
}

// NewRecordingService creates a new recording service
func NewRecordingService(
	recordings *repository.RecordingRepository,
	thresholds segmentation.Thresholds,
	opts narration.Options,
	metrics *observe.Metrics,
) *RecordingService {
	return &RecordingService{
		recordings: recordings,
		thresholds: thresholds,
		narration:  opts,
		metrics:    metrics,
		now:        time.Now,
	}
}

// SetIdleTimeout sets how long a session may go without samples before it
// is stopped and stored as is. Zero disables expiry.
func (s *RecordingService) SetIdleTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleTimeout = d
}

// Start opens a recording with initialAngle as the straight-ahead heading.
// Only one session may be in progress at a time.
func (s *RecordingService) Start(ctx context.Context, initialAngle float64) (*models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		if !s.idleLocked(s.active) {
			return nil, ErrSessionActive
		}
		if _, err := s.stopLocked(ctx, s.active, "idle"); err != nil {
			return nil, err
		}
	}

	engine := segmentation.NewEngine(s.thresholds)
	if err := engine.Start(initialAngle); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &session{
		rec: models.Recording{
			ID:           uuid.New().String(),
			InitialAngle: initialAngle,
			StartedAt:    now,
			Events:       []models.NarrationEvent{},
		},
		engine:     engine,
		subs:       make(map[*Subscription]struct{}),
		lastActive: now,
	}
	s.active = sess
	s.metrics.ActiveRecordings.Add(ctx, 1)

	slog.Info("recording started", "component", "recording", "id", sess.rec.ID, "initial_angle", initialAngle)
	rec := sess.rec
	return &rec, nil
}

// StartCalibrated opens a recording whose straight-ahead heading is the
// circular mean of readings taken while standing at the starting gate.
func (s *RecordingService) StartCalibrated(ctx context.Context, readings []float64) (*models.Recording, error) {
	if len(readings) == 0 {
		return nil, fmt.Errorf("%w: no calibration readings", ErrUnstableCalibration)
	}
	for _, r := range readings {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("%w: reading %v", ErrUnstableCalibration, r)
		}
	}
	if r := spatial.MeanResultantLength(readings); r < MinCalibrationConsistency {
		return nil, fmt.Errorf("%w: consistency %.2f below %.2f", ErrUnstableCalibration, r, MinCalibrationConsistency)
	}
	return s.Start(ctx, spatial.CircularMeanDegrees(readings))
}

// Ingest feeds a batch of samples to the session in order. Unusable samples
// (non-finite angles, timestamps that do not advance) are skipped and
// counted as rejected; the rest of the batch is still processed.
func (s *RecordingService) Ingest(ctx context.Context, id string, samples []models.HeadingSample) (*IngestResult, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.engine.Stopped() {
		return nil, ErrRecordingClosed
	}
	sess.lastActive = s.now()

	res := &IngestResult{Events: []models.NarrationEvent{}}
	for _, sample := range samples {
		ev, err := sess.engine.Tick(sample)
		if err != nil {
			if errors.Is(err, segmentation.ErrInvalidInput) {
				res.Rejected++
				slog.Debug("sample rejected", "component", "recording", "id", id, "error", err)
				continue
			}
			return nil, err
		}
		res.Accepted++
		if ev != nil {
			res.Events = append(res.Events, *ev)
			sess.rec.Events = append(sess.rec.Events, *ev)
			s.metrics.RecordNarrationEvent(ctx, ev.Kind)
			slog.Info("narration event", "component", "recording", "id", id, "kind", ev.Kind, "at_ms", ev.EmittedAtMs)
		}
	}
	res.Progress = sess.engine.Progress()
	s.metrics.RecordSamples(ctx, res.Accepted, res.Rejected)

	for sub := range sess.subs {
		select {
		case sub.ch <- *res:
		default:
			// Results are never re-sent, so a full buffer means lost events.
			sess.drop(sub, true)
			slog.Warn("subscriber fell behind, closing it", "component", "recording", "id", id)
		}
	}
	return res, nil
}

// Progress returns the live feedback of an in-progress recording.
func (s *RecordingService) Progress(ctx context.Context, id string) (segmentation.Progress, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return segmentation.Progress{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.engine.Progress(), nil
}

// Subscribe returns a subscription receiving every ingest result of the
// session from now on.
func (s *RecordingService) Subscribe(ctx context.Context, id string) (*Subscription, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.engine.Stopped() {
		return nil, ErrRecordingClosed
	}

	ch := make(chan IngestResult, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, sess: sess}
	sess.subs[sub] = struct{}{}
	return sub, nil
}

// Stop ends the session, assembles its guide text and stores it.
func (s *RecordingService) Stop(ctx context.Context, id string) (*models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.active
	if sess == nil || sess.rec.ID != id {
		return nil, s.missing(ctx, id)
	}
	return s.stopLocked(ctx, sess, "requested")
}

// ExpireIdle stops the active session if it has been idle for longer than
// the idle timeout. It reports whether a session was stopped.
func (s *RecordingService) ExpireIdle(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || !s.idleLocked(s.active) {
		return false, nil
	}
	if _, err := s.stopLocked(ctx, s.active, "idle"); err != nil {
		return false, err
	}
	return true, nil
}

// Run expires idle sessions every interval until ctx is done.
func (s *RecordingService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpireIdle(ctx); err != nil {
				slog.Error("failed to expire idle recording", "component", "recording", "error", err)
			}
		}
	}
}

// idleLocked reports whether sess has outlived the idle timeout. s.mu must
// be held.
func (s *RecordingService) idleLocked(sess *session) bool {
	if s.idleTimeout <= 0 {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.now().Sub(sess.lastActive) >= s.idleTimeout
}

// stopLocked finishes sess and stores it. s.mu must be held. On failure the
// session stays active (stopped) so Stop can be retried.
func (s *RecordingService) stopLocked(ctx context.Context, sess *session, reason string) (*models.Recording, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.engine.Stop()
	stoppedAt := s.now()
	sess.rec.StoppedAt = &stoppedAt
	sess.rec.Events = sess.engine.Events()
	sess.rec.Article = narration.Assemble(sess.rec.Events, s.narration)

	if err := s.recordings.Save(ctx, &sess.rec); err != nil {
		return nil, err
	}

	for sub := range sess.subs {
		sess.drop(sub, false)
	}
	s.active = nil
	s.metrics.ActiveRecordings.Add(ctx, -1)

	slog.Info("recording stopped", "component", "recording", "id", sess.rec.ID, "reason", reason, "events", len(sess.rec.Events))
	rec := sess.rec
	return &rec, nil
}

// Get returns a stored recording.
func (s *RecordingService) Get(ctx context.Context, id string) (*models.Recording, error) {
	rec, err := s.recordings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecordingNotFound
	}
	return rec, nil
}

// Publish creates a route record from a stopped recording, using its
// assembled guide as the article.
func (s *RecordingService) Publish(ctx context.Context, id string, in RouteInput) (*models.RouteRecord, error) {
	s.mu.Lock()
	active := s.active != nil && s.active.rec.ID == id
	s.mu.Unlock()
	if active {
		return nil, ErrRecordingNotStopped
	}

	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.RouteID != "" {
		return nil, ErrAlreadyPublished
	}

	route, err := buildRoute(in, rec.Article, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.recordings.Publish(ctx, id, route); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, err
	}

	s.metrics.RecordRoutePublished(ctx, "recording")
	slog.Info("recording published", "component", "recording", "id", id, "route_id", route.ID, "title", route.Title)
	return route, nil
}

// lookup returns the active session if it has the given id.
func (s *RecordingService) lookup(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	sess := s.active
	s.mu.Unlock()

	if sess == nil || sess.rec.ID != id {
		return nil, s.missing(ctx, id)
	}
	return sess, nil
}

// missing tells a finished recording apart from one that never existed.
func (s *RecordingService) missing(ctx context.Context, id string) error {
	rec, err := s.recordings.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up recording: %w", err)
	}
	if rec != nil {
		return ErrRecordingClosed
	}
	return ErrRecordingNotFound
}
