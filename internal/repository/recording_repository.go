package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wakana-code/station-navi-app/internal/database"
	"github.com/wakana-code/station-navi-app/internal/models"
)

// ErrAlreadyPublished is returned when a recording already backs a route.
var ErrAlreadyPublished = errors.New("recording already published")

// RecordingRepository handles database operations for recording sessions
type RecordingRepository struct {
	db *sql.DB
}

// NewRecordingRepository creates a new recording repository
func NewRecordingRepository(db *sql.DB) *RecordingRepository {
	return &RecordingRepository{db: db}
}

// Save stores a stopped recording and its narration events.
func (r *RecordingRepository) Save(ctx context.Context, rec *models.Recording) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO recordings (id, initial_angle, started_at_ms, stopped_at_ms, article)
			VALUES (?, ?, ?, ?, ?)
		`
		var stoppedAt sql.NullInt64
		if rec.StoppedAt != nil {
			stoppedAt = sql.NullInt64{Int64: rec.StoppedAt.UnixMilli(), Valid: true}
		}
		_, err := tx.ExecContext(ctx, query,
			rec.ID, rec.InitialAngle, rec.StartedAt.UnixMilli(), stoppedAt, rec.Article)
		if err != nil {
			return fmt.Errorf("failed to save recording: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO narration_events (recording_id, seq, emitted_at_ms, kind) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, ev := range rec.Events {
			if _, err := stmt.ExecContext(ctx, rec.ID, i, ev.EmittedAtMs, string(ev.Kind)); err != nil {
				return fmt.Errorf("failed to insert narration event: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves a recording with its events, or nil if it does not exist.
func (r *RecordingRepository) GetByID(ctx context.Context, id string) (*models.Recording, error) {
	query := `
		SELECT id, initial_angle, started_at_ms, stopped_at_ms, route_id, article
		FROM recordings
		WHERE id = ?
	`
	rec := &models.Recording{}
	var (
		startedAt int64
		stoppedAt sql.NullInt64
		routeID   sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.InitialAngle, &startedAt, &stoppedAt, &routeID, &rec.Article)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recording: %w", err)
	}
	rec.StartedAt = time.UnixMilli(startedAt)
	if stoppedAt.Valid {
		t := time.UnixMilli(stoppedAt.Int64)
		rec.StoppedAt = &t
	}
	rec.RouteID = routeID.String

	rows, err := r.db.QueryContext(ctx,
		`SELECT emitted_at_ms, kind FROM narration_events WHERE recording_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query narration events: %w", err)
	}
	defer rows.Close()

	rec.Events = []models.NarrationEvent{}
	for rows.Next() {
		var ev models.NarrationEvent
		var kind string
		if err := rows.Scan(&ev.EmittedAtMs, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan narration event: %w", err)
		}
		ev.Kind = models.EventKind(kind)
		rec.Events = append(rec.Events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating narration events: %w", err)
	}
	return rec, nil
}

// Publish creates route and links it to the recording in one transaction.
func (r *RecordingRepository) Publish(ctx context.Context, recordingID string, route *models.RouteRecord) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		var routeID sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT route_id FROM recordings WHERE id = ?`, recordingID).Scan(&routeID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get recording: %w", err)
		}
		if routeID.Valid {
			return ErrAlreadyPublished
		}

		if err := insertRoute(ctx, tx, route); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE recordings SET route_id = ? WHERE id = ?`, route.ID, recordingID); err != nil {
			return fmt.Errorf("failed to link recording: %w", err)
		}
		return nil
	})
}
