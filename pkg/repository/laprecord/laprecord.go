//nolint:whitespace //can't make both the linter and editor happy :(
package laprecord

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mpapenbr/splash-track/pkg/db/mytypes"
	"github.com/mpapenbr/splash-track/pkg/repository"
	"github.com/mpapenbr/splash-track/pkg/session"
)

// Record is a completed lap as stored in the lap_record table.
type Record struct {
	ID         uuid.UUID
	SessionID  uuid.UUID
	Track      string
	Player     string
	Lap        uint32
	Duration   time.Duration
	Splits     mytypes.Splits
	RecordedAt time.Time
}

// FromEvent creates a record with a new id for ev.
func FromEvent(ev *session.LapEvent, at time.Time) *Record {
	return &Record{
		ID:         uuid.New(),
		SessionID:  ev.SessionID,
		Track:      ev.Track,
		Player:     ev.Player,
		Lap:        ev.Lap,
		Duration:   ev.Duration,
		Splits:     ev.Splits,
		RecordedAt: at.UTC(),
	}
}

func Create(ctx context.Context, conn repository.Querier, rec *Record) error {
	_, err := conn.ExecContext(ctx,
		`insert into lap_record
		(id, session_id, track, player, lap, duration_ns, splits, recorded_at)
		values (?,?,?,?,?,?,?,?)`,
		rec.ID.String(), rec.SessionID.String(), rec.Track, rec.Player,
		rec.Lap, int64(rec.Duration), rec.Splits, rec.RecordedAt.UTC())
	return err
}

// BestByTrack returns up to limit laps of track, fastest first.
func BestByTrack(
	ctx context.Context,
	conn repository.Querier,
	track string,
	limit int,
) ([]*Record, error) {
	rows, err := conn.QueryContext(ctx,
		fmt.Sprintf("%s where track=? order by duration_ns asc, recorded_at asc limit ?",
			selector),
		track, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := []*Record{}
	for rows.Next() {
		var item Record
		if err := scan(&item, rows); err != nil {
			return nil, err
		}
		ret = append(ret, &item)
	}
	return ret, rows.Err()
}

// BestForPlayer returns the fastest lap of player on track.
func BestForPlayer(
	ctx context.Context,
	conn repository.Querier,
	track, player string,
) (*Record, error) {
	row := conn.QueryRowContext(ctx,
		fmt.Sprintf(
			"%s where track=? and player=? order by duration_ns asc, recorded_at asc limit 1",
			selector),
		track, player)
	var item Record
	if err := scan(&item, row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// DeleteBySession removes all laps of a session, returns number of rows deleted.
func DeleteBySession(ctx context.Context, conn repository.Querier, id uuid.UUID) (int, error) {
	res, err := conn.ExecContext(ctx, "delete from lap_record where session_id=?", id.String())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// little helper
const selector = `select id, session_id, track, player, lap, duration_ns, splits, recorded_at
from lap_record`

type scanner interface {
	Scan(dest ...any) error
}

func scan(e *Record, row scanner) error {
	var id, sessionID string
	var duration int64
	if err := row.Scan(&id, &sessionID, &e.Track, &e.Player, &e.Lap,
		&duration, &e.Splits, &e.RecordedAt); err != nil {
		return err
	}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return err
	}
	if e.SessionID, err = uuid.Parse(sessionID); err != nil {
		return err
	}
	e.Duration = time.Duration(duration)
	return nil
}

// Sink adapts the store to a session sink. Errors are passed to onError.
func Sink(ctx context.Context, db *sql.DB, onError func(error)) session.Sink {
	return func(ev session.LapEvent) {
		rec := FromEvent(&ev, time.Now())
		if err := repository.InTx(ctx, db, func(tx *sql.Tx) error {
			return Create(ctx, tx, rec)
		}); err != nil && onError != nil {
			onError(err)
		}
	}
}
