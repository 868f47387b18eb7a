package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no session is recorded for a folder.
var ErrNotFound = errors.New("session not found")

// Sorting layouts found in a session folder.
const (
	LayoutNone   = "none"
	LayoutSingle = "single"
	LayoutMulti  = "multi"
)

// Session summarizes one scanned session folder.
type Session struct {
	Folder       string
	Basename     string
	SamplingRate float64
	ChannelCount int
	DType        string
	DatBytes     int64
	NumFrames    int64
	Layout       string
	ShankCount   int
	UnitCount    int
	SpikeCount   int64
	ScanID       string
	ScannedAt    time.Time
	// ScanError records why part of the folder could not be read.
	ScanError string
}

const sessionColumns = `folder, basename, sampling_rate, channel_count, dtype, dat_bytes, num_frames,
	layout, shank_count, unit_count, spike_count, scan_id, scanned_at, scan_error`

// Upsert inserts or replaces the row for session.Folder.
func (s *Store) Upsert(ctx context.Context, session Session) error {
	if session.Folder == "" {
		return errors.New("upsert session: folder is required")
	}
	if session.Layout == "" {
		session.Layout = LayoutNone
	}
	if session.ScannedAt.IsZero() {
		session.ScannedAt = time.Now()
	}
	_, err := s.execWithRetry(ctx, `INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(folder) DO UPDATE SET
			basename = excluded.basename,
			sampling_rate = excluded.sampling_rate,
			channel_count = excluded.channel_count,
			dtype = excluded.dtype,
			dat_bytes = excluded.dat_bytes,
			num_frames = excluded.num_frames,
			layout = excluded.layout,
			shank_count = excluded.shank_count,
			unit_count = excluded.unit_count,
			spike_count = excluded.spike_count,
			scan_id = excluded.scan_id,
			scanned_at = excluded.scanned_at,
			scan_error = excluded.scan_error`,
		session.Folder,
		session.Basename,
		session.SamplingRate,
		session.ChannelCount,
		session.DType,
		session.DatBytes,
		session.NumFrames,
		session.Layout,
		session.ShankCount,
		session.UnitCount,
		session.SpikeCount,
		session.ScanID,
		session.ScannedAt.UTC().Format(time.RFC3339Nano),
		session.ScanError,
	)
	if err != nil {
		return fmt.Errorf("upsert session %s: %w", session.Folder, err)
	}
	return nil
}

// Get returns the session recorded for folder.
func (s *Store) Get(ctx context.Context, folder string) (*Session, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE folder = ?`, folder)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, folder)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", folder, err)
	}
	return session, nil
}

// List returns every recorded session ordered by folder.
func (s *Store) List(ctx context.Context) ([]Session, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY folder`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Remove deletes the row for folder and reports whether one existed.
func (s *Store) Remove(ctx context.Context, folder string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE folder = ?`, folder)
	if err != nil {
		return false, fmt.Errorf("remove session %s: %w", folder, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove session %s: %w", folder, err)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session   Session
		scannedAt string
	)
	if err := row.Scan(
		&session.Folder,
		&session.Basename,
		&session.SamplingRate,
		&session.ChannelCount,
		&session.DType,
		&session.DatBytes,
		&session.NumFrames,
		&session.Layout,
		&session.ShankCount,
		&session.UnitCount,
		&session.SpikeCount,
		&session.ScanID,
		&scannedAt,
		&session.ScanError,
	); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339Nano, scannedAt)
	if err != nil {
		return nil, fmt.Errorf("parse scanned_at %q: %w", scannedAt, err)
	}
	session.ScannedAt = ts
	return &session, nil
}
