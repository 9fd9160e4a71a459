package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/session"
)

// SessionRepository is the durable session store. It satisfies
// session.Store and adds the listing/GC operations consumed outside
// the request pipeline.
type SessionRepository interface {
	session.Store
	ListActiveByUser(ctx context.Context, userID string) ([]domain.Session, error)
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository instantiates repository.
func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepository{pool: pool}
}

const sessionColumns = `id, user_id, ip_address, user_agent, device, login_at,
               last_activity_at, expires_at, violation_count, active, terminated_for`

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE id=$1`
	var sess domain.Session
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&sess.ID,
		&sess.UserID,
		&sess.IPAddress,
		&sess.UserAgent,
		&sess.Device,
		&sess.LoginAt,
		&sess.LastActivityAt,
		&sess.ExpiresAt,
		&sess.ViolationCount,
		&sess.Active,
		&sess.TerminatedFor,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// Upsert inserts the full record on first sight of a session id and
// updates the mutable fields on subsequent sightings.
func (r *sessionRepository) Upsert(ctx context.Context, sess *domain.Session) error {
	const query = `
        INSERT INTO sessions (id, user_id, ip_address, user_agent, device, login_at,
                              last_activity_at, expires_at, violation_count, active, terminated_for)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (id) DO UPDATE SET
            last_activity_at=EXCLUDED.last_activity_at,
            expires_at=EXCLUDED.expires_at,
            violation_count=EXCLUDED.violation_count,
            device=EXCLUDED.device,
            active=EXCLUDED.active,
            terminated_for=EXCLUDED.terminated_for`
	_, err := r.pool.Exec(ctx, query,
		sess.ID,
		sess.UserID,
		sess.IPAddress,
		sess.UserAgent,
		sess.Device,
		sess.LoginAt,
		sess.LastActivityAt,
		sess.ExpiresAt,
		sess.ViolationCount,
		sess.Active,
		sess.TerminatedFor,
	)
	return err
}

func (r *sessionRepository) MarkInactive(ctx context.Context, id string, reason domain.TerminationReason) error {
	const query = `UPDATE sessions SET active=FALSE, terminated_for=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, reason, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (r *sessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	const query = `SELECT ` + sessionColumns + `
        FROM sessions WHERE user_id=$1 AND active=TRUE ORDER BY last_activity_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Session
	for rows.Next() {
		var sess domain.Session
		if err := rows.Scan(
			&sess.ID,
			&sess.UserID,
			&sess.IPAddress,
			&sess.UserAgent,
			&sess.Device,
			&sess.LoginAt,
			&sess.LastActivityAt,
			&sess.ExpiresAt,
			&sess.ViolationCount,
			&sess.Active,
			&sess.TerminatedFor,
		); err != nil {
			return nil, err
		}
		result = append(result, sess)
	}
	return result, rows.Err()
}

// DeleteInactiveBefore garbage-collects sessions that have been
// inactive since before the retention cutoff.
func (r *sessionRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE active=FALSE AND last_activity_at < $1`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
