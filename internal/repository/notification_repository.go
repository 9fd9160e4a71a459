package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// NotificationRepository persists notification records.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListForUser(ctx context.Context, userID string, role domain.UserRole, limit int) ([]domain.Notification, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_user_id, recipient_role, type, title, message, related_entity)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		n.RecipientID,
		n.RecipientRole,
		n.Type,
		n.Title,
		n.Message,
		n.RelatedEntity,
	).Scan(&n.ID, &n.CreatedAt)
}

// ListForUser returns notifications addressed to the user directly or
// to a role the user holds.
func (r *notificationRepository) ListForUser(ctx context.Context, userID string, role domain.UserRole, limit int) ([]domain.Notification, error) {
	const query = `
        SELECT id, recipient_user_id, recipient_role, type, title, message, related_entity, read_at, created_at
        FROM notifications
        WHERE recipient_user_id=$1 OR recipient_role=$2
        ORDER BY created_at DESC LIMIT $3`
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, query, userID, role, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.RecipientRole,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.RelatedEntity,
			&n.ReadAt,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}
