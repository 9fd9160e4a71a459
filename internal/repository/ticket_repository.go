package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

const ticketColumns = `id, requester_user_id, assignee_user_id, title, description,
               status, priority, created_at, updated_at, first_response_at, resolved_at, closed_at`

// TicketRepository encapsulates ticket persistence for the core's
// sweepers and the minimal ticket surface.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByStatuses(ctx context.Context, statuses []domain.TicketStatus, limit int) ([]domain.Ticket, error)
	ListUnassignedOpen(ctx context.Context, priorities []domain.TicketPriority) ([]domain.Ticket, error)
	ListResolvedBefore(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, at time.Time) error
	SetFirstResponse(ctx context.Context, id string, at time.Time) error
	SetResolved(ctx context.Context, id string, at time.Time) error
	Assign(ctx context.Context, id string, assigneeID string, at time.Time) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (requester_user_id, assignee_user_id, title, description, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.RequesterID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.RequesterID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByStatuses(ctx context.Context, statuses []domain.TicketStatus, limit int) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + `
        FROM tickets WHERE status = ANY($1) ORDER BY created_at ASC LIMIT $2`
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.pool.Query(ctx, query, statusStrings(statuses), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListUnassignedOpen(ctx context.Context, priorities []domain.TicketPriority) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE status=$1 AND assignee_user_id IS NULL AND priority = ANY($2)
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusOpen, priorityStrings(priorities))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListResolvedBefore(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + `
        FROM tickets WHERE status=$1 AND resolved_at <= $2 ORDER BY resolved_at ASC`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusResolved, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, at time.Time) error {
	query := `UPDATE tickets SET status=$1, updated_at=$2 WHERE id=$3`
	args := []any{status, at, id}
	if status == domain.TicketStatusClosed {
		query = `UPDATE tickets SET status=$1, updated_at=$2, closed_at=$2 WHERE id=$3`
	}
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) SetFirstResponse(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE tickets SET first_response_at=COALESCE(first_response_at, $1), updated_at=$1
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) SetResolved(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE tickets SET status=$1, resolved_at=$2, updated_at=$2 WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, domain.TicketStatusResolved, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Assign(ctx context.Context, id string, assigneeID string, at time.Time) error {
	const query = `
        UPDATE tickets SET assignee_user_id=$1, status=$2, updated_at=$3 WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, assigneeID, domain.TicketStatusAssigned, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func statusStrings(statuses []domain.TicketStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func priorityStrings(priorities []domain.TicketPriority) []string {
	out := make([]string, len(priorities))
	for i, p := range priorities {
		out[i] = string(p)
	}
	return out
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.RequesterID,
			&ticket.AssigneeID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.Priority,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.FirstResponseAt,
			&ticket.ResolvedAt,
			&ticket.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
