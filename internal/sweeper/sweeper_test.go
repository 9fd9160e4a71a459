package sweeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
)

// fakeTicketRepo is an in-memory TicketRepository for sweeper tests.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket

	failUpdate map[string]error
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{
		tickets:    make(map[string]*domain.Ticket),
		failUpdate: make(map[string]error),
	}
	for _, t := range tickets {
		repo.tickets[t.ID] = t
	}
	return repo
}

func (r *fakeTicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[t.ID] = t
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, errors.New("ticket not found")
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTicketRepo) ListByStatuses(_ context.Context, statuses []domain.TicketStatus, _ int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		for _, status := range statuses {
			if t.Status == status {
				out = append(out, *t)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListUnassignedOpen(_ context.Context, priorities []domain.TicketPriority) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.Status != domain.TicketStatusOpen || !t.Unassigned() {
			continue
		}
		for _, p := range priorities {
			if t.Priority == p {
				out = append(out, *t)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListResolvedBefore(_ context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.Status == domain.TicketStatusResolved && t.ResolvedAt != nil && !t.ResolvedAt.After(cutoff) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failUpdate[id]; ok {
		return err
	}
	t, ok := r.tickets[id]
	if !ok {
		return errors.New("ticket not found")
	}
	t.Status = status
	t.UpdatedAt = at
	if status == domain.TicketStatusClosed {
		t.ClosedAt = &at
	}
	return nil
}

func (r *fakeTicketRepo) SetFirstResponse(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return errors.New("ticket not found")
	}
	if t.FirstResponseAt == nil {
		t.FirstResponseAt = &at
	}
	return nil
}

func (r *fakeTicketRepo) SetResolved(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return errors.New("ticket not found")
	}
	t.Status = domain.TicketStatusResolved
	t.ResolvedAt = &at
	return nil
}

func (r *fakeTicketRepo) Assign(_ context.Context, id string, assigneeID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return errors.New("ticket not found")
	}
	t.AssigneeID = &assigneeID
	t.Status = domain.TicketStatusAssigned
	t.UpdatedAt = at
	return nil
}

// fakeHistoryRepo collects history entries.
type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
	err     error
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketHistory
	for _, e := range r.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

// capture subscribes to one event type and collects what arrives.
func capture(d events.Dispatcher, eventType events.EventType) *[]events.Event {
	var got []events.Event
	d.Subscribe(eventType, func(_ context.Context, event events.Event) error {
		got = append(got, event)
		return nil
	})
	return &got
}
