// Package memory is an in-process implementation of the repository contract.
//
// Units of work are serialized by a single mutex and rolled back by restoring a snapshot,
// which gives the same isolation the Postgres row locks provide. It backs the service when
// no POSTGRES_DSN is configured and is the store used by tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
)

type state struct {
	tickets     map[string]domain.Ticket
	agents      map[string]domain.Agent
	categories  map[string]domain.Category
	slas        map[string]domain.SLAPolicy
	users       map[string]domain.User
	history     []domain.TicketStatusHistory
	escalations []domain.TicketEscalation
}

func newState() *state {
	return &state{
		tickets:    map[string]domain.Ticket{},
		agents:     map[string]domain.Agent{},
		categories: map[string]domain.Category{},
		slas:       map[string]domain.SLAPolicy{},
		users:      map[string]domain.User{},
	}
}

func (s *state) clone() *state {
	cp := newState()
	for k, v := range s.tickets {
		cp.tickets[k] = v
	}
	for k, v := range s.agents {
		cp.agents[k] = v
	}
	for k, v := range s.categories {
		cp.categories[k] = v
	}
	for k, v := range s.slas {
		cp.slas[k] = v
	}
	for k, v := range s.users {
		cp.users[k] = v
	}
	cp.history = append([]domain.TicketStatusHistory(nil), s.history...)
	cp.escalations = append([]domain.TicketEscalation(nil), s.escalations...)
	return cp
}

// Store implements repository.UnitOfWork over in-memory maps.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

// WithinTx runs fn while holding the store lock. An error from fn discards its writes.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, s.bind()); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) bind() repository.Store {
	return repository.Store{
		Tickets:     &ticketRepo{s: s},
		Agents:      &agentRepo{s: s},
		Categories:  &categoryRepo{s: s},
		SLAs:        &slaRepo{s: s},
		Users:       &userRepo{s: s},
		History:     &historyRepo{s: s},
		Escalations: &escalationRepo{s: s},
	}
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

type ticketRepo struct{ s *Store }

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	ticket.ID = newID(ticket.ID)
	if _, exists := r.s.data.tickets[ticket.ID]; exists {
		return repository.ErrDuplicate
	}
	r.s.data.tickets[ticket.ID] = *ticket
	return nil
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, exists := r.s.data.tickets[ticket.ID]; !exists {
		return repository.ErrNotFound
	}
	r.s.data.tickets[ticket.ID] = *ticket
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.s.data.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ticket, nil
}

func (r *ticketRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.s.data.tickets {
		t := ticket
		if filter.Matches(&t) {
			result = append(result, t)
		}
	}
	sortTickets(result)
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(result) {
			return nil, nil
		}
		end := offset + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, nil
}

func (r *ticketRepo) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, repository.TicketFilter{UserID: &userID})
}

func (r *ticketRepo) ListByAgent(ctx context.Context, agentID string) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, repository.TicketFilter{AgentID: &agentID})
}

func (r *ticketRepo) ListByCategory(ctx context.Context, categoryID string) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, repository.TicketFilter{CategoryID: &categoryID})
}

func (r *ticketRepo) ListByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, repository.TicketFilter{Statuses: []domain.TicketStatus{status}})
}

func (r *ticketRepo) ListByUserAndCategory(ctx context.Context, userID, categoryID string) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, repository.TicketFilter{UserID: &userID, CategoryID: &categoryID})
}

func (r *ticketRepo) ListByAgentCreatedBetween(ctx context.Context, agentID string, start, end time.Time) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, repository.TicketFilter{AgentID: &agentID, CreatedFrom: &start, CreatedTo: &end})
}

func (r *ticketRepo) ListResolvedBefore(ctx context.Context, threshold time.Time) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, repository.TicketFilter{
		Statuses:      []domain.TicketStatus{domain.TicketStatusResolved},
		UpdatedBefore: &threshold,
	})
}

func (r *ticketRepo) ListOverdue(_ context.Context, now time.Time) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.s.data.tickets {
		t := ticket
		if t.IsOverdue(now) {
			result = append(result, t)
		}
	}
	sortTickets(result)
	return result, nil
}

func (r *ticketRepo) CountOpenByAgent(_ context.Context, agentID string) (int64, error) {
	var count int64
	for _, ticket := range r.s.data.tickets {
		t := ticket
		if t.AssignedAgentID() == agentID && t.Status != domain.TicketStatusClosed {
			count++
		}
	}
	return count, nil
}

func sortTickets(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		if !tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
		}
		return tickets[i].ID < tickets[j].ID
	})
}

type agentRepo struct{ s *Store }

func (r *agentRepo) Create(_ context.Context, agent *domain.Agent) error {
	if r.emailTaken(agent.Email, "") {
		return repository.ErrDuplicate
	}
	agent.ID = newID(agent.ID)
	if _, exists := r.s.data.agents[agent.ID]; exists {
		return repository.ErrDuplicate
	}
	r.s.data.agents[agent.ID] = *agent
	return nil
}

func (r *agentRepo) Update(_ context.Context, agent *domain.Agent) error {
	if _, exists := r.s.data.agents[agent.ID]; !exists {
		return repository.ErrNotFound
	}
	if r.emailTaken(agent.Email, agent.ID) {
		return repository.ErrDuplicate
	}
	r.s.data.agents[agent.ID] = *agent
	return nil
}

func (r *agentRepo) emailTaken(email, exceptID string) bool {
	for id, existing := range r.s.data.agents {
		if id != exceptID && strings.EqualFold(existing.Email, email) {
			return true
		}
	}
	return false
}

func (r *agentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	agent, ok := r.s.data.agents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &agent, nil
}

func (r *agentRepo) List(_ context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	var result []domain.Agent
	for _, agent := range r.s.data.agents {
		if filter.Active != nil && agent.Active != *filter.Active {
			continue
		}
		if filter.ExcludeID != nil && agent.ID == *filter.ExcludeID {
			continue
		}
		result = append(result, agent)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(result) {
			return nil, nil
		}
		end := offset + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, nil
}

func (r *agentRepo) ListActive(ctx context.Context) ([]domain.Agent, error) {
	active := true
	return r.List(ctx, repository.AgentFilter{Active: &active})
}

func (r *agentRepo) ListActiveExcluding(ctx context.Context, excludedID string) ([]domain.Agent, error) {
	active := true
	return r.List(ctx, repository.AgentFilter{Active: &active, ExcludeID: &excludedID})
}

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(_ context.Context, category *domain.Category) error {
	for _, existing := range r.s.data.categories {
		if existing.Name == category.Name {
			return repository.ErrDuplicate
		}
	}
	category.ID = newID(category.ID)
	r.s.data.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.s.data.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &category, nil
}

func (r *categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	result := make([]domain.Category, 0, len(r.s.data.categories))
	for _, category := range r.s.data.categories {
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type slaRepo struct{ s *Store }

func (r *slaRepo) Create(_ context.Context, sla *domain.SLAPolicy) error {
	for _, existing := range r.s.data.slas {
		if existing.Name == sla.Name {
			return repository.ErrDuplicate
		}
	}
	sla.ID = newID(sla.ID)
	r.s.data.slas[sla.ID] = *sla
	return nil
}

func (r *slaRepo) GetByID(_ context.Context, id string) (*domain.SLAPolicy, error) {
	sla, ok := r.s.data.slas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sla, nil
}

func (r *slaRepo) List(_ context.Context) ([]domain.SLAPolicy, error) {
	result := make([]domain.SLAPolicy, 0, len(r.s.data.slas))
	for _, sla := range r.s.data.slas {
		result = append(result, sla)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range r.s.data.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = newID(user.ID)
	r.s.data.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.s.data.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepo) List(_ context.Context) ([]domain.User, error) {
	result := make([]domain.User, 0, len(r.s.data.users))
	for _, user := range r.s.data.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type historyRepo struct{ s *Store }

func (r *historyRepo) Create(_ context.Context, history *domain.TicketStatusHistory) error {
	history.ID = newID(history.ID)
	r.s.data.history = append(r.s.data.history, *history)
	return nil
}

func (r *historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketStatusHistory, error) {
	var result []domain.TicketStatusHistory
	for _, entry := range r.s.data.history {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	// stable: entries with equal timestamps keep insertion order
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type escalationRepo struct{ s *Store }

func (r *escalationRepo) Create(_ context.Context, escalation *domain.TicketEscalation) error {
	escalation.ID = newID(escalation.ID)
	r.s.data.escalations = append(r.s.data.escalations, *escalation)
	return nil
}

func (r *escalationRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketEscalation, error) {
	var result []domain.TicketEscalation
	for _, entry := range r.s.data.escalations {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}
