package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage.
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	UpdateStatus(ctx context.Context, id, status string) error
	List(ctx context.Context, limit int) ([]*Lead, error)
}

// InMemoryRepository is a Repository backed by a map, used for local
// development and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	order []string
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Create creates a new lead in memory.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lead := &Lead{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		VehicleInterest: req.VehicleInterest,
		Message:         req.Message,
		Source:          req.Source,
		Status:          StatusNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.order = append(r.order, lead.ID)
	r.mu.Unlock()

	return lead, nil
}

// GetByID retrieves a lead by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	copied := *lead
	return &copied, nil
}

// UpdateStatus moves a lead along the funnel.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if !validStatus(status) {
		return ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	lead.Status = status
	lead.UpdatedAt = time.Now().UTC()
	return nil
}

// List returns up to limit leads, newest first.
func (r *InMemoryRepository) List(ctx context.Context, limit int) ([]*Lead, error) {
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lead, 0, limit)
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *r.leads[r.order[i]]
		out = append(out, &copied)
	}
	return out, nil
}
