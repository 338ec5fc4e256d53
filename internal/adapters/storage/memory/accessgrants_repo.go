package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"clinic-content-gateway/internal/domain/accessgrants"
)

// ErrNotFound es el sentinel del dominio: el servicio lo reconoce con errors.Is.
var ErrNotFound = accessgrants.ErrNotFound

type grantRepo struct {
	mu      sync.RWMutex
	byID    map[string]accessgrants.Grant
	byToken map[string]string // token -> id
}

func NewAccessGrantsRepo() accessgrants.Repository {
	return &grantRepo{
		byID:    make(map[string]accessgrants.Grant),
		byToken: make(map[string]string),
	}
}

func (r *grantRepo) Create(ctx context.Context, g accessgrants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" || strings.TrimSpace(g.AccessToken) == "" {
		return errors.New("grant id and access token required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	if _, exists := r.byToken[g.AccessToken]; exists {
		return errors.New("access token already in use")
	}
	r.byID[g.ID] = g
	r.byToken[g.AccessToken] = g.ID
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return accessgrants.Grant{}, ErrNotFound
	}
	return g, nil
}

func (r *grantRepo) GetActiveByToken(ctx context.Context, token string) (accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok {
		return accessgrants.Grant{}, ErrNotFound
	}
	g := r.byID[id]
	if !g.IsActive {
		return accessgrants.Grant{}, ErrNotFound
	}
	return g, nil
}

// El read+write bajo el mismo lock es el equivalente a count = count + 1.
func (r *grantRepo) IncrementAccessCount(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	g.AccessCount++
	r.byID[id] = g
	return g.AccessCount, nil
}

func (r *grantRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	g.IsActive = active
	g.UpdatedAt = at
	r.byID[id] = g
	return nil
}
