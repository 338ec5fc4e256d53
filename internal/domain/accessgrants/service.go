package accessgrants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-content-gateway/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("shared data not found or access has been revoked")
	ErrExpired      = errors.New("access has expired")
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"component": "accessgrants"}),
		now:  time.Now,
	}
}

type CreateInput struct {
	OwnerUserID       string
	ContentIdentifier string
	ExpiryTime        time.Time
	HasPassword       bool
}

// Create registra un grant nuevo. Lo usa el flujo de compartir (fuera de
// este servicio) y el seeding de entornos dev/tests.
func (s *Service) Create(ctx context.Context, in CreateInput) (Grant, error) {
	ownerID := strings.TrimSpace(in.OwnerUserID)
	cid := strings.TrimSpace(in.ContentIdentifier)
	if ownerID == "" || cid == "" || in.ExpiryTime.IsZero() {
		return Grant{}, ErrInvalidInput
	}

	now := s.now()
	g := Grant{
		ID:                uuid.NewString(),
		OwnerUserID:       ownerID,
		AccessToken:       strings.ReplaceAll(uuid.NewString(), "-", ""),
		ContentIdentifier: cid,
		ExpiryTime:        in.ExpiryTime,
		IsActive:          true,
		HasPassword:       in.HasPassword,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// Resolution es el resultado de resolver un token.
// Si MetadataOnly() es true, el contenido NO debe buscarse.
type Resolution struct {
	Grant Grant

	counted <-chan error
}

func (r Resolution) MetadataOnly() bool { return r.Grant.HasPassword }

func (r Resolution) ContentIdentifier() string { return r.Grant.ContentIdentifier }

// WaitCounted espera a que el incremento de accessCount quede aplicado.
// El error del incremento es informativo: nunca debe bloquear servir el contenido.
func (r Resolution) WaitCounted(ctx context.Context) error {
	if r.counted == nil {
		return nil
	}
	select {
	case err := <-r.counted:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resolve aplica la política del grant: inexistente/revocado => ErrNotFound,
// vencido => ErrExpired. Si resuelve, dispara el incremento de accessCount
// en paralelo (WaitCounted lo espera).
func (s *Service) Resolve(ctx context.Context, token string) (Resolution, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Resolution{}, ErrInvalidInput
	}

	g, err := s.repo.GetActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Resolution{}, ErrNotFound
		}
		return Resolution{}, fmt.Errorf("accessgrants: lookup token: %w", err)
	}

	if g.Expired(s.now()) {
		return Resolution{}, ErrExpired
	}

	done := make(chan error, 1)
	go func(id string) {
		// sin cancelación: el conteo se aplica aunque el cliente corte
		n, err := s.repo.IncrementAccessCount(context.WithoutCancel(ctx), id)
		if err != nil {
			s.log.Error("increment access count failed", map[string]any{"grant_id": id, "err": err})
		} else {
			s.log.Debug("access counted", map[string]any{"grant_id": id, "access_count": n})
		}
		done <- err
	}(g.ID)

	return Resolution{Grant: g, counted: done}, nil
}

// Revoke deja el grant inactivo. Solo el owner; idempotente.
func (s *Service) Revoke(ctx context.Context, grantID, ownerUserID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	ownerUserID = strings.TrimSpace(ownerUserID)

	if grantID == "" || ownerUserID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Grant{}, ErrNotFound
		}
		return Grant{}, fmt.Errorf("accessgrants: get grant: %w", err)
	}

	if g.OwnerUserID != ownerUserID {
		return Grant{}, ErrForbidden
	}

	// Idempotente
	if !g.IsActive {
		return g, nil
	}

	now := s.now()
	if err := s.repo.SetActive(ctx, g.ID, false, now); err != nil {
		return Grant{}, err
	}
	g.IsActive = false
	g.UpdatedAt = now
	return g, nil
}
