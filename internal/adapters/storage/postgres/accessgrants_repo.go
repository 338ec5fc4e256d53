package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"clinic-content-gateway/internal/domain/accessgrants"
)

// Tabla esperada (la crea el flujo de compartir, no este servicio):
//
//	CREATE TABLE access_grants (
//	    id                 TEXT PRIMARY KEY,
//	    owner_user_id      TEXT NOT NULL,
//	    access_token       TEXT NOT NULL UNIQUE,
//	    content_identifier TEXT NOT NULL,
//	    expiry_time        TIMESTAMPTZ NOT NULL,
//	    is_active          BOOLEAN NOT NULL DEFAULT TRUE,
//	    has_password       BOOLEAN NOT NULL DEFAULT FALSE,
//	    access_count       BIGINT NOT NULL DEFAULT 0,
//	    created_at         TIMESTAMPTZ NOT NULL,
//	    updated_at         TIMESTAMPTZ NOT NULL
//	);
type AccessGrantsRepo struct {
	db *sql.DB
}

func NewAccessGrantsRepo(db *sql.DB) *AccessGrantsRepo {
	return &AccessGrantsRepo{db: db}
}

const grantColumns = `
	id, owner_user_id, access_token, content_identifier,
	expiry_time, is_active, has_password, access_count,
	created_at, updated_at`

func (r *AccessGrantsRepo) Create(ctx context.Context, g accessgrants.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_grants (`+grantColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		g.ID,
		g.OwnerUserID,
		g.AccessToken,
		g.ContentIdentifier,
		g.ExpiryTime,
		g.IsActive,
		g.HasPassword,
		g.AccessCount,
		g.CreatedAt,
		g.UpdatedAt,
	)
	return err
}

func (r *AccessGrantsRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return accessgrants.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE id = $1
	`, id)
	return scanGrant(row)
}

func (r *AccessGrantsRepo) GetActiveByToken(ctx context.Context, token string) (accessgrants.Grant, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return accessgrants.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM access_grants
		WHERE access_token = $1
		  AND is_active = TRUE
	`, token)
	return scanGrant(row)
}

// Un solo UPDATE: sin read-modify-write, no se pierden conteos concurrentes.
func (r *AccessGrantsRepo) IncrementAccessCount(ctx context.Context, id string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE access_grants
		SET access_count = access_count + 1
		WHERE id = $1
		RETURNING access_count
	`, id).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return n, nil
}

func (r *AccessGrantsRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE access_grants
		SET
			is_active = $2,
			updated_at = $3
		WHERE id = $1
	`, id, active, at)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanGrant(row *sql.Row) (accessgrants.Grant, error) {
	var g accessgrants.Grant
	if err := row.Scan(
		&g.ID,
		&g.OwnerUserID,
		&g.AccessToken,
		&g.ContentIdentifier,
		&g.ExpiryTime,
		&g.IsActive,
		&g.HasPassword,
		&g.AccessCount,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accessgrants.Grant{}, ErrNotFound
		}
		return accessgrants.Grant{}, err
	}
	return g, nil
}
