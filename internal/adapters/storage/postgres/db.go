package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clinic-content-gateway/internal/domain/accessgrants"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound es el sentinel del dominio: el servicio lo reconoce con errors.Is.
var ErrNotFound = accessgrants.ErrNotFound

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return db, nil
}
