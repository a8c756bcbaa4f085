// Package storage opens the PostgreSQL database and applies the embedded
// schema migrations.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/eeye/internal/dbx"
	"github.com/dmitrijs2005/eeye/internal/server/migrations"
	"github.com/dmitrijs2005/eeye/internal/server/users"
)

const driverName = "pgx"

// seams for tests
var (
	sqlOpen        = sql.Open
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
)

// Open connects to dsn, checks the connection and brings the schema up to
// date. The caller owns the returned *sql.DB.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(driverName); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// rehashTxOptions makes a concurrent credential change fail the transaction
// instead of being overwritten.
var rehashTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}

// InTx returns a users.TxFunc running on db.
func InTx(db *sql.DB) users.TxFunc {
	return func(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
		return dbx.WithTx(ctx, db, rehashTxOptions, func(ctx context.Context, tx dbx.DBTX) error {
			return fn(ctx, Users(tx))
		})
	}
}

// Users returns the PostgreSQL user repository bound to db, which may be a
// *sql.DB or a transaction from dbx.WithTx.
func Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}
