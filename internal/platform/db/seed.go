package db

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"schooladmin/internal/domain/auth"
	"schooladmin/internal/platform/config"
)

// Seed is idempotent: it ensures a director account and a default rate table
// exist, and leaves everything else alone.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		return err
	}
	return ensureRateTable(ctx, pool)
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		slog.Info("seed admin skipped, SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set")
		return nil
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE email = $1", email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (full_name, email, role, password_hash, status)
    VALUES ('Administrator', $1, $2, $3, $4)
  `, email, auth.RoleDirector, hash, auth.UserStatusActive)
	if err != nil {
		return err
	}
	slog.Info("seeded admin user", "email", email)
	return nil
}

func ensureRateTable(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM rate_tables").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err := pool.Exec(ctx, `
    INSERT INTO rate_tables (employee_rate, employer_rate, max_contribution)
    VALUES (0.05, 0.05, 1708.20)
  `)
	return err
}
