package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
)

// EnsureDefaultAdmin seeds the first kplbHQ account so a fresh deployment
// can be logged into at all. It does nothing when any user already exists,
// or when no password is configured.
func EnsureDefaultAdmin(ctx context.Context, pg *sql.DB, username, password string) error {
	if password == "" {
		return nil
	}

	var count int
	if err := pg.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash default admin password: %w", err)
	}

	_, err = pg.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, 'kplbHQ')`,
		username, string(hash))
	if err != nil {
		return fmt.Errorf("failed to seed default admin: %w", err)
	}

	log.Printf("seeded default admin account %q", username)
	return nil
}
