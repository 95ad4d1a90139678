package services

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/db"
)

type UserService struct {
	PG *sql.DB
}

func NewUserService(pg *sql.DB) *UserService {
	return &UserService{PG: pg}
}

// List returns all administrative accounts. Password hashes never leave the
// service.
func (s *UserService) List(ctx context.Context) ([]db.User, error) {
	rows, err := s.PG.QueryContext(ctx, `
		SELECT id, username, role, kampung_name, created_at
		FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []db.User{}
	for rows.Next() {
		var u db.User
		var kampung sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &kampung, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if kampung.Valid {
			u.KampungName = &kampung.String
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create adds an administrative account. Roles are stored canonically; a
// ketua_kampung must come with a kampung assignment or the account would be
// unusable from its first login.
func (s *UserService) Create(ctx context.Context, req *db.CreateUserRequest) (*db.User, error) {
	role, ok := authz.NormalizeRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}
	if role == authz.RoleKetuaKampung && req.KampungName == "" {
		return nil, fmt.Errorf("%w: kampung_name is required for ketua_kampung", ErrInvalidInput)
	}

	var exists bool
	err := s.PG.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, req.Username).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var kampung interface{}
	user := db.User{Username: req.Username, Role: string(role)}
	if req.KampungName != "" {
		kampung = req.KampungName
		user.KampungName = &req.KampungName
	}

	err = s.PG.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, role, kampung_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		req.Username, string(hash), string(role), kampung,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// Update applies a partial update. kplbHQ may change any field of any
// account; a ketua_kampung may only change their own password. Everyone else
// is refused.
func (s *UserService) Update(ctx context.Context, principal *authz.Principal, id int64, req *db.UpdateUserRequest) error {
	selfPasswordOnly := principal.UserID == id &&
		req.Password != nil && req.Role == nil && req.KampungName == nil

	if principal.Role != authz.RoleKplbHQ {
		if !(principal.Role == authz.RoleKetuaKampung && selfPasswordOnly) {
			return authz.ErrRoleNotPermitted
		}
	}

	sets := []string{}
	args := []interface{}{}
	argIndex := 1

	if req.Password != nil {
		if *req.Password == "" {
			return fmt.Errorf("%w: password cannot be empty", ErrInvalidInput)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		sets = append(sets, fmt.Sprintf("password_hash = $%d", argIndex))
		args = append(args, string(hash))
		argIndex++
	}

	if req.Role != nil {
		role, ok := authz.NormalizeRole(*req.Role)
		if !ok {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *req.Role)
		}
		sets = append(sets, fmt.Sprintf("role = $%d", argIndex))
		args = append(args, string(role))
		argIndex++
	}

	if req.KampungName != nil {
		sets = append(sets, fmt.Sprintf("kampung_name = $%d", argIndex))
		if *req.KampungName == "" {
			args = append(args, nil)
		} else {
			args = append(args, *req.KampungName)
		}
		argIndex++
	}

	if len(sets) == 0 {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	query := "UPDATE users SET "
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	query += fmt.Sprintf(" WHERE id = $%d", argIndex)
	args = append(args, id)

	result, err := s.PG.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account. Deleting yourself is refused so an HQ admin
// cannot lock the ministry out of its own console.
func (s *UserService) Delete(ctx context.Context, principal *authz.Principal, id int64) error {
	if principal.UserID == id {
		return ErrSelfDelete
	}

	result, err := s.PG.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Kampungs returns every kampung name known to the system, drawn from
// incidents, victims and user assignments.
func (s *UserService) Kampungs(ctx context.Context) ([]string, error) {
	rows, err := s.PG.QueryContext(ctx, `
		SELECT DISTINCT kampung FROM (
			SELECT kampung FROM incidents
			UNION
			SELECT kampung_name FROM disaster_victims
			UNION
			SELECT kampung_name FROM users WHERE kampung_name IS NOT NULL
		) AS k WHERE kampung IS NOT NULL AND kampung <> ''
		ORDER BY kampung`)
	if err != nil {
		return nil, fmt.Errorf("failed to list kampungs: %w", err)
	}
	defer rows.Close()

	kampungs := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan kampung: %w", err)
		}
		kampungs = append(kampungs, k)
	}
	return kampungs, rows.Err()
}
