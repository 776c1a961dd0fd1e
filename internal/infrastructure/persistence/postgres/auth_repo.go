package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	authDomain "legal-contracts/internal/domain/auth"
	dbinfra "legal-contracts/internal/infrastructure/db"
)

// AuthRepo 提供使用者帳號的存取。
type AuthRepo struct {
	db *sql.DB
}

// NewAuthRepo 建立 AuthRepo。
func NewAuthRepo(db *sql.DB) *AuthRepo {
	return &AuthRepo{db: db}
}

const userColumns = `id, username, email, first_name, last_name, password_hash, COALESCE(reset_password_token, ''), blocked, confirmed, role, created_at`

// FindByIdentifier 以 email 或 username（不分大小寫）查詢。
func (r *AuthRepo) FindByIdentifier(ctx context.Context, identifier string) (authDomain.User, error) {
	q := `SELECT ` + userColumns + `
FROM users
WHERE lower(email) = lower($1) OR lower(username) = lower($1)
LIMIT 1;`
	return r.scanUser(r.db.QueryRowContext(ctx, q, identifier))
}

// FindByID 依 ID 查詢使用者。
func (r *AuthRepo) FindByID(ctx context.Context, id string) (authDomain.User, error) {
	q := `SELECT ` + userColumns + `
FROM users
WHERE id = $1;`
	return r.scanUser(r.db.QueryRowContext(ctx, q, id))
}

// UpdatePassword 寫入新的密碼雜湊並清除重設 token。
func (r *AuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const q = `
UPDATE users
SET password_hash = $2, reset_password_token = NULL, updated_at = NOW()
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, id, passwordHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return authDomain.ErrUserNotFound
	}
	return nil
}

// Create 新增使用者，回傳含 ID 的資料。
func (r *AuthRepo) Create(ctx context.Context, u authDomain.User) (authDomain.User, error) {
	const q = `
INSERT INTO users (username, email, first_name, last_name, password_hash, blocked, confirmed, role)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at;
`
	role := u.Role
	if role == "" {
		role = authDomain.RoleAuthenticated
	}
	if err := r.db.QueryRowContext(ctx, q,
		u.Username, u.Email, u.FirstName, u.LastName, u.Password, u.Blocked, u.Confirmed, string(role),
	).Scan(&u.ID, &u.CreatedAt); err != nil {
		if dbinfra.IsUniqueViolation(err) {
			return authDomain.User{}, authDomain.ErrUserExists
		}
		return authDomain.User{}, err
	}
	u.Role = role
	return u, nil
}

// SeedDefaults 建立示範帳號（密碼皆為 password123），已存在則略過。
func (r *AuthRepo) SeedDefaults(ctx context.Context, hash func(string) (string, error)) error {
	pwd, err := hash("password123")
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
INSERT INTO users (username, email, first_name, password_hash, confirmed, role)
VALUES ($1, $2, $3, $4, TRUE, $5)
ON CONFLICT (email) DO NOTHING;
`
	for _, u := range DefaultSeedUsers() {
		if _, err := tx.ExecContext(ctx, q, u.Username, u.Email, u.FirstName, pwd, string(u.Role)); err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
	}
	return tx.Commit()
}

// DefaultSeedUsers 示範帳號清單，memory store 也共用。
func DefaultSeedUsers() []authDomain.User {
	return []authDomain.User{
		{Username: "admin", Email: "admin@example.com", FirstName: "Admin", Role: authDomain.RoleAdmin, Confirmed: true},
		{Username: "manager", Email: "manager@example.com", FirstName: "Manager", Role: authDomain.RoleManager, Confirmed: true},
		{Username: "user", Email: "user@example.com", FirstName: "User", Role: authDomain.RoleAuthenticated, Confirmed: true},
	}
}

func (r *AuthRepo) scanUser(row *sql.Row) (authDomain.User, error) {
	var u authDomain.User
	var role string
	var createdAt time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Password,
		&u.ResetPasswordToken, &u.Blocked, &u.Confirmed, &role, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return authDomain.User{}, authDomain.ErrUserNotFound
		}
		return authDomain.User{}, err
	}
	u.Role = authDomain.Role(role)
	u.CreatedAt = createdAt
	return u, nil
}
