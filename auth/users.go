package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hazyhaar/sinapp/dbopen"
	"github.com/hazyhaar/sinapp/idgen"
)

// ErrBadCredentials covers unknown users, disabled users and wrong passwords
// alike.
var ErrBadCredentials = errors.New("auth: invalid email or password")

// Migration creates the staff user table.
var Migration = dbopen.Migration{
	Name: "auth_001_users",
	SQL: `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    roles         TEXT NOT NULL DEFAULT 'staff',
    status        TEXT NOT NULL DEFAULT 'active',
    created_at    INTEGER NOT NULL
);`,
}

// User is a staff account.
type User struct {
	ID        string
	Name      string
	Email     string
	Roles     []string
	CreatedAt time.Time
}

// Users stores staff accounts with bcrypt password hashes.
type Users struct {
	db    *sql.DB
	newID idgen.Generator
	cost  int
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db, newID: idgen.Default, cost: bcrypt.DefaultCost}
}

// Create adds an active user.
func (u *Users) Create(ctx context.Context, email, name, password string, roles ...string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("auth: email and password are required")
	}
	if len(roles) == 0 {
		roles = []string{RoleStaff}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := &User{ID: u.newID(), Name: name, Email: email, Roles: roles, CreatedAt: time.Now()}
	_, err = dbopen.Exec(ctx, u.db,
		`INSERT INTO users (id, name, email, password_hash, roles, status, created_at) VALUES (?, ?, ?, ?, ?, 'active', ?)`,
		user.ID, name, email, string(hash), strings.Join(roles, ","), user.CreatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	return user, nil
}

// Authenticate checks credentials and returns claims for the token.
func (u *Users) Authenticate(ctx context.Context, email, password string) (*Claims, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var id, name, roles, hash string
	err := u.db.QueryRowContext(ctx,
		`SELECT id, name, roles, password_hash FROM users WHERE email = ? AND status = 'active'`, email).
		Scan(&id, &name, &roles, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return &Claims{UserID: id, Name: name, Email: email, Roles: strings.Split(roles, ",")}, nil
}

// Disable blocks further logins for id.
func (u *Users) Disable(ctx context.Context, id string) error {
	_, err := dbopen.Exec(ctx, u.db, `UPDATE users SET status = 'disabled' WHERE id = ?`, id)
	return err
}
