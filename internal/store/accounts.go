package store

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/fixitforward/internal/model"
)

// CreateAccount creates a new account.
func CreateAccount(ctx context.Context, db *sql.DB, username, email, phone, passwordHash string) (*model.Account, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO accounts (username, email, phone, password_hash) VALUES (?, ?, ?, ?)`,
		username, email, phone, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting account id: %w", err)
	}

	return GetAccount(ctx, db, id)
}

// GetAccount returns an account by ID.
func GetAccount(ctx context.Context, db *sql.DB, id int64) (*model.Account, error) {
	a := &model.Account{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, email, phone, password_hash, created_at
		 FROM accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Phone, &a.PasswordHash, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return a, nil
}

// GetAccountByEmail returns an account by email.
func GetAccountByEmail(ctx context.Context, db *sql.DB, email string) (*model.Account, error) {
	a := &model.Account{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, email, phone, password_hash, created_at
		 FROM accounts WHERE email = ?`, email,
	).Scan(&a.ID, &a.Username, &a.Email, &a.Phone, &a.PasswordHash, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting account by email: %w", err)
	}
	return a, nil
}

// Accounts records signups.
type Accounts struct {
	DB *sql.DB
}

// NewAccounts returns an account recorder on db.
func NewAccounts(db *sql.DB) *Accounts {
	return &Accounts{DB: db}
}

// RecordSignup stores the form as an account with a bcrypt password hash.
// Signing up again with a known email is a validation error.
func (s *Accounts) RecordSignup(ctx context.Context, form model.SignupForm) error {
	existing, err := GetAccountByEmail(ctx, s.DB, form.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return model.Invalid("email", "already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	_, err = CreateAccount(ctx, s.DB, form.Username, form.Email, form.Phone, string(hash))
	return err
}
