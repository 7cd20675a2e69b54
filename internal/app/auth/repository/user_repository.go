package repository

import (
	"context"
	"fmt"
	"time"

	"furnibles/internal/app/auth/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, email, password_hash, name, role, is_verified, is_active,
	verification_token, reset_token, reset_token_expires_at, last_login_at, created_at`

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создает новый репозиторий пользователей
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

// Create создает нового пользователя
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, role, is_verified, is_active,
			verification_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(
		ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role,
		user.IsVerified, user.IsActive, user.VerificationToken, user.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id), "id")
}

// GetByEmail получает пользователя по email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, email), "email")
}

// GetByVerificationToken получает пользователя по токену подтверждения email
func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1 AND verification_token <> ''`
	return r.scanOne(r.db.QueryRow(ctx, query, token), "verification token")
}

// GetByResetToken получает пользователя по токену сброса пароля
func (r *userRepository) GetByResetToken(ctx context.Context, token string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1 AND reset_token <> ''`
	return r.scanOne(r.db.QueryRow(ctx, query, token), "reset token")
}

// Update обновляет данные пользователя
func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET email = $1, password_hash = $2, name = $3, role = $4, is_verified = $5,
			is_active = $6, verification_token = $7, reset_token = $8, reset_token_expires_at = $9
		WHERE id = $10
	`

	result, err := r.db.Exec(
		ctx, query,
		user.Email, user.PasswordHash, user.Name, user.Role, user.IsVerified,
		user.IsActive, user.VerificationToken, user.ResetToken, user.ResetTokenExpiresAt,
		user.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// UpdateLastLogin фиксирует время последнего входа
func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login_at = $1 WHERE id = $2`

	if _, err := r.db.Exec(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

func (r *userRepository) scanOne(row pgx.Row, by string) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&user.IsVerified,
		&user.IsActive,
		&user.VerificationToken,
		&user.ResetToken,
		&user.ResetTokenExpiresAt,
		&user.LastLoginAt,
		&user.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", by, err)
	}

	return &user, nil
}
