package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AnshRaj112/blog-backend/internal/models"
	"github.com/AnshRaj112/blog-backend/pkg/utils"
	"github.com/lib/pq"
)

const userColumns = `id, username, mobile, password_hash, avatar, user_desc, date_joined, last_login`

type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// usernameConstraint is the unique index Postgres names for tb_users.username.
const usernameConstraint = "tb_users_username_key"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func violatesConstraint(err error, name string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Constraint == name
}

// ReservedUsername reports whether username is somebody else's mobile number.
// New accounts take their mobile as username, so such names must stay free.
func ReservedUsername(username, ownMobile string) bool {
	return username != ownMobile && utils.ValidMobile(username)
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u         models.User
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Mobile, &u.PasswordHash, &u.Avatar, &u.Description, &u.DateJoined, &lastLogin); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

// CreateUser registers mobile with an already hashed password. The username
// starts out equal to the mobile number.
func (s *UserService) CreateUser(ctx context.Context, mobile, passwordHash string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO tb_users (username, mobile, password_hash)
		VALUES ($1, $1, $2)
		RETURNING `+userColumns,
		mobile, passwordHash)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			if violatesConstraint(err, usernameConstraint) {
				return nil, ErrDuplicateUsername
			}
			return nil, ErrDuplicateMobile
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM tb_users WHERE mobile = $1`, mobile))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by mobile: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM tb_users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// Authenticate returns the user owning mobile if password matches. Unknown
// mobiles and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, mobile, password string) (*models.User, error) {
	u, err := s.GetUserByMobile(ctx, mobile)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := utils.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tb_users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateProfile sets username and description; avatar is only replaced when non-empty.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, username, desc, avatar string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tb_users
		SET username = $1, user_desc = $2, avatar = COALESCE(NULLIF($3, ''), avatar)
		WHERE id = $4`,
		username, desc, avatar, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) TouchLastLogin(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE tb_users SET last_login = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
