package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/krishibandhu/krishibandhu-backend/internal/model"
	"github.com/krishibandhu/krishibandhu-backend/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,phone,COALESCE(email,''),password_hash,role,state,district,location,language,created_at"

// Create inserts a user with a hashed password and returns its ID.
// An empty email is stored as NULL so the unique index only applies
// to users who actually provided one. MySQL duplicate-key errors
// (1062) are mapped to ErrPhoneExists or ErrEmailExists based on the
// index name embedded in the error message.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	u.Phone = strings.TrimSpace(u.Phone)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleFarmer
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, phone, email, password_hash, role, state, district, location, language) VALUES (?,?,NULLIF(?,''),?,?,?,?,?,?)",
		u.Name, u.Phone, u.Email, hash, u.Role, u.State, u.District, u.Location, u.Language)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") || strings.Contains(msg, "duplicate") {
			if strings.Contains(msg, "uq_users_email") {
				return 0, ErrEmailExists
			}
			return 0, ErrPhoneExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByIdentifier fetches a user whose phone or email matches the
// given identifier. Email comparison is case-insensitive.
func (r *UserRepo) FindByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE phone=? OR email=? LIMIT 1",
		identifier, strings.ToLower(identifier)).
		Scan(&u.ID, &u.Name, &u.Phone, &u.Email, &u.PasswordHash, &u.Role,
			&u.State, &u.District, &u.Location, &u.Language, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id).
		Scan(&u.ID, &u.Name, &u.Phone, &u.Email, &u.PasswordHash, &u.Role,
			&u.State, &u.District, &u.Location, &u.Language, &u.CreatedAt)
	return u, err
}

// UpdateName changes the display name of a user.
func (r *UserRepo) UpdateName(ctx context.Context, id uint64, name string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET name=? WHERE id=?", name, id)
	return err
}
