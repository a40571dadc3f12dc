package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/krishibandhu/krishibandhu-backend/internal/model"
)

// TokenRepo persists access/refresh tokens (single 'tokens' table,
// opaque values, exact string lookup).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// ReplacePair deletes every token belonging to the user and inserts
// the new access/refresh pair, all in one transaction. This is the
// single-active-session invariant: issuing a pair terminates all
// prior pairs for the user, including ones from other devices. Two
// concurrent logins race on this step and the last committed write
// determines the surviving pair.
func (r *TokenRepo) ReplacePair(ctx context.Context, userID uint64, access, refresh model.Token) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, "DELETE FROM tokens WHERE user_id=?", userID); err != nil {
		return err
	}
	const ins = "INSERT INTO tokens (token, user_id, kind, expires_at) VALUES (?,?,?,?)"
	if _, err = tx.ExecContext(ctx, ins, access.Value, userID, access.Kind, access.ExpiresAt); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, ins, refresh.Value, userID, refresh.Kind, refresh.ExpiresAt); err != nil {
		return err
	}
	return nil
}

// FindByValue looks up a live token row by exact value and kind.
// Expired rows are not deleted here; they are reported as
// ErrTokenInvalid and left for the sweeper.
func (r *TokenRepo) FindByValue(ctx context.Context, value, kind string) (model.Token, error) {
	var t model.Token
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token, user_id, kind, expires_at, created_at FROM tokens WHERE token=? AND kind=? LIMIT 1",
		value, kind).
		Scan(&t.ID, &t.Value, &t.UserID, &t.Kind, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Token{}, ErrTokenInvalid
	}
	return t, err
}

// DeleteAllForUser removes every token of a user (logout).
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM tokens WHERE user_id=?", userID)
	return err
}

// DeleteExpired sweeps rows whose expiry has passed and returns the
// number of rows removed. Lookups already reject expired tokens, so
// the sweep only bounds table growth.
func (r *TokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tokens WHERE expires_at < UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
