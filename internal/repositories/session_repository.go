package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/config"
	intdb "github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/db"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
)

// SessionRepository wraps DB access for the sessions table.
type SessionRepository struct {
	DB *sql.DB
}

func (r SessionRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return config.DB
}

func (r SessionRepository) Create(ctx context.Context, s domain.Session) error {
	db := r.db()
	if db == nil {
		return domain.InternalError{Msg: "database not connected"}
	}
	if s.ID == "" || s.UserID == "" {
		return domain.ValidationError{Field: "session", Msg: "id and user id are required"}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions
			(id, user_id, name, email, access_token, id_token, refresh_token, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID,
		intdb.NullIfEmpty(s.Name), intdb.NullIfEmpty(s.Email),
		s.AccessToken, intdb.NullIfEmpty(s.IDToken), intdb.NullIfEmpty(s.RefreshToken),
		s.ExpiresAt.UTC(), s.CreatedAt.UTC(),
	)
	if err != nil {
		return domain.InternalError{Msg: "insert session", Err: err}
	}
	return nil
}

// GetByID loads a session row; expired rows read as not found.
func (r SessionRepository) GetByID(ctx context.Context, id string, now time.Time) (domain.Session, error) {
	db := r.db()
	if db == nil {
		return domain.Session{}, domain.InternalError{Msg: "database not connected"}
	}
	var s domain.Session
	var name, email, idToken, refresh sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, user_id, name, email, access_token, id_token, refresh_token, expires_at, created_at
		FROM sessions WHERE id=? LIMIT 1`, id).Scan(
		&s.ID, &s.UserID, &name, &email, &s.AccessToken, &idToken, &refresh, &s.ExpiresAt, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.NotFoundError{Resource: "session", Err: err}
	}
	if err != nil {
		return domain.Session{}, domain.InternalError{Msg: "load session", Err: err}
	}
	s.Name = name.String
	s.Email = email.String
	s.IDToken = idToken.String
	s.RefreshToken = refresh.String
	if s.Expired(now) {
		return domain.Session{}, domain.NotFoundError{Resource: "session"}
	}
	return s, nil
}

func (r SessionRepository) Delete(ctx context.Context, id string) error {
	db := r.db()
	if db == nil {
		return domain.InternalError{Msg: "database not connected"}
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id); err != nil {
		return domain.InternalError{Msg: "delete session", Err: err}
	}
	return nil
}

// DeleteExpired purges rows past their expiry and returns how many went.
func (r SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	db := r.db()
	if db == nil {
		return 0, domain.InternalError{Msg: "database not connected"}
	}
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, domain.InternalError{Msg: "purge sessions", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions rows affected: %w", err)
	}
	return n, nil
}
