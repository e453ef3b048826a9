package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
)

func newMockRepo(t *testing.T) (SessionRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return SessionRepository{DB: conn}, mock
}

var sessionCols = []string{"id", "user_id", "name", "email", "access_token", "id_token", "refresh_token", "expires_at", "created_at"}

func TestSessionCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := domain.Session{ID: "sid", UserID: "u-1", AccessToken: "at", IDToken: "idt", ExpiresAt: now.Add(time.Hour), CreatedAt: now}

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("sid", "u-1", nil, nil, "at", "idt", nil, now.Add(time.Hour), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionCreateRequiresIDs(t *testing.T) {
	repo, _ := newMockRepo(t)
	err := repo.Create(context.Background(), domain.Session{ID: "sid"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSessionGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM sessions WHERE id=\\?").
		WithArgs("sid").
		WillReturnRows(sqlmock.NewRows(sessionCols).
			AddRow("sid", "u-1", "Somchai", nil, "at", "idt", nil, now.Add(time.Hour), now))

	s, err := repo.GetByID(context.Background(), "sid", now)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if s.UserID != "u-1" || s.Name != "Somchai" || s.Email != "" || s.Bearer() != "idt" {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestSessionGetByIDMissingOrExpired(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM sessions").WithArgs("gone").WillReturnError(sql.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), "gone", now); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("FROM sessions").
		WithArgs("old").
		WillReturnRows(sqlmock.NewRows(sessionCols).
			AddRow("old", "u-1", nil, nil, "at", nil, nil, now.Add(-time.Minute), now.Add(-time.Hour)))
	if _, err := repo.GetByID(context.Background(), "old", now); !domain.IsNotFound(err) {
		t.Fatalf("expected expired session to read as not found, got %v", err)
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM sessions WHERE expires_at").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("DeleteExpired returned error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows purged, got %d", n)
	}
}
