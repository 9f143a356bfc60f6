package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*$`

	mock.ExpectExec(q).
		WithArgs(sqlmock.AnyArg(), "u1", "hash123", "agent", "10.0.0.1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token := &models.RefreshToken{
		UserID:    "u1",
		TokenHash: "hash123",
		UserAgent: "agent",
		IPAddress: "10.0.0.1",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := repo.Create(context.Background(), token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.ID == "" {
		t.Fatal("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByHash_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+id,\s*user_id,\s*token_hash.*FROM\s+refresh_tokens\s+WHERE\s+token_hash\s*=\s*\$1\s*$`

	expires := time.Now().Add(10 * time.Minute)
	created := time.Now().Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "user_agent", "ip_address", "expires_at", "is_revoked", "created_at"}).
		AddRow("t1", "u1", "hash123", "", "", expires, false, created)

	mock.ExpectQuery(q).WithArgs("hash123").WillReturnRows(rows)

	got, err := repo.FindByHash(context.Background(), "hash123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "t1" || got.UserID != "u1" || got.IsRevoked || !got.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFindByHash_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)SELECT.*FROM\s+refresh_tokens\s+WHERE\s+token_hash`

	mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByHash(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestRevoke_CASSemantics(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+refresh_tokens\s+SET\s+is_revoked\s*=\s*true\s+WHERE\s+id\s*=\s*\$1\s+AND\s+is_revoked\s*=\s*false\s*$`

	// First call flips the row.
	mock.ExpectExec(q).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Revoke(context.Background(), "t1")
	if err != nil || !ok {
		t.Fatalf("want ok=true err=nil, got ok=%v err=%v", ok, err)
	}

	// Second call finds nothing to flip.
	mock.ExpectExec(q).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.Revoke(context.Background(), "t1")
	if err != nil || ok {
		t.Fatalf("want ok=false err=nil, got ok=%v err=%v", ok, err)
	}
}

func TestRevokeAllForUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+refresh_tokens\s+SET\s+is_revoked\s*=\s*true\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+is_revoked\s*=\s*false\s*$`

	mock.ExpectExec(q).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.RevokeAllForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3 rows, got %d", n)
	}
}

func TestListByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)SELECT.*FROM\s+refresh_tokens\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "user_agent", "ip_address", "expires_at", "is_revoked", "created_at"}).
		AddRow("t2", "u1", "h2", "agent2", "", now.Add(time.Hour), false, now).
		AddRow("t1", "u1", "h1", "agent1", "", now.Add(time.Hour), true, now.Add(-time.Hour))

	mock.ExpectQuery(q).WithArgs("u1").WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "t2" || got[1].ID != "t1" {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestDeleteExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+expires_at\s*<\s*\$1\s*$`

	mock.ExpectExec(q).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := repo.DeleteExpired(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("want 5 rows, got %d", n)
	}
}
