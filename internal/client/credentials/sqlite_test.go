package credentials

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cache.db")
	db, err := InitDatabase(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	s := NewSQLiteStore(newTestDB(t))
	ctx := context.Background()

	expires := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	require.NoError(t, s.Save(ctx, &State{
		Email:            "a@b.c",
		RefreshToken:     "tok",
		RefreshExpiresAt: expires,
	}))

	st, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, st)
	require.Equal(t, "a@b.c", st.Email)
	require.Equal(t, "tok", st.RefreshToken)
	require.True(t, st.RefreshExpiresAt.Equal(expires))
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	s := NewSQLiteStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &State{Email: "a@b.c", RefreshToken: "old", RefreshExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, s.Save(ctx, &State{Email: "a@b.c", RefreshToken: "new", RefreshExpiresAt: time.Now().Add(time.Hour)}))

	st, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "new", st.RefreshToken)
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	s := NewSQLiteStore(newTestDB(t))

	st, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, st)
}

func TestSQLiteStore_Clear(t *testing.T) {
	s := NewSQLiteStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &State{RefreshToken: "tok", RefreshExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, s.Clear(ctx))

	st, err := s.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, st)

	// Clearing an already-empty cache is fine.
	require.NoError(t, s.Clear(ctx))
}
